package bootstrap

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/causalest/causalest/core/estimator"
)

// FailurePolicy decides what a failed iteration does to the run.
type FailurePolicy string

const (
	// PolicyPropagate aborts the run on the first failed iteration.
	PolicyPropagate FailurePolicy = "propagate"
	// PolicyRetry redraws a failed iteration with a fresh resample, up to
	// MaxRetries times, before propagating.
	PolicyRetry FailurePolicy = "retry"
)

// ParseFailurePolicy validates a policy name. The empty string selects
// PolicyPropagate.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch p := FailurePolicy(s); p {
	case "":
		return PolicyPropagate, nil
	case PolicyPropagate, PolicyRetry:
		return p, nil
	}
	return "", fmt.Errorf("unknown bootstrap failure policy %q", s)
}

// ErrNonFinite marks an estimate that came back NaN or infinite. It is
// treated as a failed iteration so it never reaches the sample distribution.
var ErrNonFinite = errors.New("estimator returned a non-finite estimate")

// Config defines how the bootstrap is run.
type Config struct {
	// Iterations is the number of resamples drawn.
	Iterations int

	// Level is the confidence level in percent, e.g. 95.
	Level float64

	// Seed makes the resampling reproducible. Results are bit-identical for a
	// given seed regardless of Workers.
	Seed uint64

	// Workers bounds the concurrently running iterations. Zero means
	// GOMAXPROCS.
	Workers int

	// Policy handles failed iterations.
	Policy FailurePolicy

	// MaxRetries bounds the redraws of one iteration under PolicyRetry.
	MaxRetries int
}

// DefaultConfig returns the settings used when none are configured.
func DefaultConfig() Config {
	return Config{
		Iterations: 1000,
		Level:      95,
		Seed:       42,
		Policy:     PolicyPropagate,
		MaxRetries: 10,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Iterations < 2 {
		return fmt.Errorf("bootstrap needs at least 2 iterations, got %d", c.Iterations)
	}
	if c.Level <= 0 || c.Level >= 100 {
		return fmt.Errorf("confidence level must be in (0, 100), got %v", c.Level)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries must not be negative, got %d", c.MaxRetries)
	}
	if _, err := ParseFailurePolicy(string(c.Policy)); err != nil {
		return err
	}
	return nil
}

func (c Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (c Config) attempts() int {
	if c.Policy == PolicyRetry {
		return 1 + c.MaxRetries
	}
	return 1
}

// Interval is a percentile confidence interval.
type Interval struct {
	Lower float64 `json:"lower" yaml:"lower"`
	Upper float64 `json:"upper" yaml:"upper"`
}

// Width returns Upper-Lower.
func (i Interval) Width() float64 { return i.Upper - i.Lower }

// Contains reports whether v lies within the closed interval.
func (i Interval) Contains(v float64) bool { return v >= i.Lower && v <= i.Upper }

func (i Interval) String() string { return fmt.Sprintf("[%.4f, %.4f]", i.Lower, i.Upper) }

// Samples holds the bootstrap distribution, indexed by iteration.
type Samples struct {
	ATE []float64 `json:"ate"`
	ATT []float64 `json:"att"`
	ATC []float64 `json:"atc"`
}

// Result is the outcome of a bootstrap run.
type Result struct {
	Estimator  string  `json:"estimator"`
	Level      float64 `json:"level"`
	Iterations int     `json:"iterations"`

	ATE Interval `json:"ate"`
	ATT Interval `json:"att"`
	ATC Interval `json:"atc"`

	// StdErr holds the standard deviation of each bootstrap distribution.
	StdErr estimator.Effect `json:"std_err"`

	Samples Samples `json:"-"`

	// Retries counts redrawn iterations under PolicyRetry.
	Retries int `json:"retries"`
}

// IterationError reports the failure of one bootstrap iteration.
type IterationError struct {
	Iteration int
	Attempt   int
	Err       error
}

func (e *IterationError) Error() string {
	return fmt.Sprintf("bootstrap iteration %d (attempt %d): %v", e.Iteration, e.Attempt, e.Err)
}

func (e *IterationError) Unwrap() error { return e.Err }
