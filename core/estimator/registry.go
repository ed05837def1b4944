package estimator

import (
	"fmt"

	"github.com/causalest/causalest/core/model"
	"github.com/causalest/causalest/pkg/logging"
)

// Kind names an estimation strategy.
type Kind string

const (
	KindIPW            Kind = "ipw"
	KindDoublyRobust   Kind = "doubly_robust"
	KindStratification Kind = "stratification"
	KindSLearner       Kind = "s_learner"
	KindTLearner       Kind = "t_learner"
	KindMatching       Kind = "matching"
)

// Kinds lists every strategy in a stable order.
func Kinds() []Kind {
	return []Kind{KindIPW, KindDoublyRobust, KindStratification, KindSLearner, KindTLearner, KindMatching}
}

// ParseKind validates a strategy name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown estimator %q", s)
}

// Options carries the settings shared by the strategies. Zero values select
// the defaults.
type Options struct {
	Propensity model.Factory
	Outcome    model.Factory
	Epsilon    float64
	Strata     int
	Policy     StratumPolicy
	Caliper    float64
	Logger     logging.Logger
}

// New builds the strategy named by kind.
func New(kind Kind, opts Options) (Estimator, error) {
	if opts.Epsilon < 0 || opts.Epsilon >= 0.5 {
		return nil, fmt.Errorf("propensity clip epsilon must be in (0, 0.5), got %v", opts.Epsilon)
	}
	logger := logging.OrDefault(opts.Logger).With("estimator", string(kind))
	switch kind {
	case KindIPW:
		return &IPW{Propensity: opts.Propensity, Epsilon: opts.Epsilon}, nil
	case KindDoublyRobust:
		return &DoublyRobust{Propensity: opts.Propensity, Outcome: opts.Outcome, Epsilon: opts.Epsilon}, nil
	case KindStratification:
		if opts.Strata < 0 {
			return nil, fmt.Errorf("number of strata must be positive, got %d", opts.Strata)
		}
		if _, err := ParseStratumPolicy(string(opts.Policy)); err != nil {
			return nil, err
		}
		return &Stratification{Propensity: opts.Propensity, Epsilon: opts.Epsilon, Strata: opts.Strata, Policy: opts.Policy, Logger: logger}, nil
	case KindSLearner:
		return &SLearner{Outcome: opts.Outcome}, nil
	case KindTLearner:
		return &TLearner{Outcome: opts.Outcome}, nil
	case KindMatching:
		if opts.Caliper < 0 {
			return nil, fmt.Errorf("caliper must be positive, got %v", opts.Caliper)
		}
		return &Matching{Propensity: opts.Propensity, Epsilon: opts.Epsilon, Caliper: opts.Caliper, Logger: logger}, nil
	}
	return nil, fmt.Errorf("unknown estimator %q", kind)
}
