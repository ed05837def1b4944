package config

// Config defines a complete estimation run.
type Config struct {
	// Estimators lists the strategies to run, in report order for ties.
	Estimators []string `yaml:"estimators" validate:"required,min=1,dive,oneof=ipw doubly_robust stratification s_learner t_learner matching"`

	Propensity ModelConfig `yaml:"propensity"`
	Outcome    ModelConfig `yaml:"outcome"`

	// Epsilon clips propensity scores to [epsilon, 1-epsilon].
	Epsilon float64 `yaml:"epsilon" validate:"gt=0,lt=0.5"`

	Stratification StratificationConfig `yaml:"stratification"`
	Matching       MatchingConfig       `yaml:"matching"`
	Bootstrap      BootstrapConfig      `yaml:"bootstrap"`
	Data           DataConfig           `yaml:"data"`
	Logging        LoggingConfig        `yaml:"logging"`
}

// ModelConfig selects and tunes a default learner.
type ModelConfig struct {
	Kind    string  `yaml:"kind" validate:"required,oneof=logistic linear mean auto"`
	L2      float64 `yaml:"l2" validate:"gte=0"`
	Ridge   float64 `yaml:"ridge" validate:"gte=0"`
	MaxIter int     `yaml:"max_iter" validate:"gte=1"`
	Tol     float64 `yaml:"tol" validate:"gt=0"`
}

// StratificationConfig configures propensity stratification.
type StratificationConfig struct {
	Strata int    `yaml:"strata" validate:"gte=1"`
	Policy string `yaml:"policy" validate:"oneof=exclude fail"`
}

// MatchingConfig configures nearest-neighbour matching.
type MatchingConfig struct {
	Caliper float64 `yaml:"caliper" validate:"gt=0,lte=1"`
}

// BootstrapConfig configures the confidence intervals.
type BootstrapConfig struct {
	Enabled       bool    `yaml:"enabled"`
	Iterations    int     `yaml:"iterations" validate:"gte=2"`
	CILevel       float64 `yaml:"ci_level" validate:"gt=0,lt=100"`
	Seed          uint64  `yaml:"seed"`
	Workers       int     `yaml:"workers" validate:"gte=0"`
	FailurePolicy string  `yaml:"failure_policy" validate:"oneof=propagate retry"`
	MaxRetries    int     `yaml:"max_retries" validate:"gte=0"`
}

// DataConfig names the treatment and outcome columns of the input table.
type DataConfig struct {
	Treatment string `yaml:"treatment" validate:"required"`
	Outcome   string `yaml:"outcome" validate:"required"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json console"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Estimators: []string{"ipw", "doubly_robust", "stratification", "s_learner", "t_learner"},
		Propensity: ModelConfig{Kind: "logistic", L2: 1, Ridge: 1e-6, MaxIter: 100, Tol: 1e-8},
		Outcome:    ModelConfig{Kind: "auto", L2: 1, Ridge: 1e-6, MaxIter: 100, Tol: 1e-8},
		Epsilon:    1e-5,
		Stratification: StratificationConfig{
			Strata: 5,
			Policy: "exclude",
		},
		Matching: MatchingConfig{Caliper: 0.2},
		Bootstrap: BootstrapConfig{
			Enabled:       true,
			Iterations:    1000,
			CILevel:       95,
			Seed:          42,
			FailurePolicy: "propagate",
			MaxRetries:    10,
		},
		Data:    DataConfig{Treatment: "treatment", Outcome: "outcome"},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}
