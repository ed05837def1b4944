package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// configValidate checks the struct tags. Field names in its errors are the
// YAML keys.
var configValidate *validator.Validate

func init() {
	configValidate = validator.New()
	configValidate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Validate checks field ranges and the rules that span fields.
func (c *Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return formatValidationError(err)
	}

	switch c.Propensity.Kind {
	case "logistic", "mean":
	default:
		return fmt.Errorf("propensity.kind must be a classifier (logistic or mean), got '%s'", c.Propensity.Kind)
	}
	if c.Data.Treatment == c.Data.Outcome {
		return fmt.Errorf("data.treatment and data.outcome must name different columns, both are '%s'", c.Data.Treatment)
	}
	seen := make(map[string]bool, len(c.Estimators))
	for _, name := range c.Estimators {
		if seen[name] {
			return fmt.Errorf("estimator '%s' is listed more than once", name)
		}
		seen[name] = true
	}
	return nil
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed '%s=%s' (got %v)", field, fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed '%s'", field, fe.Tag()))
		}
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}
