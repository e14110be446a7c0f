package app

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Config is the process-level configuration of an App. Module options live
// in the files under ConfigPath, not here.
type Config struct {
	ConfigPath      string `validate:"required"`
	LogFormat       string `validate:"omitempty,oneof=text json"`
	LogLevel        string `validate:"omitempty,oneof=debug info warn error"`
	HealthcheckPort int    `validate:"min=0,max=65535"`
}

var validate = validator.New()

// NewConfig validates cfg and returns a copy.
func NewConfig(cfg Config) (*Config, error) {
	if err := validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return nil, fmt.Errorf("invalid %s %v: must satisfy %s", fe.Field(), fe.Value(), ruleOf(fe))
		}
		return nil, err
	}
	return &cfg, nil
}

func ruleOf(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}
