package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is shared; validator caches struct metadata and is safe for
// concurrent use.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report option names the way users write them, not Go field names.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, tag := range []string{"hcl", "toml", "yaml"} {
			name, _, _ := strings.Cut(field.Tag.Get(tag), ",")
			if name != "" && name != "-" {
				return name
			}
		}
		return field.Name
	})
	return v
}

// Bind decodes raw into target and validates the result against its
// `validate` struct tags. raw may be nil, in which case target keeps its
// defaults and is only validated. Every failure is returned as *Error.
func Bind(raw Options, target any) error {
	if raw != nil {
		if err := raw.Decode(target); err != nil {
			var cfgErr *Error
			if errors.As(err, &cfgErr) {
				return err
			}
			return &Error{Err: err}
		}
	}

	if err := validate.Struct(target); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return fieldError(fieldErrs[0])
		}
		return &Error{Err: err}
	}
	return nil
}

func fieldError(fe validator.FieldError) *Error {
	rule := fe.Tag()
	if fe.Param() != "" {
		rule += "=" + fe.Param()
	}
	return &Error{
		Option: fe.Field(),
		Err:    fmt.Errorf("value %v violates rule %q", fe.Value(), rule),
	}
}
