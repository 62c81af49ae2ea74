package api

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// getValidator returns the shared validator, reporting json field names.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("notblank", validateNotBlank)
		validate = v
	})
	return validate
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// validateStruct checks s against its validate tags.
func validateStruct(s any) error {
	if err := getValidator().Struct(s); err != nil {
		return fmt.Errorf("%w: %s", ErrBadRequest, formatValidationError(err))
	}
	return nil
}

// validateCaller reports whether addr is a hex wallet address.
func validateCaller(addr string) error {
	if err := getValidator().Var(addr, "required,eth_addr"); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidCaller, addr)
	}
	return nil
}

// formatValidationError renders validator failures as "field: reason" pairs.
func formatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return "invalid request format"
	}

	msgs := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		field := e.Field()
		switch e.Tag() {
		case "required", "notblank":
			msgs = append(msgs, field+": is required")
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s: must be at most %s characters", field, e.Param()))
		case "gte":
			msgs = append(msgs, fmt.Sprintf("%s: must be at least %s", field, e.Param()))
		case "gt":
			msgs = append(msgs, fmt.Sprintf("%s: must be greater than %s", field, e.Param()))
		default:
			msgs = append(msgs, field+": invalid value")
		}
	}
	sort.Strings(msgs)
	return strings.Join(msgs, "; ")
}
