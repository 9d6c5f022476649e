// Package validation runs struct-tag validation and turns the first failure
// into a validation_failed domain error named after the JSON field.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	dErrors "databreaker/pkg/domain-errors"
)

var defaultValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonName)
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// jsonName reports fields by their JSON key so messages match what clients send.
func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return strings.ToLower(f.Name)
	}
	return name
}

// Validate checks req against its validate tags.
func Validate(req any) error {
	if err := defaultValidator.Struct(req); err != nil {
		return dErrors.New(dErrors.CodeValidation, ErrorMessage(err))
	}
	return nil
}

// ValidateExcept checks req against its validate tags, skipping the named
// top-level Go struct fields.
func ValidateExcept(req any, fields ...string) error {
	if err := defaultValidator.StructExcept(req, fields...); err != nil {
		return dErrors.New(dErrors.CodeValidation, ErrorMessage(err))
	}
	return nil
}

var messages = map[string]string{
	"required":         "%s is required",
	"notblank":         "%s must not be blank",
	"email":            "%s must be a valid email",
	"url":              "%s must be a valid url",
	"iso3166_1_alpha2": "%s must be an ISO 3166-1 alpha-2 country code",
}

var paramMessages = map[string]string{
	"len":   "%s must be exactly %s characters",
	"min":   "%s must be at least %s",
	"max":   "%s must be at most %s",
	"oneof": "%s must be one of [%s]",
}

// ErrorMessage describes the first validation failure in err.
func ErrorMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid input"
	}

	fe := verrs[0]
	field := fe.Field()
	if msg, ok := messages[fe.ActualTag()]; ok {
		return fmt.Sprintf(msg, field)
	}
	if msg, ok := paramMessages[fe.ActualTag()]; ok {
		return fmt.Sprintf(msg, field, fe.Param())
	}
	if field == "" {
		return "invalid input"
	}
	return field + " is invalid"
}
