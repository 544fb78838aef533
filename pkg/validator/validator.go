// Package validator wraps go-playground/validator with the rules Huddle request payloads use.
package validator

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	validate *validator.Validate

	fieldNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
)

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Param string `json:"param"`
}

// ValidationErrors collects multiple validation failures.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}

	var b strings.Builder
	for i, err := range v {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(err.Field)
		b.WriteString(" failed on ")
		b.WriteString(err.Tag)
		if err.Param != "" {
			b.WriteString("=")
			b.WriteString(err.Param)
		}
	}
	return b.String()
}

// ValidateStruct validates a struct using registered rules. Rule failures come back as
// ValidationErrors keyed by the JSON field name.
func ValidateStruct(s any) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	failures := make(ValidationErrors, 0, len(ve))
	for _, fe := range ve {
		failures = append(failures, ValidationError{Field: fe.Field(), Tag: fe.Tag(), Param: fe.Param()})
	}
	return failures
}

// ValidateVar checks a single value against a tag expression such as "email" or "url".
func ValidateVar(value any, tag string) error {
	return instance().Var(value, tag)
}

// IsValid reports whether the value satisfies the tag expression.
func IsValid(value any, tag string) bool {
	return ValidateVar(value, tag) == nil
}

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(jsonFieldName)
		// field_name: machine names of section profile fields, e.g. "shoe_size".
		must(validate.RegisterValidation("field_name", func(fl validator.FieldLevel) bool {
			return fieldNamePattern.MatchString(fl.Field().String())
		}))
		// notblank: rejects strings that are empty once trimmed.
		must(validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		}))
	})
	return validate
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return fld.Name
	}
	return name
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
