// Package fields models section profile questions as a closed set of field kinds, each
// with its own answer validator.
package fields

import (
	"math"
	"strconv"
	"strings"

	"github.com/charlesng35/huddle/internal/models"
	apperrors "github.com/charlesng35/huddle/pkg/errors"
	appValidator "github.com/charlesng35/huddle/pkg/validator"
)

// Kind is implemented by every field variant. check is only invoked with non-empty,
// trimmed values; required and length rules are applied by Field.
type Kind interface {
	Type() models.FieldType
	check(value string) (*apperrors.AppError, string)
}

type (
	// Text is a single line of free text.
	Text struct{}
	// Textarea is multi-line free text.
	Textarea struct{}
	// Checkbox is a boolean-ish answer stored as text.
	Checkbox struct{}
	// Date is a calendar date entered by the member.
	Date struct{}
	// Phone is a phone number entered by the member.
	Phone struct{}
	// Number must parse as a finite number.
	Number struct{}
	// URL must be an absolute URL.
	URL struct{}
	// Email must be a syntactically valid address.
	Email struct{}
	// Select must be one of Options.
	Select struct{ Options []models.FieldOption }
	// MultiSelect is a comma-joined subset of Options.
	MultiSelect struct{ Options []models.FieldOption }
)

func (Text) Type() models.FieldType        { return models.FieldTypeText }
func (Textarea) Type() models.FieldType    { return models.FieldTypeTextarea }
func (Checkbox) Type() models.FieldType    { return models.FieldTypeCheckbox }
func (Date) Type() models.FieldType        { return models.FieldTypeDate }
func (Phone) Type() models.FieldType       { return models.FieldTypePhone }
func (Number) Type() models.FieldType      { return models.FieldTypeNumber }
func (URL) Type() models.FieldType         { return models.FieldTypeURL }
func (Email) Type() models.FieldType       { return models.FieldTypeEmail }
func (Select) Type() models.FieldType      { return models.FieldTypeSelect }
func (MultiSelect) Type() models.FieldType { return models.FieldTypeMultiselect }

func (Text) check(string) (*apperrors.AppError, string)     { return nil, "" }
func (Textarea) check(string) (*apperrors.AppError, string) { return nil, "" }
func (Checkbox) check(string) (*apperrors.AppError, string) { return nil, "" }
func (Date) check(string) (*apperrors.AppError, string)     { return nil, "" }
func (Phone) check(string) (*apperrors.AppError, string)    { return nil, "" }

func (Number) check(value string) (*apperrors.AppError, string) {
	n, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return ErrInvalidNumber, "must be a number"
	}
	return nil, ""
}

func (URL) check(value string) (*apperrors.AppError, string) {
	if !appValidator.IsValid(value, "url") {
		return ErrInvalidURL, "must be an absolute URL"
	}
	return nil, ""
}

func (Email) check(value string) (*apperrors.AppError, string) {
	if !appValidator.IsValid(value, "email") {
		return ErrInvalidEmail, "must be a valid email address"
	}
	return nil, ""
}

func (s Select) check(value string) (*apperrors.AppError, string) {
	if !hasOption(s.Options, value) {
		return ErrInvalidOption, "must be one of the listed options"
	}
	return nil, ""
}

func (s MultiSelect) check(value string) (*apperrors.AppError, string) {
	for _, part := range splitMulti(value) {
		if !hasOption(s.Options, part) {
			return ErrInvalidOption, "contains an option that is not listed: " + part
		}
	}
	return nil, ""
}

func hasOption(options []models.FieldOption, value string) bool {
	for _, opt := range options {
		if opt.Value == value {
			return true
		}
	}
	return false
}

func splitMulti(value string) []string {
	raw := strings.Split(value, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}
