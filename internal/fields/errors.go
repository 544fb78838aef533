package fields

import (
	"net/http"

	apperrors "github.com/charlesng35/huddle/pkg/errors"
)

// Validation kinds reported for member answers.
var (
	ErrRequiredFieldMissing = apperrors.New("REQUIRED_FIELD_MISSING", "A value is required", http.StatusUnprocessableEntity)
	ErrInvalidNumber        = apperrors.New("INVALID_NUMBER", "Value must be a number", http.StatusUnprocessableEntity)
	ErrInvalidURL           = apperrors.New("INVALID_URL", "Value must be an absolute URL", http.StatusUnprocessableEntity)
	ErrInvalidEmail         = apperrors.New("INVALID_EMAIL", "Value must be an email address", http.StatusUnprocessableEntity)
	ErrInvalidOption        = apperrors.New("INVALID_OPTION", "Value is not one of the allowed options", http.StatusUnprocessableEntity)
	ErrTooLong              = apperrors.New("TOO_LONG", "Value exceeds the maximum length", http.StatusUnprocessableEntity)
)

// Error describes why a single answer was rejected. It unwraps to its kind so callers can
// match with errors.Is against the sentinels above.
type Error struct {
	Kind    *apperrors.AppError
	FieldID string
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

// Unwrap returns the kind carrying the field-specific message.
func (e *Error) Unwrap() error {
	if e == nil || e.Kind == nil {
		return nil
	}
	return e.Kind.WithMessage(e.Message)
}

// FieldName reports the offending field for API error payloads.
func (e *Error) FieldName() string {
	if e == nil {
		return ""
	}
	return e.Field
}

// Result is the structured outcome of checking one answer.
type Result struct {
	Valid bool
	Err   *Error
}
