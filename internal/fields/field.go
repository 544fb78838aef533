package fields

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/charlesng35/huddle/internal/models"
	apperrors "github.com/charlesng35/huddle/pkg/errors"
)

var fieldNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,63}$`)

// Field is a profile question ready to check answers against.
type Field struct {
	ID        string
	Name      string
	Label     string
	Required  bool
	MaxLength *int
	Kind      Kind
}

// FromModel resolves the stored definition into its variant.
func FromModel(def models.SectionProfileField) (Field, error) {
	kind, err := kindFor(def.FieldType, def.FieldOptions)
	if err != nil {
		return Field{}, err
	}
	return Field{
		ID:        def.ID,
		Name:      def.FieldName,
		Label:     def.FieldLabel,
		Required:  def.IsRequired,
		MaxLength: def.MaxLength,
		Kind:      kind,
	}, nil
}

func kindFor(fieldType models.FieldType, options []models.FieldOption) (Kind, error) {
	switch fieldType {
	case models.FieldTypeText:
		return Text{}, nil
	case models.FieldTypeTextarea:
		return Textarea{}, nil
	case models.FieldTypeCheckbox:
		return Checkbox{}, nil
	case models.FieldTypeDate:
		return Date{}, nil
	case models.FieldTypePhone:
		return Phone{}, nil
	case models.FieldTypeNumber:
		return Number{}, nil
	case models.FieldTypeURL:
		return URL{}, nil
	case models.FieldTypeEmail:
		return Email{}, nil
	case models.FieldTypeSelect:
		return Select{Options: options}, nil
	case models.FieldTypeMultiselect:
		return MultiSelect{Options: options}, nil
	default:
		return nil, apperrors.NewBadRequest(fmt.Sprintf("unknown field type %q", fieldType))
	}
}

// Normalize trims the answer. Multiselect answers are rejoined without blank parts.
func (f Field) Normalize(value string) string {
	value = strings.TrimSpace(value)
	if _, ok := f.Kind.(MultiSelect); ok {
		return strings.Join(splitMulti(value), ",")
	}
	return value
}

// Check runs required, type and length rules in that order.
func (f Field) Check(value string) Result {
	value = f.Normalize(value)

	if value == "" {
		if f.Required {
			return f.reject(ErrRequiredFieldMissing, "is required")
		}
		return Result{Valid: true}
	}

	if f.Kind != nil {
		if kind, msg := f.Kind.check(value); kind != nil {
			return f.reject(kind, msg)
		}
	}

	if f.MaxLength != nil && *f.MaxLength > 0 && utf8.RuneCountInString(value) > *f.MaxLength {
		return f.reject(ErrTooLong, fmt.Sprintf("must be at most %d characters", *f.MaxLength))
	}

	return Result{Valid: true}
}

// Validate is Check expressed as an error.
func (f Field) Validate(value string) error {
	if res := f.Check(value); !res.Valid {
		return res.Err
	}
	return nil
}

func (f Field) reject(kind *apperrors.AppError, msg string) Result {
	label := f.Label
	if label == "" {
		label = f.Name
	}
	return Result{Err: &Error{
		Kind:    kind,
		FieldID: f.ID,
		Field:   f.Name,
		Message: fmt.Sprintf("%s %s", label, msg),
	}}
}

// ValidateDefinition checks an admin-supplied field definition before it is stored.
func ValidateDefinition(def models.SectionProfileField) error {
	name := strings.TrimSpace(def.FieldName)
	if !fieldNamePattern.MatchString(name) {
		return apperrors.NewBadRequest("field_name must be lowercase letters, digits or underscores")
	}
	if strings.TrimSpace(def.FieldLabel) == "" {
		return apperrors.NewBadRequest("field_label is required")
	}
	if def.MaxLength != nil && *def.MaxLength <= 0 {
		return apperrors.NewBadRequest("max_length must be positive")
	}
	if _, err := kindFor(def.FieldType, def.FieldOptions); err != nil {
		return err
	}

	if def.FieldType == models.FieldTypeSelect || def.FieldType == models.FieldTypeMultiselect {
		if len(def.FieldOptions) == 0 {
			return apperrors.NewBadRequest("select fields need at least one option")
		}
		seen := make(map[string]struct{}, len(def.FieldOptions))
		for _, opt := range def.FieldOptions {
			value := strings.TrimSpace(opt.Value)
			if value == "" || strings.Contains(value, ",") {
				return apperrors.NewBadRequest("option values must be non-empty and must not contain commas")
			}
			if _, dup := seen[value]; dup {
				return apperrors.NewBadRequest(fmt.Sprintf("duplicate option %q", value))
			}
			seen[value] = struct{}{}
		}
	}
	return nil
}
