package validator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type sectionPayload struct {
	Name     string `json:"name" validate:"required,notblank,max=16"`
	Contact  string `json:"contact_email" validate:"omitempty,email"`
	Capacity int    `json:"max_capacity" validate:"gte=0"`
	Internal string `json:"-" validate:"omitempty,max=2"`
}

type fieldPayload struct {
	FieldName string `json:"field_name" validate:"required,field_name,max=64"`
}

func TestValidateStructSuccess(t *testing.T) {
	require.NoError(t, ValidateStruct(sectionPayload{Name: "Climbers", Contact: "crew@example.com", Capacity: 3}))
}

func TestValidateStructFailuresUseJSONNames(t *testing.T) {
	err := ValidateStruct(sectionPayload{Name: "   ", Contact: "nope", Capacity: -1, Internal: "toolong"})

	var failures ValidationErrors
	require.ErrorAs(t, err, &failures)
	require.Equal(t, ValidationErrors{
		{Field: "name", Tag: "notblank"},
		{Field: "contact_email", Tag: "email"},
		{Field: "max_capacity", Tag: "gte", Param: "0"},
		{Field: "Internal", Tag: "max", Param: "2"},
	}, failures)
	require.Equal(t,
		"name failed on notblank; contact_email failed on email; max_capacity failed on gte=0; Internal failed on max=2",
		failures.Error())
}

func TestFieldNameRule(t *testing.T) {
	for _, name := range []string{"age", "shoe_size", "t2"} {
		require.NoError(t, ValidateStruct(fieldPayload{FieldName: name}), name)
	}
	for _, name := range []string{"Age", "2fast", "shoe-size", "_private", "with space"} {
		require.Error(t, ValidateStruct(fieldPayload{FieldName: name}), name)
	}
}

func TestValidateVar(t *testing.T) {
	require.True(t, IsValid("member@example.com", "email"))
	require.False(t, IsValid("not-an-email", "email"))
	require.True(t, IsValid("https://example.com/clubs", "url"))
	require.False(t, IsValid("example.com/clubs", "url"))
	require.Error(t, ValidateVar(" ", "notblank"))
}

func TestEmptyValidationErrorsMessage(t *testing.T) {
	require.Equal(t, "validation failed", ValidationErrors(nil).Error())
}
