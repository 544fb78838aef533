package models

import (
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// FieldType enumerates the input kinds a section admin may define.
type FieldType string

const (
	FieldTypeText        FieldType = "text"
	FieldTypeTextarea    FieldType = "textarea"
	FieldTypeSelect      FieldType = "select"
	FieldTypeMultiselect FieldType = "multiselect"
	FieldTypeCheckbox    FieldType = "checkbox"
	FieldTypeNumber      FieldType = "number"
	FieldTypeDate        FieldType = "date"
	FieldTypeURL         FieldType = "url"
	FieldTypeEmail       FieldType = "email"
	FieldTypePhone       FieldType = "phone"
)

// FieldOption is one selectable choice of a select or multiselect field.
type FieldOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// SectionProfileField is a custom profile question defined for a section.
type SectionProfileField struct {
	BaseModel

	SectionID    string                           `gorm:"type:uuid;not null;index;uniqueIndex:idx_section_field_name,priority:1" json:"section_id"`
	FieldName    string                           `gorm:"type:varchar(64);not null;uniqueIndex:idx_section_field_name,priority:2" json:"field_name"`
	FieldLabel   string                           `gorm:"type:varchar(255);not null" json:"field_label"`
	FieldType    FieldType                        `gorm:"type:varchar(16);not null" json:"field_type"`
	FieldOptions datatypes.JSONSlice[FieldOption] `json:"field_options"`
	Placeholder  string                           `gorm:"type:varchar(255)" json:"placeholder"`
	HelpText     string                           `gorm:"type:text" json:"help_text"`
	IsRequired   bool                             `gorm:"not null" json:"is_required"`
	MaxLength    *int                             `json:"max_length"`
	DisplayOrder int                              `gorm:"not null;index" json:"display_order"`
	IsActive     bool                             `gorm:"not null;index" json:"is_active"`

	Section *Section `gorm:"foreignKey:SectionID;constraint:OnDelete:CASCADE" json:"-"`
}

// BeforeSave rejects unknown field types.
func (f *SectionProfileField) BeforeSave(tx *gorm.DB) error {
	switch f.FieldType {
	case FieldTypeText, FieldTypeTextarea, FieldTypeSelect, FieldTypeMultiselect, FieldTypeCheckbox,
		FieldTypeNumber, FieldTypeDate, FieldTypeURL, FieldTypeEmail, FieldTypePhone:
		return nil
	}
	return fmt.Errorf("section_profile_field: invalid field type %q", f.FieldType)
}
