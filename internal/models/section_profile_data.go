package models

// SectionProfileData stores one member's answer to a section profile field.
// Multiselect answers are stored comma-joined.
type SectionProfileData struct {
	BaseModel

	UserID    string `gorm:"type:uuid;not null;uniqueIndex:idx_section_profile_answer,priority:1" json:"user_id"`
	SectionID string `gorm:"type:uuid;not null;uniqueIndex:idx_section_profile_answer,priority:2;index" json:"section_id"`
	FieldID   string `gorm:"type:uuid;not null;uniqueIndex:idx_section_profile_answer,priority:3" json:"field_id"`
	Value     string `gorm:"type:text" json:"value"`
}

// TableName pins the relation name.
func (SectionProfileData) TableName() string {
	return "section_profile_data"
}
