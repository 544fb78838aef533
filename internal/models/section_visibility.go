package models

// SectionVisibility controls whether a membership appears on the member's public profile.
// A missing row means the membership is shown.
type SectionVisibility struct {
	BaseModel

	UserID         string `gorm:"type:uuid;not null;uniqueIndex:idx_section_visibility,priority:1" json:"user_id"`
	SectionID      string `gorm:"type:uuid;not null;uniqueIndex:idx_section_visibility,priority:2" json:"section_id"`
	ShowMembership bool   `gorm:"not null" json:"show_membership"`
}

// TableName pins the relation name.
func (SectionVisibility) TableName() string {
	return "section_visibility"
}
