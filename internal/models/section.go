package models

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Section is a named community group owned by its creator.
type Section struct {
	BaseModel

	CreatorID        string `gorm:"type:uuid;not null;uniqueIndex:idx_section_creator_name,priority:1" json:"creator_id"`
	Name             string `gorm:"type:varchar(128);not null;uniqueIndex:idx_section_creator_name,priority:2" json:"name"`
	Description      string `gorm:"type:text" json:"description"`
	ImageURL         string `gorm:"type:text" json:"image_url"`
	IsPublic         bool   `gorm:"not null" json:"is_public"`
	RequiresApproval bool   `gorm:"not null" json:"requires_approval"`
}

// BeforeSave normalises identifying attributes.
func (s *Section) BeforeSave(tx *gorm.DB) error {
	s.CreatorID = strings.TrimSpace(s.CreatorID)
	if s.CreatorID == "" {
		return errors.New("section: creator_id is required")
	}
	s.Name = strings.TrimSpace(s.Name)
	if s.Name == "" {
		return errors.New("section: name is required")
	}
	return nil
}
