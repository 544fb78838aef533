package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// MemberStatus enumerates the approval states of a section membership.
type MemberStatus string

const (
	MemberStatusPending  MemberStatus = "pending"
	MemberStatusApproved MemberStatus = "approved"
	MemberStatusRejected MemberStatus = "rejected"
)

// Valid reports whether the status is one of the known states.
func (s MemberStatus) Valid() bool {
	switch s {
	case MemberStatusPending, MemberStatusApproved, MemberStatusRejected:
		return true
	}
	return false
}

// SectionMember records a user's membership in a section. At most one row exists per (section, user).
type SectionMember struct {
	BaseModel

	SectionID  string       `gorm:"type:uuid;not null;uniqueIndex:idx_section_member_user,priority:1" json:"section_id"`
	UserID     string       `gorm:"type:uuid;not null;uniqueIndex:idx_section_member_user,priority:2;index" json:"user_id"`
	IsAdmin    bool         `gorm:"not null" json:"is_admin"`
	Status     MemberStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	JoinedAt   time.Time    `gorm:"not null" json:"joined_at"`
	ApprovedAt *time.Time   `json:"approved_at"`

	Section *Section `gorm:"foreignKey:SectionID;constraint:OnDelete:CASCADE" json:"section,omitempty"`
}

// BeforeSave rejects unknown membership states.
func (m *SectionMember) BeforeSave(tx *gorm.DB) error {
	if !m.Status.Valid() {
		return fmt.Errorf("section_member: invalid status %q", m.Status)
	}
	return nil
}
