package models

import (
	"fmt"

	"gorm.io/gorm"
)

// RSVPStatus is a member's attendance intent for an event.
type RSVPStatus string

const (
	RSVPGoing    RSVPStatus = "going"
	RSVPMaybe    RSVPStatus = "maybe"
	RSVPNotGoing RSVPStatus = "not_going"
)

// Valid reports whether the status is a known value.
func (s RSVPStatus) Valid() bool {
	switch s {
	case RSVPGoing, RSVPMaybe, RSVPNotGoing:
		return true
	}
	return false
}

// EventRSVP is the ledger row for one (event, user) pair. Re-RSVPs overwrite Status.
type EventRSVP struct {
	BaseModel

	EventID string     `gorm:"type:uuid;not null;uniqueIndex:idx_event_rsvp_user,priority:1;index:idx_event_rsvp_status,priority:1" json:"event_id"`
	UserID  string     `gorm:"type:uuid;not null;uniqueIndex:idx_event_rsvp_user,priority:2" json:"user_id"`
	Status  RSVPStatus `gorm:"type:varchar(16);not null;index:idx_event_rsvp_status,priority:2" json:"status"`

	Event *Event `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName pins the relation name.
func (EventRSVP) TableName() string {
	return "event_rsvps"
}

// BeforeSave rejects unknown statuses.
func (r *EventRSVP) BeforeSave(tx *gorm.DB) error {
	if !r.Status.Valid() {
		return fmt.Errorf("event_rsvp: invalid status %q", r.Status)
	}
	return nil
}
