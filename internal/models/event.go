package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GuestListVisibility controls who may see an event's RSVP list.
type GuestListVisibility string

const (
	GuestListPublic   GuestListVisibility = "public"
	GuestListRSVPOnly GuestListVisibility = "rsvp_only"
	GuestListHidden   GuestListVisibility = "hidden"
)

// Valid reports whether the visibility is a known value.
func (v GuestListVisibility) Valid() bool {
	switch v {
	case GuestListPublic, GuestListRSVPOnly, GuestListHidden:
		return true
	}
	return false
}

// Event is a scheduled happening created by a member, optionally tagged with a creator-owned group.
type Event struct {
	BaseModel

	CreatorID           string                      `gorm:"type:uuid;not null;index:idx_event_creator_group,priority:1" json:"creator_id"`
	Title               string                      `gorm:"type:varchar(255);not null" json:"title"`
	Description         string                      `gorm:"type:text" json:"description"`
	StartsAt            time.Time                   `gorm:"not null;index" json:"starts_at"`
	EndsAt              *time.Time                  `json:"ends_at"`
	Location            string                      `gorm:"type:varchar(255)" json:"location"`
	ImageURL            string                      `gorm:"type:text" json:"image_url"`
	Tags                datatypes.JSONSlice[string] `json:"tags"`
	Published           bool                        `gorm:"not null;index" json:"published"`
	IsPrivate           bool                        `gorm:"not null" json:"is_private"`
	GroupName           *string                     `gorm:"type:varchar(128);index:idx_event_creator_group,priority:2" json:"group_name"`
	MaxCapacity         *int                        `json:"max_capacity"`
	GuestListVisibility GuestListVisibility         `gorm:"type:varchar(16);not null" json:"guest_list_visibility"`
}

// BeforeSave enforces structural invariants that do not depend on other rows.
func (e *Event) BeforeSave(tx *gorm.DB) error {
	e.CreatorID = strings.TrimSpace(e.CreatorID)
	if e.CreatorID == "" {
		return errors.New("event: creator_id is required")
	}
	if e.GuestListVisibility == "" {
		e.GuestListVisibility = GuestListPublic
	}
	if !e.GuestListVisibility.Valid() {
		return fmt.Errorf("event: invalid guest list visibility %q", e.GuestListVisibility)
	}
	if e.GroupName != nil {
		name := strings.TrimSpace(*e.GroupName)
		if name == "" {
			e.GroupName = nil
		} else {
			e.GroupName = &name
		}
	}
	return nil
}

// HasCapacity reports whether the event limits the number of going RSVPs.
func (e *Event) HasCapacity() bool {
	return e != nil && e.MaxCapacity != nil
}
