package models

import "time"

// Profile mirrors the public attributes the external profile store exposes for a user.
type Profile struct {
	UserID    string    `gorm:"primaryKey;type:uuid" json:"user_id"`
	FullName  string    `gorm:"type:varchar(255)" json:"full_name"`
	AvatarURL string    `gorm:"type:text" json:"avatar_url"`
	IsPrivate bool      `gorm:"not null" json:"is_private"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
