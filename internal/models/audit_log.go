package models

// AuditLog records a single state transition performed against the community core.
type AuditLog struct {
	BaseModel

	ActorID  *string `gorm:"type:uuid;index" json:"actor_id"`
	Action   string  `gorm:"not null;index" json:"action"`
	Resource string  `gorm:"index" json:"resource"`
	Result   string  `gorm:"not null" json:"result"`
	Metadata string  `gorm:"type:json" json:"metadata"`

	IPAddress string `gorm:"type:varchar(64)" json:"ip_address,omitempty"`
	UserAgent string `gorm:"type:varchar(512)" json:"user_agent,omitempty"`
}
