package models

// EventGroupSubscription is a follow relationship on a creator's event group.
type EventGroupSubscription struct {
	BaseModel

	SubscriberID string `gorm:"type:uuid;not null;uniqueIndex:idx_group_subscription,priority:1;index" json:"subscriber_id"`
	CreatorID    string `gorm:"type:uuid;not null;uniqueIndex:idx_group_subscription,priority:2;index:idx_group_subscription_target,priority:1" json:"creator_id"`
	GroupName    string `gorm:"type:varchar(128);not null;uniqueIndex:idx_group_subscription,priority:3;index:idx_group_subscription_target,priority:2" json:"group_name"`
}
