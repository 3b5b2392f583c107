package models

import "gorm.io/gorm"

// Subscription is a Web Push endpoint registered by one of the user's
// browsers. The endpoint is unique across users; a subscription is removed
// when the push service reports it gone (HTTP 410).
type Subscription struct {
	gorm.Model
	UserID   uint   `gorm:"not null;index"`
	User     User   `gorm:"constraint:OnDelete:CASCADE;"`
	Endpoint string `gorm:"not null;uniqueIndex:idx_subscriptions_endpoint_not_deleted,where:deleted_at IS NULL;type:text"`
	P256dh   string `gorm:"not null;type:text"`
	Auth     string `gorm:"not null;type:text"`
}
