package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents an application user. A user has either a password credential,
// a linked Google identity, or both.
type User struct {
	gorm.Model
	Username     string  `gorm:"uniqueIndex:idx_users_username_not_deleted,where:deleted_at IS NULL;not null"`
	Email        *string `gorm:"index"`
	PasswordHash *string `gorm:"type:text"`
	GoogleID     *string `gorm:"uniqueIndex:idx_users_google_id_not_deleted,where:deleted_at IS NULL"`
	AvatarURL    string  `gorm:"not null;default:''"`
	Role         string  `gorm:"not null;default:'user'"` // enum: 'user' or 'admin'
	LastLoginAt  *time.Time

	// Associations
	Entries       []Entry        `gorm:"constraint:OnDelete:CASCADE;"`
	Settings      []Setting      `gorm:"constraint:OnDelete:CASCADE;"`
	Subscriptions []Subscription `gorm:"constraint:OnDelete:CASCADE;"`
}

// IsAdmin reports whether the user may call admin-only endpoints.
func (u *User) IsAdmin() bool {
	return u.Role == "admin"
}
