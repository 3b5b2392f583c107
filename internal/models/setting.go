package models

import "gorm.io/gorm"

// Recognized setting keys and their defaults.
const (
	SettingReminderTime     = "reminder_time"     // HH:MM
	SettingRemindersEnabled = "reminders_enabled" // "true" / "false"

	DefaultReminderTime     = "20:00"
	DefaultRemindersEnabled = "true"
)

// Setting is a per-user key/value pair. Unrecognized keys are stored verbatim;
// only the constants above carry defaults.
type Setting struct {
	gorm.Model
	UserID uint   `gorm:"not null;uniqueIndex:idx_settings_user_key,priority:1"`
	User   User   `gorm:"constraint:OnDelete:CASCADE;"`
	Key    string `gorm:"not null;uniqueIndex:idx_settings_user_key,priority:2;size:64"`
	Value  string `gorm:"not null;type:text"`
}
