package models

import "gorm.io/gorm"

// Entry is one clock-in record for a user on a calendar day. CheckOut stays
// null while the entry is open; Timezone is set at check-in and kept on
// check-out (first non-null value wins). Several fully closed entries may
// exist for the same day (multiple shifts); at most one may be open.
type Entry struct {
	gorm.Model
	UserID   uint    `gorm:"not null;index:idx_entries_user_date,priority:1"`
	User     User    `gorm:"constraint:OnDelete:CASCADE;"`
	Date     string  `gorm:"not null;index:idx_entries_user_date,priority:2;size:10"` // YYYY-MM-DD
	CheckIn  string  `gorm:"not null;size:5"`                                         // HH:MM
	CheckOut *string `gorm:"size:5"`
	Comment  *string `gorm:"type:text"`
	Timezone *string `gorm:"size:64"` // IANA identifier, e.g. "Europe/Berlin"
}

// Open reports whether the entry has a check-in but no check-out yet.
func (e *Entry) Open() bool {
	return e.CheckOut == nil
}
