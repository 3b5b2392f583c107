package database

import (
	"log"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/punchclock/punchclock/internal/models"
)

// SeedDevData populates the database with development test data.
// Idempotent: skips if data already exists.
func SeedDevData(db *gorm.DB) error {
	var existingUser models.User
	result := db.Where("username = ?", "dev").First(&existingUser)
	if result.Error == nil {
		log.Println("Seed data already exists, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("devpassword"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	hashStr := string(hash)
	email := "dev@punchclock.local"
	user := models.User{
		Username:     "dev",
		Email:        &email,
		PasswordHash: &hashStr,
		Role:         "admin",
	}
	if err := db.Create(&user).Error; err != nil {
		return err
	}

	tz := "Europe/Berlin"
	out1 := "17:30"
	comment1 := "project alpha"
	out2 := "12:00"
	entries := []models.Entry{
		{UserID: user.ID, Date: "2026-03-09", CheckIn: "09:00", CheckOut: &out1, Comment: &comment1, Timezone: &tz},
		{UserID: user.ID, Date: "2026-03-10", CheckIn: "08:30", CheckOut: &out2, Timezone: &tz},
		{UserID: user.ID, Date: "2026-03-10", CheckIn: "13:00", Timezone: &tz}, // still open
	}
	for i := range entries {
		if err := db.Create(&entries[i]).Error; err != nil {
			return err
		}
	}

	settings := []models.Setting{
		{UserID: user.ID, Key: models.SettingReminderTime, Value: "18:00"},
		{UserID: user.ID, Key: models.SettingRemindersEnabled, Value: "true"},
	}
	for i := range settings {
		if err := db.Create(&settings[i]).Error; err != nil {
			return err
		}
	}

	log.Println("Seeded development user 'dev' (password: devpassword)")
	return nil
}
