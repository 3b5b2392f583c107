package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/punchclock/punchclock/internal/models"
)

// Gorm is the database-backed store. On Postgres, WithUserLock takes an
// advisory transaction lock keyed by user id; other dialects (SQLite in
// tests) fall back to the transaction alone.
type Gorm struct {
	db *gorm.DB
}

// NewGorm wraps a GORM connection in the store interfaces.
func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

var _ EntryStore = (*Gorm)(nil)
var _ SettingsStore = (*Gorm)(nil)
var _ SubscriptionStore = (*Gorm)(nil)
var _ UserStore = (*Gorm)(nil)

func (s *Gorm) LatestForDay(ctx context.Context, userID uint, date string) (*models.Entry, error) {
	var entry models.Entry
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, date).
		Order("created_at DESC, id DESC").
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest entry: %w", err)
	}
	return &entry, nil
}

func (s *Gorm) LatestComment(ctx context.Context, userID uint) (string, error) {
	var entry models.Entry
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND comment IS NOT NULL AND comment <> ''", userID).
		Order("created_at DESC, id DESC").
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load latest comment: %w", err)
	}
	if entry.Comment == nil {
		return "", nil
	}
	return *entry.Comment, nil
}

func (s *Gorm) CreateEntry(ctx context.Context, entry *models.Entry) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create entry: %w", err)
	}
	return nil
}

func (s *Gorm) UpdateEntry(ctx context.Context, entry *models.Entry) error {
	if err := s.db.WithContext(ctx).Save(entry).Error; err != nil {
		return fmt.Errorf("failed to update entry: %w", err)
	}
	return nil
}

func (s *Gorm) GetEntry(ctx context.Context, userID, entryID uint) (*models.Entry, error) {
	var entry models.Entry
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&entry, entryID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load entry: %w", err)
	}
	return &entry, nil
}

func (s *Gorm) DeleteEntry(ctx context.Context, userID, entryID uint) error {
	result := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.Entry{}, entryID)
	if result.Error != nil {
		return fmt.Errorf("failed to delete entry: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Gorm) EntriesInRange(ctx context.Context, userID uint, from, to string) ([]models.Entry, error) {
	var entries []models.Entry
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date <= ?", userID, from, to).
		Order("date ASC, created_at ASC, id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	return entries, nil
}

func (s *Gorm) DateBounds(ctx context.Context, userID uint) (string, string, error) {
	var bounds struct {
		Min *string
		Max *string
	}
	err := s.db.WithContext(ctx).
		Model(&models.Entry{}).
		Select("MIN(date) AS min, MAX(date) AS max").
		Where("user_id = ?", userID).
		Scan(&bounds).Error
	if err != nil {
		return "", "", fmt.Errorf("failed to query date bounds: %w", err)
	}
	if bounds.Min == nil || bounds.Max == nil {
		return "", "", ErrNotFound
	}
	return *bounds.Min, *bounds.Max, nil
}

func (s *Gorm) UsersWithEntries(ctx context.Context, from, to string) ([]uint, error) {
	var ids []uint
	err := s.db.WithContext(ctx).
		Model(&models.Entry{}).
		Distinct("user_id").
		Where("date >= ? AND date <= ?", from, to).
		Order("user_id").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query users with entries: %w", err)
	}
	return ids, nil
}

func (s *Gorm) WithUserLock(ctx context.Context, userID uint, fn func(EntryStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			// Two lock keys: class 0x70636c6b ("pclk") and the user id.
			if err := tx.Exec("SELECT pg_advisory_xact_lock(?, ?)", int32(0x70636c6b), int32(userID)).Error; err != nil {
				return fmt.Errorf("failed to take user lock: %w", err)
			}
		}
		return fn(&Gorm{db: tx})
	})
}

func (s *Gorm) Settings(ctx context.Context, userID uint) (map[string]string, error) {
	var rows []models.Setting
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	settings := make(map[string]string, len(rows))
	for _, row := range rows {
		settings[row.Key] = row.Value
	}
	return settings, nil
}

func (s *Gorm) SetSetting(ctx context.Context, userID uint, key, value string) error {
	setting := models.Setting{UserID: userID, Key: key, Value: value}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&setting).Error
	if err != nil {
		return fmt.Errorf("failed to save setting: %w", err)
	}
	return nil
}

func (s *Gorm) Subscriptions(ctx context.Context, userID uint) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}
	return subs, nil
}

func (s *Gorm) SaveSubscription(ctx context.Context, sub *models.Subscription) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"user_id", "p256dh", "auth", "updated_at"}),
		}).
		Create(sub).Error
	if err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}
	return nil
}

func (s *Gorm) DeleteSubscription(ctx context.Context, endpoint string) error {
	err := s.db.WithContext(ctx).
		Where("endpoint = ?", endpoint).
		Delete(&models.Subscription{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	return nil
}

func (s *Gorm) UserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

func (s *Gorm) UserIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Order("id").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list user ids: %w", err)
	}
	return ids, nil
}
