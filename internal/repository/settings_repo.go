package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/timmy/applytrack/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettingsRepository is the key-value store behind the status catalog and
// UI preferences. Values are stored as JSON text.
type SettingsRepository struct {
	db *gorm.DB
}

// NewSettingsRepository creates a new SettingsRepository.
func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get decodes the value stored under key into dest.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - key: settings key.
//   - dest: pointer receiving the decoded JSON value.
//
// Returns:
//   - bool: false when the key has never been set.
//   - error: StorageError if the read or decode fails.
func (r *SettingsRepository) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	var rows []domain.Setting
	if err := r.db.WithContext(ctx).Where(map[string]interface{}{"key": key}).Limit(1).Find(&rows).Error; err != nil {
		return false, domain.WrapStorage("get setting", err)
	}
	if len(rows) == 0 {
		return false, nil
	}
	if err := json.Unmarshal([]byte(rows[0].Value), dest); err != nil {
		return false, domain.WrapStorage("decode setting", fmt.Errorf("%s: %w", key, err))
	}
	return true, nil
}

// Set stores value under key, replacing any previous value.
func (r *SettingsRepository) Set(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode setting %s: %w", key, err)
	}
	setting := domain.Setting{
		Key:       key,
		Value:     string(raw),
		UpdatedAt: time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&setting).Error; err != nil {
		return domain.WrapStorage("set setting", err)
	}
	return nil
}
