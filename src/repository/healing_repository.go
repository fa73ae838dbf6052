package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"precisioncalc/src/database"
	"precisioncalc/src/model"
)

// HealingRepository handles persistence for HealingRecord entities.
type HealingRepository struct {
	db *gorm.DB
}

// NewHealingRepository creates a new repository instance using the main read/write database.
func NewHealingRepository() *HealingRepository {
	return &HealingRepository{db: database.MainDB}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *HealingRepository) WithDB(db *gorm.DB) *HealingRepository {
	return &HealingRepository{db: db}
}

// Create inserts a new healing record.
func (r *HealingRepository) Create(ctx context.Context, record *model.HealingRecord) error {
	logger.WithFields(map[string]interface{}{
		"repo":       "HealingRepository",
		"op":         "Create",
		"healing_id": record.HealingID,
		"success":    record.Success,
		"auto_fixed": record.AutoFixed,
	}).Debug("Persisting healing record")

	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "HealingRepository",
			"op":   "Create",
		}).WithError(err).Error("Failed to persist healing record")
		return err
	}

	return nil
}

// FindByHealingID fetches a single record by its public healing id.
func (r *HealingRepository) FindByHealingID(ctx context.Context, healingID string) (*model.HealingRecord, error) {
	var record model.HealingRecord
	err := r.db.WithContext(ctx).Where("healing_id = ?", healingID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo":       "HealingRepository",
			"op":         "FindByHealingID",
			"healing_id": healingID,
		}).WithError(err).Error("Failed to fetch healing record")
		return nil, err
	}

	return &record, nil
}

// FindLatest returns the latest healing records ordered from newest to oldest.
func (r *HealingRepository) FindLatest(ctx context.Context, limit int) ([]model.HealingRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	var records []model.HealingRecord
	err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":  "HealingRepository",
			"op":    "FindLatest",
			"limit": limit,
		}).WithError(err).Error("Failed to fetch latest healing records")
		return nil, err
	}

	return records, nil
}
