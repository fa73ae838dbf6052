package repository

import (
	"context"
	"errors"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"precisioncalc/src/database"
	"precisioncalc/src/model"
)

// CalculationRepository handles persistence for CalculationRecord entities.
type CalculationRepository struct {
	db *gorm.DB
}

// NewCalculationRepository creates a new repository instance using the main read/write database.
func NewCalculationRepository() *CalculationRepository {
	logger.WithField("component", "CalculationRepository").
		Info("Creating new CalculationRepository with MainDB")

	return &CalculationRepository{db: database.MainDB}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *CalculationRepository) WithDB(db *gorm.DB) *CalculationRepository {
	return &CalculationRepository{db: db}
}

// Create inserts a new calculation record.
func (r *CalculationRepository) Create(ctx context.Context, record *model.CalculationRecord) error {
	logger.WithFields(map[string]interface{}{
		"repo":           "CalculationRepository",
		"op":             "Create",
		"calculation_id": record.CalculationID,
		"operation":      record.Operation,
		"success":        record.Success,
	}).Debug("Persisting calculation record")

	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "CalculationRepository",
			"op":   "Create",
		}).WithError(err).Error("Failed to persist calculation record")
		return err
	}

	return nil
}

// FindByCalculationID fetches a single record by its public calculation id.
func (r *CalculationRepository) FindByCalculationID(ctx context.Context, calculationID string) (*model.CalculationRecord, error) {
	var record model.CalculationRecord
	err := r.db.WithContext(ctx).Where("calculation_id = ?", calculationID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo":           "CalculationRepository",
			"op":             "FindByCalculationID",
			"calculation_id": calculationID,
		}).WithError(err).Error("Failed to fetch calculation record")
		return nil, err
	}

	return &record, nil
}

// FindLatest returns the latest calculation records ordered from newest to oldest.
func (r *CalculationRepository) FindLatest(ctx context.Context, limit int) ([]model.CalculationRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	var records []model.CalculationRecord
	err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":  "CalculationRepository",
			"op":    "FindLatest",
			"limit": limit,
		}).WithError(err).Error("Failed to fetch latest calculation records")
		return nil, err
	}

	return records, nil
}

// CalculationSearchOptions narrows a calculation history query. Zero values
// mean the filter is not applied.
type CalculationSearchOptions struct {
	Operation     string
	Success       *bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	Limit         int
	Offset        int
}

// Search returns calculation records matching the given filters, newest first.
func (r *CalculationRepository) Search(ctx context.Context, opts CalculationSearchOptions) ([]model.CalculationRecord, error) {
	query := r.db.WithContext(ctx).Model(&model.CalculationRecord{})

	if opts.Operation != "" {
		query = query.Where("operation = ?", opts.Operation)
	}
	if opts.Success != nil {
		query = query.Where("success = ?", *opts.Success)
	}
	if opts.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *opts.CreatedAfter)
	}
	if opts.CreatedBefore != nil {
		query = query.Where("created_at <= ?", *opts.CreatedBefore)
	}

	query = query.Order("created_at DESC, id DESC")

	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		query = query.Offset(opts.Offset)
	}

	var records []model.CalculationRecord
	if err := query.Find(&records).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "CalculationRepository",
			"op":   "Search",
		}).WithError(err).Error("Failed to search calculation records")
		return nil, err
	}

	return records, nil
}
