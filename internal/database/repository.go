package database

import (
	"time"

	"github.com/focuspulse/focuspulse/internal/models"

	"github.com/pkg/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository handles all database operations
type Repository struct {
	db *DB
}

// NewRepository creates a new repository instance
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// GetLabel returns the cached labeler answer for key, or nil when absent.
func (r *Repository) GetLabel(key string) (*models.LabelCacheEntry, error) {
	var entry models.LabelCacheEntry
	result := r.db.Where(&models.LabelCacheEntry{Key: key}).First(&entry)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(result.Error, "failed to get cached label")
	}
	return &entry, nil
}

// PutLabel inserts or replaces a cached labeler answer.
func (r *Repository) PutLabel(entry *models.LabelCacheEntry) error {
	result := r.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(entry)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to store cached label")
	}
	return nil
}

// CountLabels returns the number of cached labeler answers.
func (r *Repository) CountLabels() (int64, error) {
	var n int64
	if err := r.db.Model(&models.LabelCacheEntry{}).Count(&n).Error; err != nil {
		return 0, errors.Wrap(err, "failed to count cached labels")
	}
	return n, nil
}

// ClearLabels removes every cached labeler answer.
func (r *Repository) ClearLabels() (int64, error) {
	result := r.db.Exec("DELETE FROM label_cache_entries")
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to clear label cache")
	}
	return result.RowsAffected, nil
}

// CreateErrorLog inserts a new error log into the database
func (r *Repository) CreateErrorLog(errorLog *models.ErrorLog) error {
	if errorLog.Timestamp.IsZero() {
		errorLog.Timestamp = time.Now()
	}
	result := r.db.Create(errorLog)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to insert error log")
	}
	return nil
}

// ListErrors returns the most recent error logs, newest first.
func (r *Repository) ListErrors(limit int) ([]models.ErrorLog, error) {
	var logs []models.ErrorLog
	q := r.db.Order("timestamp DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&logs).Error; err != nil {
		return nil, errors.Wrap(err, "failed to query error logs")
	}
	return logs, nil
}

// DeleteOldErrors deletes error logs older than before (soft delete)
func (r *Repository) DeleteOldErrors(before time.Time) (int64, error) {
	result := r.db.Where("timestamp < ?", before).Delete(&models.ErrorLog{})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to delete old error logs")
	}
	return result.RowsAffected, nil
}

// ClearErrors removes all error logs from the database
func (r *Repository) ClearErrors() error {
	result := r.db.Exec("DELETE FROM error_logs")
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to clear error logs")
	}
	return nil
}
