package repositories

import (
	"time"

	"gorm.io/gorm"

	"github.com/frikords/server/internal/models"
)

// LogRepository owns the append-only audit log.
type LogRepository struct {
	db *gorm.DB
}

func NewLogRepository(db *gorm.DB) *LogRepository {
	return &LogRepository{db: db}
}

func (r *LogRepository) Create(entry *models.ErrorLog) error {
	return r.db.Create(entry).Error
}

// List returns entries newest first, optionally filtered by level.
func (r *LogRepository) List(level string, limit int) ([]models.ErrorLog, error) {
	var entries []models.ErrorLog
	q := r.db.Model(&models.ErrorLog{})
	if level != "" {
		q = q.Where("level = ?", level)
	}
	err := q.Order("created_at DESC").Limit(limit).Find(&entries).Error
	return entries, err
}

func (r *LogRepository) CountErrorsSince(since time.Time) (int64, error) {
	var n int64
	err := r.db.Model(&models.ErrorLog{}).
		Where("level = ? AND created_at > ?", models.LogLevelError, since).
		Count(&n).Error
	return n, err
}
