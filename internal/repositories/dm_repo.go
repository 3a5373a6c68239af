package repositories

import (
	"gorm.io/gorm"

	"github.com/frikords/server/internal/models"
)

// DMRepository owns direct message threads.
type DMRepository struct {
	db *gorm.DB
}

func NewDMRepository(db *gorm.DB) *DMRepository {
	return &DMRepository{db: db}
}

func (r *DMRepository) Create(dm *models.DirectMessage) error {
	return r.db.Create(dm).Error
}

func (r *DMRepository) GetByID(id int64) (*models.DirectMessage, error) {
	var dm models.DirectMessage
	if err := r.db.First(&dm, id).Error; err != nil {
		return nil, err
	}
	return &dm, nil
}

// ListBetween returns the thread between two users in seq order, with
// an optional delta cursor.
func (r *DMRepository) ListBetween(a, b uint, sinceSeq int64, limit int) ([]models.DirectMessage, error) {
	var dms []models.DirectMessage
	q := r.db.Where(
		"(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
		a, b, b, a,
	)
	if sinceSeq > 0 {
		q = q.Where("seq_id > ?", sinceSeq)
	}
	err := q.Preload("Sender").
		Order("seq_id ASC").
		Limit(limit).
		Find(&dms).Error
	return dms, err
}

func (r *DMRepository) SoftDelete(id int64) error {
	return r.db.Model(&models.DirectMessage{}).
		Where("id = ?", id).
		Update("is_removed", true).Error
}
