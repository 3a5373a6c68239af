package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/frikords/server/internal/models"
)

// MessageRepository owns channel/room messages and their reactions.
type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(message *models.Message) error {
	return r.db.Create(message).Error
}

func (r *MessageRepository) GetByID(id int64) (*models.Message, error) {
	var message models.Message
	if err := r.db.Preload("Author").First(&message, id).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

// localityScope narrows a query to one locality. Channel messages have
// room_id NULL; room messages ignore the channel column.
func localityScope(q *gorm.DB, channel string, roomID uint) *gorm.DB {
	if roomID != 0 {
		return q.Where("room_id = ?", roomID)
	}
	return q.Where("channel = ? AND room_id IS NULL", channel)
}

// ListByLocality returns messages in seq order, ascending, optionally
// only those after sinceSeq (the polling delta query).
func (r *MessageRepository) ListByLocality(channel string, roomID uint, sinceSeq int64, limit int) ([]models.Message, error) {
	var messages []models.Message
	q := localityScope(r.db, channel, roomID)
	if sinceSeq > 0 {
		q = q.Where("seq_id > ?", sinceSeq)
	}
	err := q.Preload("Author").
		Order("seq_id ASC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

// ListByLocalityDesc returns the newest messages first, for the admin
// view.
func (r *MessageRepository) ListByLocalityDesc(channel string, roomID uint, limit int) ([]models.Message, error) {
	var messages []models.Message
	err := localityScope(r.db, channel, roomID).
		Preload("Author").
		Order("seq_id DESC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

func (r *MessageRepository) UpdateContent(id int64, content string) error {
	return r.db.Model(&models.Message{}).
		Where("id = ?", id).
		Updates(map[string]any{"content": content, "edited": true}).Error
}

// SoftDelete marks the message removed. The row and its seq stay so
// ordering and reaction history keep their integrity; repeating the
// call is a no-op.
func (r *MessageRepository) SoftDelete(id int64) error {
	return r.db.Model(&models.Message{}).
		Where("id = ?", id).
		Update("is_removed", true).Error
}

// BulkSoftDelete removes every live message in a locality, returning
// how many rows changed.
func (r *MessageRepository) BulkSoftDelete(channel string, roomID uint) (int64, error) {
	q := localityScope(r.db.Model(&models.Message{}), channel, roomID).
		Where("is_removed = ?", false).
		Update("is_removed", true)
	return q.RowsAffected, q.Error
}

// ToggleReaction flips the (message, user, emoji) reaction in a single
// upsert. The NOT runs inside the database, so concurrent toggles by
// different users never overwrite each other.
func (r *MessageRepository) ToggleReaction(messageID int64, userID uint, emoji string) (bool, error) {
	row := models.Reaction{
		MessageID: messageID,
		UserID:    userID,
		Emoji:     emoji,
		IsActive:  true,
	}
	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "message_id"}, {Name: "user_id"}, {Name: "emoji"}},
		DoUpdates: clause.Assignments(map[string]any{
			"is_active": gorm.Expr("NOT message_reactions.is_active"),
		}),
	}).Create(&row).Error
	if err != nil {
		return false, err
	}

	var after models.Reaction
	err = r.db.Where("message_id = ? AND user_id = ? AND emoji = ?", messageID, userID, emoji).
		First(&after).Error
	if err != nil {
		return false, err
	}
	return after.IsActive, nil
}

// ReactionAggregate is the per-emoji summary returned to clients.
type ReactionAggregate struct {
	Emoji string `json:"emoji"`
	Count int    `json:"count"`
	Users []uint `json:"users"`
}

// GetReactions aggregates active reactions for a set of messages.
// Folding happens in Go to stay portable across postgres and sqlite.
func (r *MessageRepository) GetReactions(messageIDs []int64) (map[int64][]ReactionAggregate, error) {
	result := make(map[int64][]ReactionAggregate)
	if len(messageIDs) == 0 {
		return result, nil
	}

	var rows []models.Reaction
	err := r.db.Where("message_id IN ? AND is_active = ?", messageIDs, true).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		aggs := result[row.MessageID]
		found := false
		for i := range aggs {
			if aggs[i].Emoji == row.Emoji {
				aggs[i].Count++
				aggs[i].Users = append(aggs[i].Users, row.UserID)
				found = true
				break
			}
		}
		if !found {
			aggs = append(aggs, ReactionAggregate{
				Emoji: row.Emoji,
				Count: 1,
				Users: []uint{row.UserID},
			})
		}
		result[row.MessageID] = aggs
	}
	return result, nil
}

func (r *MessageRepository) Count() (int64, error) {
	var n int64
	err := r.db.Model(&models.Message{}).Count(&n).Error
	return n, err
}

func (r *MessageRepository) CountCreatedSince(since time.Time) (int64, error) {
	var n int64
	err := r.db.Model(&models.Message{}).Where("created_at > ?", since).Count(&n).Error
	return n, err
}

// CountByAuthor counts a user's live messages, for profile pages.
func (r *MessageRepository) CountByAuthor(userID uint) (int64, error) {
	var n int64
	err := r.db.Model(&models.Message{}).
		Where("author_id = ? AND is_removed = ?", userID, false).
		Count(&n).Error
	return n, err
}

// IsNotFound reports whether err is the gorm missing-record error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
