package models

import "time"

// Reaction 消息表情回应
// One row per (message, user, emoji); toggling flips IsActive in a
// single upsert so concurrent toggles by different users never lose
// updates.
type Reaction struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	MessageID int64     `gorm:"not null;uniqueIndex:idx_msg_user_emoji" json:"message_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_msg_user_emoji" json:"user_id"`
	Emoji     string    `gorm:"size:16;not null;uniqueIndex:idx_msg_user_emoji" json:"emoji"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func (Reaction) TableName() string {
	return "message_reactions"
}
