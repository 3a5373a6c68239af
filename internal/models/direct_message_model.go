package models

import "time"

// DirectMessage 私聊消息
// The thread is the unordered (sender, receiver) pair; SeqID is
// strictly increasing within that pair.
type DirectMessage struct {
	ID         int64  `gorm:"primaryKey" json:"id"`
	SenderID   uint   `gorm:"not null;index" json:"sender_id"`
	ReceiverID uint   `gorm:"not null;index" json:"receiver_id"`
	SeqID      int64  `gorm:"not null;index" json:"seq_id"`
	Content    string `gorm:"not null" json:"content"`
	IsRemoved  bool   `gorm:"default:false" json:"is_removed"`

	CreatedAt time.Time `json:"created_at"`

	Sender *User `gorm:"foreignKey:SenderID" json:"-"`
}

func (DirectMessage) TableName() string {
	return "direct_messages"
}
