package models

import "time"

// Message 频道/房间消息
// Exactly one of Channel or RoomID is set (the locality). SeqID is
// assigned from a per-locality Redis counter and is strictly
// increasing within that locality; readers paginate by it. Removed
// messages keep their row so ordering and reaction history survive.
type Message struct {
	ID       int64  `gorm:"primaryKey" json:"id"`
	AuthorID uint   `gorm:"not null;index" json:"author_id"`
	Channel  string `gorm:"size:32;index" json:"channel,omitempty"`
	RoomID   *uint  `gorm:"index" json:"room_id,omitempty"`
	SeqID    int64  `gorm:"not null;index" json:"seq_id"`

	Content   string `gorm:"not null" json:"content"`
	ReplyTo   string `json:"reply_to,omitempty"`
	ImageURL  string `json:"image_url,omitempty"`
	Edited    bool   `gorm:"default:false" json:"edited"`
	IsRemoved bool   `gorm:"default:false" json:"is_removed"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Author *User `gorm:"foreignKey:AuthorID" json:"-"`
}

func (Message) TableName() string {
	return "messages"
}
