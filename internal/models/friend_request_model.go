package models

import "time"

// Friend request states.
const (
	FriendPending  = "pending"
	FriendAccepted = "accepted"
	FriendDeclined = "declined"
)

// FriendRequest 好友请求
// An accepted row doubles as the symmetric friend edge: friendship
// between A and B exists when an accepted row exists in either
// direction.
type FriendRequest struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FromUserID uint      `gorm:"not null;index" json:"from_user_id"`
	ToUserID   uint      `gorm:"not null;index" json:"to_user_id"`
	Status     string    `gorm:"size:16;default:pending;index" json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	FromUser *User `gorm:"foreignKey:FromUserID" json:"-"`
	ToUser   *User `gorm:"foreignKey:ToUserID" json:"-"`
}

func (FriendRequest) TableName() string {
	return "friend_requests"
}
