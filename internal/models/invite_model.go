package models

import "time"

// Invite 房间邀请码
// One active code per room: regenerating replaces the row, the old
// code stops working immediately. Codes are reusable until replaced.
type Invite struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RoomID    uint      `gorm:"not null;uniqueIndex" json:"room_id"`
	Code      string    `gorm:"uniqueIndex;size:16;not null" json:"code"`
	CreatorID uint      `gorm:"not null" json:"creator_id"`
	Uses      int       `gorm:"default:0" json:"uses"`
	CreatedAt time.Time `json:"created_at"`
}

func (Invite) TableName() string {
	return "invites"
}
