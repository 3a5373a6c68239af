package models

import "time"

// Room 用户创建的房间
type Room struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`
	OwnerID     uint   `gorm:"not null" json:"owner_id"`
	IsPublic    bool   `gorm:"default:true" json:"is_public"`

	Owner   *User        `gorm:"foreignKey:OwnerID" json:"-"`
	Members []RoomMember `gorm:"foreignKey:RoomID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Room) TableName() string {
	return "rooms"
}
