package models

import "time"

// User is the account record. Accounts are never hard-deleted; bans and
// badges are flipped in place by the admin surface.
type User struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Username     string `gorm:"column:username;uniqueIndex;not null" json:"username"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	FavoriteGame string `json:"favorite_game"`
	AvatarURL    string `json:"avatar_url"`
	Badge        string `gorm:"size:64" json:"badge"`
	IsAdmin      bool   `gorm:"default:false" json:"is_admin"`
	IsBanned     bool   `gorm:"default:false;index" json:"is_banned"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
