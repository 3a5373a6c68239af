package repositories

import (
	"gorm.io/gorm"

	"github.com/frikords/server/internal/models"
)

// RoomRepository owns rooms, membership and invite codes.
type RoomRepository struct {
	db *gorm.DB
}

func NewRoomRepository(db *gorm.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// CreateRoom persists the room, its owner membership and the initial
// invite code in one transaction so a failed create leaves nothing
// behind.
func (r *RoomRepository) CreateRoom(room *models.Room, invite *models.Invite) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(room).Error; err != nil {
			return err
		}
		if err := tx.Create(&models.RoomMember{RoomID: room.ID, UserID: room.OwnerID}).Error; err != nil {
			return err
		}
		invite.RoomID = room.ID
		return tx.Create(invite).Error
	})
}

func (r *RoomRepository) GetByID(id uint) (*models.Room, error) {
	var room models.Room
	if err := r.db.First(&room, id).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *RoomRepository) IsMember(roomID, userID uint) (bool, error) {
	var n int64
	err := r.db.Model(&models.RoomMember{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Count(&n).Error
	return n > 0, err
}

func (r *RoomRepository) AddMember(roomID, userID uint) error {
	return r.db.Create(&models.RoomMember{RoomID: roomID, UserID: userID}).Error
}

func (r *RoomRepository) MemberCount(roomID uint) (int64, error) {
	var n int64
	err := r.db.Model(&models.RoomMember{}).Where("room_id = ?", roomID).Count(&n).Error
	return n, err
}

// ReplaceInvite swaps the room's single active code for a new one.
func (r *RoomRepository) ReplaceInvite(invite *models.Invite) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("room_id = ?", invite.RoomID).Delete(&models.Invite{}).Error; err != nil {
			return err
		}
		return tx.Create(invite).Error
	})
}

func (r *RoomRepository) GetInviteByCode(code string) (*models.Invite, error) {
	var invite models.Invite
	if err := r.db.Where("code = ?", code).First(&invite).Error; err != nil {
		return nil, err
	}
	return &invite, nil
}

func (r *RoomRepository) GetInviteByRoom(roomID uint) (*models.Invite, error) {
	var invite models.Invite
	if err := r.db.Where("room_id = ?", roomID).First(&invite).Error; err != nil {
		return nil, err
	}
	return &invite, nil
}

// ConsumeInvite bumps the code's use counter and grants membership in
// one transaction; a failed join leaves no membership behind.
func (r *RoomRepository) ConsumeInvite(roomID, userID uint, code string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Invite{}).
			Where("code = ?", code).
			Update("uses", gorm.Expr("uses + 1")).Error; err != nil {
			return err
		}
		return tx.Create(&models.RoomMember{RoomID: roomID, UserID: userID}).Error
	})
}

// ListForUser returns the rooms the user belongs to, newest first.
func (r *RoomRepository) ListForUser(userID uint, limit int) ([]models.Room, error) {
	var rooms []models.Room
	err := r.db.
		Joins("JOIN room_members me ON me.room_id = rooms.id AND me.user_id = ?", userID).
		Preload("Owner").
		Order("rooms.created_at DESC").
		Limit(limit).
		Find(&rooms).Error
	return rooms, err
}

// ListPublic returns public rooms for anonymous browsing.
func (r *RoomRepository) ListPublic(limit int) ([]models.Room, error) {
	var rooms []models.Room
	err := r.db.
		Where("is_public = ?", true).
		Preload("Owner").
		Order("created_at DESC").
		Limit(limit).
		Find(&rooms).Error
	return rooms, err
}

func (r *RoomRepository) Count() (int64, error) {
	var n int64
	err := r.db.Model(&models.Room{}).Count(&n).Error
	return n, err
}
