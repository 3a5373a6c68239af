package repositories

import (
	"gorm.io/gorm"

	"github.com/frikords/server/internal/models"
)

// FriendRepository owns friend requests. An accepted request IS the
// friend edge; friendship is symmetric by querying both directions.
type FriendRepository struct {
	db *gorm.DB
}

func NewFriendRepository(db *gorm.DB) *FriendRepository {
	return &FriendRepository{db: db}
}

func (r *FriendRepository) Create(req *models.FriendRequest) error {
	return r.db.Create(req).Error
}

func (r *FriendRepository) GetByID(id uint) (*models.FriendRequest, error) {
	var req models.FriendRequest
	if err := r.db.First(&req, id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// GetBetween finds any non-declined request between two users in
// either direction.
func (r *FriendRepository) GetBetween(a, b uint) (*models.FriendRequest, error) {
	var req models.FriendRequest
	err := r.db.Where(
		"((from_user_id = ? AND to_user_id = ?) OR (from_user_id = ? AND to_user_id = ?)) AND status <> ?",
		a, b, b, a, models.FriendDeclined,
	).First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// AreFriends reports whether an accepted edge exists between the two
// users.
func (r *FriendRepository) AreFriends(a, b uint) (bool, error) {
	var n int64
	err := r.db.Model(&models.FriendRequest{}).Where(
		"((from_user_id = ? AND to_user_id = ?) OR (from_user_id = ? AND to_user_id = ?)) AND status = ?",
		a, b, b, a, models.FriendAccepted,
	).Count(&n).Error
	return n > 0, err
}

func (r *FriendRepository) UpdateStatus(id uint, status string) error {
	return r.db.Model(&models.FriendRequest{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// ListFriends returns the users on the other end of accepted edges,
// banned accounts hidden.
func (r *FriendRepository) ListFriends(userID uint) ([]models.User, error) {
	var users []models.User
	err := r.db.Model(&models.User{}).
		Joins(`JOIN friend_requests fr ON fr.status = ? AND (
			(fr.from_user_id = ? AND fr.to_user_id = users.id) OR
			(fr.to_user_id = ? AND fr.from_user_id = users.id))`,
			models.FriendAccepted, userID, userID).
		Where("users.is_banned = ?", false).
		Find(&users).Error
	return users, err
}

// ListPendingFor returns pending requests targeting the user, newest
// first, with the requester preloaded.
func (r *FriendRepository) ListPendingFor(userID uint) ([]models.FriendRequest, error) {
	var reqs []models.FriendRequest
	err := r.db.Where("to_user_id = ? AND status = ?", userID, models.FriendPending).
		Preload("FromUser").
		Order("created_at DESC").
		Find(&reqs).Error
	if err != nil {
		return nil, err
	}

	// Hide requests from banned accounts.
	visible := reqs[:0]
	for _, req := range reqs {
		if req.FromUser != nil && !req.FromUser.IsBanned {
			visible = append(visible, req)
		}
	}
	return visible, nil
}
