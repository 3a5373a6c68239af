package repositories

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/frikords/server/internal/models"
)

// UserRepository owns users and their sessions.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

func (r *UserRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByUsername(username string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByIDs returns the users for a set of ids in one query.
func (r *UserRepository) GetByIDs(ids []uint) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []models.User
	err := r.db.Where("id IN ?", ids).Find(&users).Error
	return users, err
}

func (r *UserRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

func (r *UserRepository) UpdateFields(id uint, fields map[string]any) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).Updates(fields).Error
}

// CreateSession persists a new opaque token for the user.
func (r *UserRepository) CreateSession(session *models.Session) error {
	return r.db.Create(session).Error
}

// DeleteSession removes the presented token. Missing tokens are not an
// error: logout is idempotent.
func (r *UserRepository) DeleteSession(token string) error {
	return r.db.Where("token = ?", token).Delete(&models.Session{}).Error
}

// GetBySessionToken resolves a bearer token to its user. Banned users
// do not resolve, which is what revokes their access everywhere.
func (r *UserRepository) GetBySessionToken(token string) (*models.User, error) {
	var session models.Session
	err := r.db.Preload("User").Where("token = ?", token).First(&session).Error
	if err != nil {
		return nil, err
	}
	if session.User == nil || session.User.IsBanned {
		return nil, gorm.ErrRecordNotFound
	}
	return session.User, nil
}

// Search lists users for the admin panel, newest first, with an
// optional case-insensitive username/email filter.
func (r *UserRepository) Search(query string, limit, offset int) ([]models.User, error) {
	var users []models.User
	q := r.db.Model(&models.User{})
	if query != "" {
		pattern := "%" + strings.ToLower(query) + "%"
		q = q.Where("lower(username) LIKE ? OR lower(email) LIKE ?", pattern, pattern)
	}
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&users).Error
	return users, err
}

func (r *UserRepository) Count() (int64, error) {
	var n int64
	err := r.db.Model(&models.User{}).Count(&n).Error
	return n, err
}

func (r *UserRepository) CountBanned() (int64, error) {
	var n int64
	err := r.db.Model(&models.User{}).Where("is_banned = ?", true).Count(&n).Error
	return n, err
}

func (r *UserRepository) CountCreatedSince(since time.Time) (int64, error) {
	var n int64
	err := r.db.Model(&models.User{}).Where("created_at > ?", since).Count(&n).Error
	return n, err
}
