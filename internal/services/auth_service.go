package services

import (
	"context"
	"fmt"
	"time"

	"github.com/frikords/server/internal/models"
	"github.com/frikords/server/internal/pkg/redis"
	"github.com/frikords/server/internal/repositories"
	"github.com/frikords/server/internal/utils"
	"github.com/frikords/server/pkg/ratelimit"
)

// AuthService handles registration, login and session resolution.
// Tokens are opaque 64-char hex strings persisted server side; they
// carry no expiry, a ban is the revocation mechanism.
type AuthService struct {
	userRepo   *repositories.UserRepository
	rdb        *redis.Client
	limiter    ratelimit.Limiter
	authPerMin int
}

func NewAuthService(userRepo *repositories.UserRepository, rdb *redis.Client, limiter ratelimit.Limiter, authPerMin int) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		rdb:        rdb,
		limiter:    limiter,
		authPerMin: authPerMin,
	}
}

type RegisterRequest struct {
	Username     string `json:"username" binding:"required"`
	Email        string `json:"email" binding:"required"`
	Password     string `json:"password" binding:"required"`
	FavoriteGame string `json:"favorite_game"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Success bool     `json:"success"`
	Token   string   `json:"token,omitempty"`
	User    *UserDTO `json:"user"`
}

type UserDTO struct {
	ID           uint   `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email,omitempty"`
	FavoriteGame string `json:"favorite_game"`
	AvatarURL    string `json:"avatar_url"`
	Badge        string `json:"badge"`
	IsAdmin      bool   `json:"is_admin"`
}

func NewUserDTO(u *models.User) *UserDTO {
	return &UserDTO{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		FavoriteGame: u.FavoriteGame,
		AvatarURL:    u.AvatarURL,
		Badge:        u.Badge,
		IsAdmin:      u.IsAdmin,
	}
}

// Register creates the account. No session is issued; clients log in
// afterwards.
func (s *AuthService) Register(ctx context.Context, ip string, req *RegisterRequest) (*AuthResponse, error) {
	if err := s.allowAuthAttempt(ctx, ip); err != nil {
		return nil, err
	}

	username := utils.Sanitize(req.Username)
	if !utils.ValidateUsername(username) {
		return nil, fmt.Errorf("%w: username must be 2-32 characters", ErrValidation)
	}
	if !utils.ValidateEmail(req.Email) {
		return nil, fmt.Errorf("%w: malformed email", ErrValidation)
	}
	if !utils.ValidatePassword(req.Password) {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}

	if _, err := s.userRepo.GetByUsername(username); err == nil {
		return nil, ErrUsernameTaken
	}
	if _, err := s.userRepo.GetByEmail(req.Email); err == nil {
		return nil, ErrEmailTaken
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     username,
		Email:        req.Email,
		PasswordHash: hash,
		FavoriteGame: utils.Sanitize(req.FavoriteGame),
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	return &AuthResponse{Success: true, User: NewUserDTO(user)}, nil
}

// Login verifies credentials and issues a fresh session token.
func (s *AuthService) Login(ctx context.Context, ip string, req *LoginRequest) (*AuthResponse, error) {
	if err := s.allowAuthAttempt(ctx, ip); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(req.Email)
	if err != nil {
		return nil, ErrBadCredentials
	}
	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		return nil, ErrBadCredentials
	}
	if user.IsBanned {
		return nil, ErrAccountBanned
	}

	token, err := utils.GenerateSessionToken()
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.CreateSession(&models.Session{UserID: user.ID, Token: token}); err != nil {
		return nil, err
	}

	return &AuthResponse{Success: true, Token: token, User: NewUserDTO(user)}, nil
}

// Logout revokes the presented token and drops the user from the
// presence set.
func (s *AuthService) Logout(ctx context.Context, user *models.User, token string) error {
	if err := s.userRepo.DeleteSession(token); err != nil {
		return err
	}
	return s.rdb.RemovePresence(ctx, user.ID)
}

// ValidateToken resolves a bearer token. Unknown tokens and banned
// accounts both resolve to ErrUnauthenticated, so a banned user's
// next poll fails with 401.
func (s *AuthService) ValidateToken(token string) (*models.User, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	user, err := s.userRepo.GetBySessionToken(token)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	return user, nil
}

func (s *AuthService) allowAuthAttempt(ctx context.Context, ip string) error {
	if s.limiter == nil || ip == "" {
		return nil
	}
	allowed, err := s.limiter.Allow(ctx, "auth:"+ip, s.authPerMin, time.Minute)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrRateLimited
	}
	return nil
}
