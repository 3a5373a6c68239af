package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/frikords/server/internal/config"
	"github.com/frikords/server/internal/models"
	"github.com/frikords/server/internal/repositories"
	"github.com/frikords/server/internal/utils"
)

const maxAvatarBytes = 2 << 20

var avatarExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// UserService serves public profiles and the owner-editable settings.
type UserService struct {
	userRepo    *repositories.UserRepository
	messageRepo *repositories.MessageRepository
	avatarCfg   *config.AvatarConfig
}

func NewUserService(userRepo *repositories.UserRepository, messageRepo *repositories.MessageRepository, avatarCfg *config.AvatarConfig) *UserService {
	return &UserService{userRepo: userRepo, messageRepo: messageRepo, avatarCfg: avatarCfg}
}

type ProfileDTO struct {
	ID           uint   `json:"id"`
	Username     string `json:"username"`
	FavoriteGame string `json:"favorite_game"`
	AvatarURL    string `json:"avatar_url"`
	Badge        string `json:"badge"`
	MessageCount int64  `json:"message_count"`
	JoinedAt     string `json:"joined_at"`
}

// Profile returns a user's public profile. Banned accounts do not
// resolve.
func (s *UserService) Profile(ctx context.Context, username string) (*ProfileDTO, error) {
	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, fmt.Errorf("%w: user", ErrNotFound)
		}
		return nil, err
	}
	if user.IsBanned {
		return nil, fmt.Errorf("%w: user", ErrNotFound)
	}
	count, err := s.messageRepo.CountByAuthor(user.ID)
	if err != nil {
		return nil, err
	}
	return &ProfileDTO{
		ID:           user.ID,
		Username:     user.Username,
		FavoriteGame: user.FavoriteGame,
		AvatarURL:    user.AvatarURL,
		Badge:        user.Badge,
		MessageCount: count,
		JoinedAt:     user.CreatedAt.Format("2006-01-02"),
	}, nil
}

type SettingsRequest struct {
	Username     *string `json:"username"`
	FavoriteGame *string `json:"favorite_game"`
	Password     *string `json:"password"`
}

// Settings returns the actor's own account view.
func (s *UserService) Settings(ctx context.Context, actor *models.User) *UserDTO {
	return NewUserDTO(actor)
}

// UpdateSettings applies partial updates to the actor's own account.
func (s *UserService) UpdateSettings(ctx context.Context, actor *models.User, req *SettingsRequest) (*UserDTO, error) {
	fields := map[string]any{}
	if req.Username != nil {
		name := utils.Sanitize(*req.Username)
		if !utils.ValidateUsername(name) {
			return nil, fmt.Errorf("%w: username must be 2-32 characters", ErrValidation)
		}
		if name != actor.Username {
			if _, err := s.userRepo.GetByUsername(name); err == nil {
				return nil, ErrUsernameTaken
			}
			fields["username"] = name
		}
	}
	if req.FavoriteGame != nil {
		fields["favorite_game"] = utils.Sanitize(*req.FavoriteGame)
	}
	if req.Password != nil {
		if !utils.ValidatePassword(*req.Password) {
			return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
		}
		hash, err := utils.HashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		fields["password_hash"] = hash
	}
	if len(fields) > 0 {
		if err := s.userRepo.UpdateFields(actor.ID, fields); err != nil {
			return nil, err
		}
	}
	user, err := s.userRepo.GetByID(actor.ID)
	if err != nil {
		return nil, err
	}
	return NewUserDTO(user), nil
}

// UploadAvatar decodes a data URL, writes the image under the avatar
// dir and points the account at it. Only jpeg, png and webp up to
// 2 MiB are accepted.
func (s *UserService) UploadAvatar(ctx context.Context, actor *models.User, dataURL string) (string, error) {
	mime, payload, ok := strings.Cut(strings.TrimPrefix(dataURL, "data:"), ";base64,")
	if !ok {
		return "", fmt.Errorf("%w: expected a base64 data URL", ErrValidation)
	}
	ext, supported := avatarExt[mime]
	if !supported {
		return "", fmt.Errorf("%w: unsupported image type %q", ErrValidation, mime)
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > maxAvatarBytes {
		return "", fmt.Errorf("%w: image exceeds 2MB", ErrValidation)
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("%w: invalid base64 payload", ErrValidation)
	}
	if len(raw) > maxAvatarBytes {
		return "", fmt.Errorf("%w: image exceeds 2MB", ErrValidation)
	}

	if err := os.MkdirAll(s.avatarCfg.Dir, 0o755); err != nil {
		return "", err
	}
	name := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(s.avatarCfg.Dir, name), raw, 0o644); err != nil {
		return "", err
	}

	url := strings.TrimSuffix(s.avatarCfg.BaseURL, "/") + "/" + name
	if err := s.userRepo.UpdateFields(actor.ID, map[string]any{"avatar_url": url}); err != nil {
		return "", err
	}
	return url, nil
}
