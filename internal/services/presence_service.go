package services

import (
	"context"
	"sort"
	"time"

	"github.com/frikords/server/internal/metrics"
	"github.com/frikords/server/internal/models"
	"github.com/frikords/server/internal/pkg/redis"
	"github.com/frikords/server/internal/repositories"
)

const maxOnlineListed = 50

// PresenceService tracks who is online. Every authenticated request
// refreshes the caller's heartbeat; a user counts as online while the
// last heartbeat is within the window. No sweeper: staleness is
// decided at read time.
type PresenceService struct {
	userRepo *repositories.UserRepository
	rdb      *redis.Client
	window   time.Duration
}

func NewPresenceService(userRepo *repositories.UserRepository, rdb *redis.Client, window time.Duration) *PresenceService {
	return &PresenceService{userRepo: userRepo, rdb: rdb, window: window}
}

type OnlineUserDTO struct {
	ID           uint   `json:"id"`
	Username     string `json:"username"`
	FavoriteGame string `json:"favorite_game"`
	AvatarURL    string `json:"avatar_url"`
	Badge        string `json:"badge"`
}

// Touch refreshes the user's heartbeat.
func (s *PresenceService) Touch(ctx context.Context, userID uint) error {
	return s.rdb.TouchPresence(ctx, userID, time.Now())
}

// Forget drops the user from the online set immediately (logout,
// ban).
func (s *PresenceService) Forget(ctx context.Context, userID uint) error {
	return s.rdb.RemovePresence(ctx, userID)
}

// Online lists currently-online users sorted by username, banned
// accounts hidden, capped at 50.
func (s *PresenceService) Online(ctx context.Context) ([]*OnlineUserDTO, error) {
	cutoff := time.Now().Add(-s.window)
	ids, err := s.rdb.OnlineUserIDs(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*OnlineUserDTO{}, nil
	}

	users, err := s.userRepo.GetByIDs(ids)
	if err != nil {
		return nil, err
	}

	dtos := make([]*OnlineUserDTO, 0, len(users))
	for i := range users {
		if users[i].IsBanned {
			continue
		}
		dtos = append(dtos, onlineUserDTO(&users[i]))
	}
	metrics.OnlineUsers.Set(float64(len(dtos)))

	sort.Slice(dtos, func(i, j int) bool { return dtos[i].Username < dtos[j].Username })
	if len(dtos) > maxOnlineListed {
		dtos = dtos[:maxOnlineListed]
	}
	return dtos, nil
}

func onlineUserDTO(u *models.User) *OnlineUserDTO {
	return &OnlineUserDTO{
		ID:           u.ID,
		Username:     u.Username,
		FavoriteGame: u.FavoriteGame,
		AvatarURL:    u.AvatarURL,
		Badge:        u.Badge,
	}
}
