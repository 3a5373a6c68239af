package services

import (
	"context"
	"fmt"
	"time"

	"github.com/frikords/server/internal/audit"
	"github.com/frikords/server/internal/models"
	"github.com/frikords/server/internal/repositories"
	"github.com/frikords/server/internal/utils"
)

const (
	maxBadgeLength = 64
	adminPageSize  = 200
)

// AdminService holds the moderation surface: stats, user management,
// bans, badges, bulk message clearing and the error log viewer.
type AdminService struct {
	userRepo    *repositories.UserRepository
	messageRepo *repositories.MessageRepository
	roomRepo    *repositories.RoomRepository
	logRepo     *repositories.LogRepository
	presence    *PresenceService
	audit       *audit.Recorder
}

func NewAdminService(
	userRepo *repositories.UserRepository,
	messageRepo *repositories.MessageRepository,
	roomRepo *repositories.RoomRepository,
	logRepo *repositories.LogRepository,
	presence *PresenceService,
	recorder *audit.Recorder,
) *AdminService {
	return &AdminService{
		userRepo:    userRepo,
		messageRepo: messageRepo,
		roomRepo:    roomRepo,
		logRepo:     logRepo,
		presence:    presence,
		audit:       recorder,
	}
}

type StatsDTO struct {
	TotalUsers    int64 `json:"total_users"`
	BannedUsers   int64 `json:"banned_users"`
	NewUsers24h   int64 `json:"new_users_24h"`
	TotalMessages int64 `json:"total_messages"`
	Messages24h   int64 `json:"messages_24h"`
	TotalRooms    int64 `json:"total_rooms"`
	Errors24h     int64 `json:"errors_24h"`
	OnlineNow     int   `json:"online_now"`
}

// Stats aggregates the dashboard counters. 24h figures use a rolling
// window from now.
func (s *AdminService) Stats(ctx context.Context) (*StatsDTO, error) {
	dayAgo := time.Now().Add(-24 * time.Hour)
	stats := &StatsDTO{}

	var err error
	if stats.TotalUsers, err = s.userRepo.Count(); err != nil {
		return nil, err
	}
	if stats.BannedUsers, err = s.userRepo.CountBanned(); err != nil {
		return nil, err
	}
	if stats.NewUsers24h, err = s.userRepo.CountCreatedSince(dayAgo); err != nil {
		return nil, err
	}
	if stats.TotalMessages, err = s.messageRepo.Count(); err != nil {
		return nil, err
	}
	if stats.Messages24h, err = s.messageRepo.CountCreatedSince(dayAgo); err != nil {
		return nil, err
	}
	if stats.TotalRooms, err = s.roomRepo.Count(); err != nil {
		return nil, err
	}
	if stats.Errors24h, err = s.logRepo.CountErrorsSince(dayAgo); err != nil {
		return nil, err
	}

	online, err := s.presence.Online(ctx)
	if err != nil {
		return nil, err
	}
	stats.OnlineNow = len(online)
	return stats, nil
}

type AdminUserDTO struct {
	ID           uint      `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FavoriteGame string    `json:"favorite_game"`
	Badge        string    `json:"badge"`
	IsAdmin      bool      `json:"is_admin"`
	IsBanned     bool      `json:"is_banned"`
	CreatedAt    time.Time `json:"created_at"`
}

// Users lists accounts, optionally filtered by a username/email
// substring.
func (s *AdminService) Users(ctx context.Context, query string, limit, offset int) ([]*AdminUserDTO, error) {
	if limit <= 0 || limit > defaultPageSize {
		limit = defaultPageSize
	}
	users, err := s.userRepo.Search(query, limit, offset)
	if err != nil {
		return nil, err
	}
	dtos := make([]*AdminUserDTO, len(users))
	for i, u := range users {
		dtos[i] = &AdminUserDTO{
			ID:           u.ID,
			Username:     u.Username,
			Email:        u.Email,
			FavoriteGame: u.FavoriteGame,
			Badge:        u.Badge,
			IsAdmin:      u.IsAdmin,
			IsBanned:     u.IsBanned,
			CreatedAt:    u.CreatedAt,
		}
	}
	return dtos, nil
}

// SetBanned bans or unbans an account. Admins cannot be banned. A ban
// revokes access immediately: sessions stop resolving and the user
// drops out of the online set.
func (s *AdminService) SetBanned(ctx context.Context, actor *models.User, userID uint, banned bool) error {
	target, err := s.userRepo.GetByID(userID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return fmt.Errorf("%w: user", ErrNotFound)
		}
		return err
	}
	if target.IsAdmin && banned {
		return ErrCannotBanAdmin
	}
	if target.IsBanned == banned {
		return nil
	}
	if err := s.userRepo.UpdateFields(userID, map[string]any{"is_banned": banned}); err != nil {
		return err
	}
	if banned {
		if err := s.presence.Forget(ctx, userID); err != nil {
			return err
		}
	}

	action := "user unbanned"
	if banned {
		action = "user banned"
	}
	s.audit.Record(audit.Entry{
		Level:   models.LogLevelWarn,
		Source:  "admin",
		Message: action,
		Details: fmt.Sprintf("target=%s(%d) by=%s(%d)", target.Username, target.ID, actor.Username, actor.ID),
		UserID:  &actor.ID,
	})
	return nil
}

// SetBadge assigns or clears a user's profile badge.
func (s *AdminService) SetBadge(ctx context.Context, actor *models.User, userID uint, badge string) error {
	badge = utils.Sanitize(badge)
	if len([]rune(badge)) > maxBadgeLength {
		return fmt.Errorf("%w: badge exceeds %d characters", ErrValidation, maxBadgeLength)
	}
	target, err := s.userRepo.GetByID(userID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return fmt.Errorf("%w: user", ErrNotFound)
		}
		return err
	}
	if err := s.userRepo.UpdateFields(userID, map[string]any{"badge": badge}); err != nil {
		return err
	}
	s.audit.Record(audit.Entry{
		Level:   models.LogLevelInfo,
		Source:  "admin",
		Message: "badge updated",
		Details: fmt.Sprintf("target=%s(%d) badge=%q by=%s(%d)", target.Username, target.ID, badge, actor.Username, actor.ID),
		UserID:  &actor.ID,
	})
	return nil
}

// Messages returns a locality's newest messages first, removed rows
// included, for the moderation view.
func (s *AdminService) Messages(ctx context.Context, channel string, roomID uint, limit int) ([]*MessageDTO, error) {
	loc := Locality{Channel: channel, RoomID: roomID}
	if err := loc.Validate(); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > adminPageSize {
		limit = adminPageSize
	}
	messages, err := s.messageRepo.ListByLocalityDesc(loc.Channel, loc.RoomID, limit)
	if err != nil {
		return nil, err
	}

	dtos := make([]*MessageDTO, len(messages))
	for i := range messages {
		m := &messages[i]
		dto := &MessageDTO{
			ID:        m.ID,
			SeqID:     m.SeqID,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
			AuthorID:  m.AuthorID,
			Edited:    m.Edited,
			IsRemoved: m.IsRemoved,
			Reactions: []repositories.ReactionAggregate{},
		}
		if m.Author != nil {
			dto.Username = m.Author.Username
			dto.Badge = m.Author.Badge
		}
		dtos[i] = dto
	}
	return dtos, nil
}

// ClearMessage removes a single message.
func (s *AdminService) ClearMessage(ctx context.Context, actor *models.User, messageID int64) error {
	if _, err := s.messageRepo.GetByID(messageID); err != nil {
		if repositories.IsNotFound(err) {
			return fmt.Errorf("%w: message", ErrNotFound)
		}
		return err
	}
	if err := s.messageRepo.SoftDelete(messageID); err != nil {
		return err
	}
	s.audit.Record(audit.Entry{
		Level:   models.LogLevelInfo,
		Source:  "admin",
		Message: "message removed",
		Details: fmt.Sprintf("message=%d by=%s(%d)", messageID, actor.Username, actor.ID),
		UserID:  &actor.ID,
	})
	return nil
}

// ClearLocality removes every visible message in a channel or room
// and reports how many were affected.
func (s *AdminService) ClearLocality(ctx context.Context, actor *models.User, channel string, roomID uint) (int64, error) {
	loc := Locality{Channel: channel, RoomID: roomID}
	if err := loc.Validate(); err != nil {
		return 0, err
	}
	n, err := s.messageRepo.BulkSoftDelete(loc.Channel, loc.RoomID)
	if err != nil {
		return 0, err
	}
	s.audit.Record(audit.Entry{
		Level:   models.LogLevelWarn,
		Source:  "admin",
		Message: "locality cleared",
		Details: fmt.Sprintf("locality=%s cleared=%d by=%s(%d)", loc.Key(), n, actor.Username, actor.ID),
		UserID:  &actor.ID,
	})
	return n, nil
}

type LogEntryDTO struct {
	ID        uint      `json:"id"`
	Level     string    `json:"level"`
	Source    string    `json:"source"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	IP        string    `json:"ip,omitempty"`
	UserID    *uint     `json:"user_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Logs returns recent audit entries, newest first, optionally
// filtered by level.
func (s *AdminService) Logs(ctx context.Context, level string, limit int) ([]*LogEntryDTO, error) {
	if limit <= 0 || limit > adminPageSize {
		limit = adminPageSize
	}
	entries, err := s.logRepo.List(level, limit)
	if err != nil {
		return nil, err
	}
	dtos := make([]*LogEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = &LogEntryDTO{
			ID:        e.ID,
			Level:     e.Level,
			Source:    e.Source,
			Message:   e.Message,
			Details:   e.Details,
			IP:        e.IP,
			UserID:    e.UserID,
			CreatedAt: e.CreatedAt,
		}
	}
	return dtos, nil
}
