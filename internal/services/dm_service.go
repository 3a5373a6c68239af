package services

import (
	"context"
	"fmt"
	"time"

	"github.com/frikords/server/internal/metrics"
	"github.com/frikords/server/internal/models"
	"github.com/frikords/server/internal/pkg/redis"
	"github.com/frikords/server/internal/repositories"
	"github.com/frikords/server/internal/utils"
	"github.com/frikords/server/pkg/ratelimit"
)

// DMService handles direct messages between accepted friends. Each
// user pair is its own ordered locality.
type DMService struct {
	dmRepo     *repositories.DMRepository
	friendRepo *repositories.FriendRepository
	userRepo   *repositories.UserRepository
	rdb        *redis.Client
	limiter    ratelimit.Limiter
	dmsPer10s  int
}

func NewDMService(
	dmRepo *repositories.DMRepository,
	friendRepo *repositories.FriendRepository,
	userRepo *repositories.UserRepository,
	rdb *redis.Client,
	limiter ratelimit.Limiter,
	dmsPer10s int,
) *DMService {
	return &DMService{
		dmRepo:     dmRepo,
		friendRepo: friendRepo,
		userRepo:   userRepo,
		rdb:        rdb,
		limiter:    limiter,
		dmsPer10s:  dmsPer10s,
	}
}

type DirectMessageDTO struct {
	ID         int64     `json:"id"`
	SeqID      int64     `json:"seq_id"`
	SenderID   uint      `json:"sender_id"`
	ReceiverID uint      `json:"receiver_id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	IsRemoved  bool      `json:"is_removed"`
}

func dmDTO(m *models.DirectMessage) *DirectMessageDTO {
	dto := &DirectMessageDTO{
		ID:         m.ID,
		SeqID:      m.SeqID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Content:    m.Content,
		CreatedAt:  m.CreatedAt,
		IsRemoved:  m.IsRemoved,
	}
	if m.IsRemoved {
		dto.Content = ""
	}
	return dto
}

// Send delivers a DM to an accepted friend. The pair shares one
// sequence counter regardless of direction.
func (s *DMService) Send(ctx context.Context, sender *models.User, receiverID uint, content string) (*DirectMessageDTO, error) {
	content = utils.Sanitize(content)
	if content == "" {
		return nil, fmt.Errorf("%w: message is empty", ErrValidation)
	}
	if len([]rune(content)) > maxMessageLength {
		return nil, fmt.Errorf("%w: message exceeds %d characters", ErrValidation, maxMessageLength)
	}
	if receiverID == sender.ID {
		return nil, fmt.Errorf("%w: cannot message yourself", ErrValidation)
	}

	if _, err := s.userRepo.GetByID(receiverID); err != nil {
		if repositories.IsNotFound(err) {
			return nil, fmt.Errorf("%w: user", ErrNotFound)
		}
		return nil, err
	}
	areFriends, err := s.friendRepo.AreFriends(sender.ID, receiverID)
	if err != nil {
		return nil, err
	}
	if !areFriends {
		return nil, ErrNotFriends
	}

	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, fmt.Sprintf("dm:%d", sender.ID), s.dmsPer10s, 10*time.Second)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, ErrRateLimited
		}
	}

	seq, err := s.rdb.NextSeq(ctx, dmKey(sender.ID, receiverID))
	if err != nil {
		return nil, err
	}

	dm := &models.DirectMessage{
		SenderID:   sender.ID,
		ReceiverID: receiverID,
		SeqID:      seq,
		Content:    content,
	}
	if err := s.dmRepo.Create(dm); err != nil {
		return nil, err
	}
	metrics.MessagesSentTotal.WithLabelValues("dm").Inc()
	return dmDTO(dm), nil
}

// History returns the conversation between the actor and the other
// user in seq order. Both participants see the same log.
func (s *DMService) History(ctx context.Context, actor *models.User, otherID uint, sinceSeq int64, limit int) ([]*DirectMessageDTO, error) {
	if _, err := s.userRepo.GetByID(otherID); err != nil {
		if repositories.IsNotFound(err) {
			return nil, fmt.Errorf("%w: user", ErrNotFound)
		}
		return nil, err
	}
	areFriends, err := s.friendRepo.AreFriends(actor.ID, otherID)
	if err != nil {
		return nil, err
	}
	if !areFriends {
		return nil, ErrNotFriends
	}

	if limit <= 0 || limit > defaultPageSize {
		limit = defaultPageSize
	}
	msgs, err := s.dmRepo.ListBetween(actor.ID, otherID, sinceSeq, limit)
	if err != nil {
		return nil, err
	}
	dtos := make([]*DirectMessageDTO, len(msgs))
	for i := range msgs {
		dtos[i] = dmDTO(&msgs[i])
	}
	return dtos, nil
}

// Delete soft-deletes a DM; only the sender may delete, and deleting
// twice is a no-op.
func (s *DMService) Delete(ctx context.Context, actor *models.User, dmID int64) error {
	dm, err := s.dmRepo.GetByID(dmID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return fmt.Errorf("%w: message", ErrNotFound)
		}
		return err
	}
	if dm.SenderID != actor.ID {
		return ErrForbidden
	}
	return s.dmRepo.SoftDelete(dmID)
}
