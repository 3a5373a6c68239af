package services

import (
	"context"
	"fmt"
	"time"

	"github.com/frikords/server/internal/audit"
	"github.com/frikords/server/internal/metrics"
	"github.com/frikords/server/internal/models"
	"github.com/frikords/server/internal/pkg/redis"
	"github.com/frikords/server/internal/repositories"
	"github.com/frikords/server/internal/utils"
	"github.com/frikords/server/pkg/ratelimit"
)

const (
	maxMessageLength = 2000
	defaultPageSize  = 100
)

// ValidEmoji is the reaction whitelist.
var ValidEmoji = map[string]bool{
	"👍": true, "❤️": true, "😂": true, "😮": true,
	"😢": true, "🔥": true, "👎": true, "🎮": true,
}

// MessageService implements the ordered message log per locality.
type MessageService struct {
	messageRepo *repositories.MessageRepository
	roomRepo    *repositories.RoomRepository
	rdb         *redis.Client
	limiter     ratelimit.Limiter
	audit       *audit.Recorder
	msgsPer10s  int
}

func NewMessageService(
	messageRepo *repositories.MessageRepository,
	roomRepo *repositories.RoomRepository,
	rdb *redis.Client,
	limiter ratelimit.Limiter,
	recorder *audit.Recorder,
	msgsPer10s int,
) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		roomRepo:    roomRepo,
		rdb:         rdb,
		limiter:     limiter,
		audit:       recorder,
		msgsPer10s:  msgsPer10s,
	}
}

type SendMessageRequest struct {
	Channel  string `json:"channel"`
	RoomID   uint   `json:"room_id"`
	Content  string `json:"content" binding:"required"`
	ReplyTo  string `json:"reply_to"`
	ImageURL string `json:"image_url"`
}

type MessageDTO struct {
	ID           int64                            `json:"id"`
	SeqID        int64                            `json:"seq_id"`
	Content      string                           `json:"content"`
	ReplyTo      string                           `json:"reply_to,omitempty"`
	ImageURL     string                           `json:"image_url,omitempty"`
	CreatedAt    time.Time                        `json:"created_at"`
	AuthorID     uint                             `json:"author_id"`
	Username     string                           `json:"username"`
	FavoriteGame string                           `json:"favorite_game"`
	AvatarURL    string                           `json:"avatar_url"`
	Badge        string                           `json:"badge"`
	Edited       bool                             `json:"edited"`
	IsRemoved    bool                             `json:"is_removed"`
	Reactions    []repositories.ReactionAggregate `json:"reactions"`
}

func (s *MessageService) messageDTO(m *models.Message, reactions []repositories.ReactionAggregate) *MessageDTO {
	dto := &MessageDTO{
		ID:        m.ID,
		SeqID:     m.SeqID,
		Content:   m.Content,
		ReplyTo:   m.ReplyTo,
		ImageURL:  m.ImageURL,
		CreatedAt: m.CreatedAt,
		AuthorID:  m.AuthorID,
		Edited:    m.Edited,
		IsRemoved: m.IsRemoved,
		Reactions: reactions,
	}
	if dto.Reactions == nil {
		dto.Reactions = []repositories.ReactionAggregate{}
	}
	if m.IsRemoved {
		dto.Content = ""
	}
	if m.Author != nil {
		dto.Username = m.Author.Username
		dto.FavoriteGame = m.Author.FavoriteGame
		dto.AvatarURL = m.Author.AvatarURL
		dto.Badge = m.Author.Badge
	}
	return dto
}

// SendMessage validates first and takes the sequence number last, so
// a rejected send never advances the locality counter.
func (s *MessageService) SendMessage(ctx context.Context, author *models.User, ip string, req *SendMessageRequest) (*MessageDTO, error) {
	loc := Locality{Channel: req.Channel, RoomID: req.RoomID}
	if err := loc.Validate(); err != nil {
		return nil, err
	}

	content := utils.Sanitize(req.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: message is empty", ErrValidation)
	}
	if len([]rune(content)) > maxMessageLength {
		return nil, fmt.Errorf("%w: message exceeds %d characters", ErrValidation, maxMessageLength)
	}

	if loc.IsRoom() {
		isMember, err := s.roomRepo.IsMember(loc.RoomID, author.ID)
		if err != nil {
			return nil, err
		}
		if !isMember {
			return nil, ErrNotRoomMember
		}
	}

	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, fmt.Sprintf("msg:%d", author.ID), s.msgsPer10s, 10*time.Second)
		if err != nil {
			return nil, err
		}
		if !allowed {
			s.audit.Record(audit.Entry{
				Level:   models.LogLevelWarn,
				Source:  "messages",
				Message: "message rate limit hit",
				IP:      ip,
				UserID:  &author.ID,
			})
			return nil, ErrRateLimited
		}
	}

	seq, err := s.rdb.NextSeq(ctx, loc.Key())
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		AuthorID: author.ID,
		Channel:  loc.Channel,
		SeqID:    seq,
		Content:  content,
		ReplyTo:  utils.Sanitize(req.ReplyTo),
		ImageURL: req.ImageURL,
	}
	if loc.IsRoom() {
		roomID := loc.RoomID
		msg.RoomID = &roomID
	}
	if err := s.messageRepo.Create(msg); err != nil {
		return nil, err
	}
	msg.Author = author

	kind := "channel"
	if loc.IsRoom() {
		kind = "room"
	}
	metrics.MessagesSentTotal.WithLabelValues(kind).Inc()

	return s.messageDTO(msg, nil), nil
}

type ListMessagesQuery struct {
	Channel  string
	RoomID   uint
	SinceSeq int64
	Limit    int
}

// ListMessages returns the locality's log in seq order. Channel
// reads are public; room reads require membership, so actor may be
// nil only for channels.
func (s *MessageService) ListMessages(ctx context.Context, actor *models.User, q ListMessagesQuery) ([]*MessageDTO, error) {
	loc := Locality{Channel: q.Channel, RoomID: q.RoomID}
	if err := loc.Validate(); err != nil {
		return nil, err
	}

	if loc.IsRoom() {
		if actor == nil {
			return nil, ErrUnauthenticated
		}
		isMember, err := s.roomRepo.IsMember(loc.RoomID, actor.ID)
		if err != nil {
			return nil, err
		}
		if !isMember {
			return nil, ErrNotRoomMember
		}
	}

	limit := q.Limit
	if limit <= 0 || limit > defaultPageSize {
		limit = defaultPageSize
	}

	messages, err := s.messageRepo.ListByLocality(loc.Channel, loc.RoomID, q.SinceSeq, limit)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(messages))
	for i := range messages {
		ids[i] = messages[i].ID
	}
	reactions, err := s.messageRepo.GetReactions(ids)
	if err != nil {
		return nil, err
	}

	dtos := make([]*MessageDTO, len(messages))
	for i := range messages {
		dtos[i] = s.messageDTO(&messages[i], reactions[messages[i].ID])
	}
	return dtos, nil
}

// EditMessage is author-only and last-writer-wins. Removed messages
// cannot be edited and report as missing, like the original rows
// filtered out of the edit query.
func (s *MessageService) EditMessage(ctx context.Context, actor *models.User, messageID int64, newContent string) error {
	content := utils.Sanitize(newContent)
	if content == "" {
		return fmt.Errorf("%w: message is empty", ErrValidation)
	}
	if len([]rune(content)) > maxMessageLength {
		return fmt.Errorf("%w: message exceeds %d characters", ErrValidation, maxMessageLength)
	}

	msg, err := s.messageRepo.GetByID(messageID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return fmt.Errorf("%w: message", ErrNotFound)
		}
		return err
	}
	if msg.IsRemoved {
		return fmt.Errorf("%w: message", ErrNotFound)
	}
	if msg.AuthorID != actor.ID {
		return ErrForbidden
	}
	return s.messageRepo.UpdateContent(messageID, content)
}

// DeleteMessage soft-deletes; author or admin. Idempotent by design.
func (s *MessageService) DeleteMessage(ctx context.Context, actor *models.User, messageID int64) error {
	msg, err := s.messageRepo.GetByID(messageID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return fmt.Errorf("%w: message", ErrNotFound)
		}
		return err
	}
	if msg.AuthorID != actor.ID && !actor.IsAdmin {
		return ErrForbidden
	}
	return s.messageRepo.SoftDelete(messageID)
}

type ReactResult struct {
	Added bool   `json:"added"`
	Emoji string `json:"emoji"`
	Count int    `json:"count"`
	Users []uint `json:"users"`
}

// React toggles the actor's reaction and returns the updated
// aggregate for that emoji. Reactions on removed messages are
// rejected; existing reactions on them stay readable.
func (s *MessageService) React(ctx context.Context, actor *models.User, messageID int64, emoji string) (*ReactResult, error) {
	if !ValidEmoji[emoji] {
		return nil, fmt.Errorf("%w: emoji not allowed", ErrValidation)
	}

	msg, err := s.messageRepo.GetByID(messageID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, fmt.Errorf("%w: message", ErrNotFound)
		}
		return nil, err
	}
	if msg.IsRemoved {
		return nil, ErrMessageRemoved
	}

	added, err := s.messageRepo.ToggleReaction(messageID, actor.ID, emoji)
	if err != nil {
		return nil, err
	}
	metrics.ReactionsTotal.Inc()

	aggs, err := s.messageRepo.GetReactions([]int64{messageID})
	if err != nil {
		return nil, err
	}

	result := &ReactResult{Added: added, Emoji: emoji, Users: []uint{}}
	for _, agg := range aggs[messageID] {
		if agg.Emoji == emoji {
			result.Count = agg.Count
			result.Users = agg.Users
			break
		}
	}
	return result, nil
}
