package services

import (
	"context"
	"fmt"
	"time"

	"github.com/frikords/server/internal/models"
	"github.com/frikords/server/internal/repositories"
)

// FriendService manages the friend graph through its request
// lifecycle: pending, accepted (the edge) or declined.
type FriendService struct {
	friendRepo *repositories.FriendRepository
	userRepo   *repositories.UserRepository
}

func NewFriendService(friendRepo *repositories.FriendRepository, userRepo *repositories.UserRepository) *FriendService {
	return &FriendService{friendRepo: friendRepo, userRepo: userRepo}
}

type FriendRequestDTO struct {
	ID           uint      `json:"id"`
	FromUserID   uint      `json:"from_user_id"`
	FromUsername string    `json:"from_username"`
	AvatarURL    string    `json:"avatar_url"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// SendRequest creates a pending request toward the named user.
// Duplicate pending requests and requests between existing friends
// are conflicts; a declined history does not block a retry.
func (s *FriendService) SendRequest(ctx context.Context, actor *models.User, toUsername string) (*FriendRequestDTO, error) {
	target, err := s.userRepo.GetByUsername(toUsername)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, fmt.Errorf("%w: user", ErrNotFound)
		}
		return nil, err
	}
	if target.ID == actor.ID {
		return nil, fmt.Errorf("%w: cannot friend yourself", ErrValidation)
	}
	if target.IsBanned {
		return nil, fmt.Errorf("%w: user", ErrNotFound)
	}

	if existing, err := s.friendRepo.GetBetween(actor.ID, target.ID); err == nil {
		if existing.Status == models.FriendAccepted {
			return nil, ErrAlreadyFriends
		}
		return nil, ErrDuplicateRequest
	}

	req := &models.FriendRequest{
		FromUserID: actor.ID,
		ToUserID:   target.ID,
		Status:     models.FriendPending,
	}
	if err := s.friendRepo.Create(req); err != nil {
		return nil, err
	}
	return &FriendRequestDTO{
		ID:           req.ID,
		FromUserID:   actor.ID,
		FromUsername: actor.Username,
		AvatarURL:    actor.AvatarURL,
		Status:       req.Status,
		CreatedAt:    req.CreatedAt,
	}, nil
}

// Respond accepts or declines a pending request. Only the request's
// target may respond, and only once.
func (s *FriendService) Respond(ctx context.Context, actor *models.User, requestID uint, accept bool) error {
	req, err := s.friendRepo.GetByID(requestID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return fmt.Errorf("%w: friend request", ErrNotFound)
		}
		return err
	}
	if req.ToUserID != actor.ID {
		return ErrForbidden
	}
	if req.Status != models.FriendPending {
		return fmt.Errorf("%w: request already resolved", ErrConflict)
	}

	status := models.FriendDeclined
	if accept {
		status = models.FriendAccepted
	}
	return s.friendRepo.UpdateStatus(req.ID, status)
}

// ListFriends returns the actor's accepted friends as user profiles.
func (s *FriendService) ListFriends(ctx context.Context, actor *models.User) ([]*UserDTO, error) {
	users, err := s.friendRepo.ListFriends(actor.ID)
	if err != nil {
		return nil, err
	}
	dtos := make([]*UserDTO, len(users))
	for i := range users {
		dtos[i] = NewUserDTO(&users[i])
	}
	return dtos, nil
}

// ListRequests returns pending requests waiting on the actor.
func (s *FriendService) ListRequests(ctx context.Context, actor *models.User) ([]*FriendRequestDTO, error) {
	reqs, err := s.friendRepo.ListPendingFor(actor.ID)
	if err != nil {
		return nil, err
	}
	dtos := make([]*FriendRequestDTO, len(reqs))
	for i := range reqs {
		dto := &FriendRequestDTO{
			ID:         reqs[i].ID,
			FromUserID: reqs[i].FromUserID,
			Status:     reqs[i].Status,
			CreatedAt:  reqs[i].CreatedAt,
		}
		if reqs[i].FromUser != nil {
			dto.FromUsername = reqs[i].FromUser.Username
			dto.AvatarURL = reqs[i].FromUser.AvatarURL
		}
		dtos[i] = dto
	}
	return dtos, nil
}
