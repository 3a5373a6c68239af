package services

import (
	"context"
	"fmt"
	"time"

	"github.com/frikords/server/internal/models"
	"github.com/frikords/server/internal/repositories"
	"github.com/frikords/server/internal/utils"
	"github.com/frikords/server/pkg/ratelimit"
)

const (
	minRoomNameLength = 2
	maxRoomNameLength = 32
	maxRoomsListed    = 50
)

// RoomService manages private rooms, membership and invite codes.
type RoomService struct {
	roomRepo     *repositories.RoomRepository
	friendRepo   *repositories.FriendRepository
	userRepo     *repositories.UserRepository
	limiter      ratelimit.Limiter
	roomsPerHour int
}

func NewRoomService(
	roomRepo *repositories.RoomRepository,
	friendRepo *repositories.FriendRepository,
	userRepo *repositories.UserRepository,
	limiter ratelimit.Limiter,
	roomsPerHour int,
) *RoomService {
	return &RoomService{
		roomRepo:     roomRepo,
		friendRepo:   friendRepo,
		userRepo:     userRepo,
		limiter:      limiter,
		roomsPerHour: roomsPerHour,
	}
}

type RoomDTO struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	OwnerID     uint      `json:"owner_id"`
	IsPublic    bool      `json:"is_public"`
	CreatedAt   time.Time `json:"created_at"`
	MemberCount int64     `json:"member_count"`
	InviteCode  string    `json:"invite_code,omitempty"`
	IsMember    bool      `json:"is_member"`
}

func (s *RoomService) roomDTO(room *models.Room, memberCount int64, isMember bool, inviteCode string) *RoomDTO {
	return &RoomDTO{
		ID:          room.ID,
		Name:        room.Name,
		Description: room.Description,
		OwnerID:     room.OwnerID,
		IsPublic:    room.IsPublic,
		CreatedAt:   room.CreatedAt,
		MemberCount: memberCount,
		InviteCode:  inviteCode,
		IsMember:    isMember,
	}
}

type CreateRoomRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	IsPublic    *bool  `json:"is_public"`
}

// CreateRoom creates a room with the creator as owner and first
// member, and mints its initial invite code, all in one transaction.
func (s *RoomService) CreateRoom(ctx context.Context, owner *models.User, req *CreateRoomRequest) (*RoomDTO, error) {
	name := utils.Sanitize(req.Name)
	if n := len([]rune(name)); n < minRoomNameLength || n > maxRoomNameLength {
		return nil, fmt.Errorf("%w: room name must be %d-%d characters", ErrValidation, minRoomNameLength, maxRoomNameLength)
	}

	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, fmt.Sprintf("room:%d", owner.ID), s.roomsPerHour, time.Hour)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, ErrRateLimited
		}
	}

	room := &models.Room{
		Name:        name,
		Description: utils.Sanitize(req.Description),
		OwnerID:     owner.ID,
		IsPublic:    req.IsPublic == nil || *req.IsPublic,
	}
	code, err := utils.GenerateInviteCode()
	if err != nil {
		return nil, err
	}
	invite := &models.Invite{Code: code, CreatorID: owner.ID}
	if err := s.roomRepo.CreateRoom(room, invite); err != nil {
		return nil, err
	}

	return s.roomDTO(room, 1, true, invite.Code), nil
}

// CreateInvite replaces the room's active invite code with a fresh
// one. Any member may regenerate; old codes stop working immediately.
func (s *RoomService) CreateInvite(ctx context.Context, actor *models.User, roomID uint) (string, error) {
	if _, err := s.roomRepo.GetByID(roomID); err != nil {
		if repositories.IsNotFound(err) {
			return "", fmt.Errorf("%w: room", ErrNotFound)
		}
		return "", err
	}
	isMember, err := s.roomRepo.IsMember(roomID, actor.ID)
	if err != nil {
		return "", err
	}
	if !isMember {
		return "", ErrNotRoomMember
	}

	code, err := utils.GenerateInviteCode()
	if err != nil {
		return "", err
	}
	invite := &models.Invite{RoomID: roomID, Code: code, CreatorID: actor.ID}
	if err := s.roomRepo.ReplaceInvite(invite); err != nil {
		return "", err
	}
	return invite.Code, nil
}

type JoinRoomResult struct {
	Room          *RoomDTO `json:"room"`
	AlreadyMember bool     `json:"already_member"`
}

// JoinByCode redeems an invite code. Codes are reusable; joining a
// room you already belong to succeeds without side effects.
func (s *RoomService) JoinByCode(ctx context.Context, actor *models.User, code string) (*JoinRoomResult, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: invite code is empty", ErrValidation)
	}

	invite, err := s.roomRepo.GetInviteByCode(code)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, ErrInvalidCode
		}
		return nil, err
	}
	room, err := s.roomRepo.GetByID(invite.RoomID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, ErrInvalidCode
		}
		return nil, err
	}

	isMember, err := s.roomRepo.IsMember(room.ID, actor.ID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		if err := s.roomRepo.ConsumeInvite(room.ID, actor.ID, invite.Code); err != nil {
			return nil, err
		}
	}

	count, err := s.roomRepo.MemberCount(room.ID)
	if err != nil {
		return nil, err
	}
	return &JoinRoomResult{
		Room:          s.roomDTO(room, count, true, ""),
		AlreadyMember: isMember,
	}, nil
}

// InviteFriend adds a friend straight into a room, bypassing the code
// flow. Requires the actor to be a member and the target an accepted
// friend.
func (s *RoomService) InviteFriend(ctx context.Context, actor *models.User, roomID uint, friendID uint) error {
	if _, err := s.roomRepo.GetByID(roomID); err != nil {
		if repositories.IsNotFound(err) {
			return fmt.Errorf("%w: room", ErrNotFound)
		}
		return err
	}
	isMember, err := s.roomRepo.IsMember(roomID, actor.ID)
	if err != nil {
		return err
	}
	if !isMember {
		return ErrNotRoomMember
	}

	if _, err := s.userRepo.GetByID(friendID); err != nil {
		if repositories.IsNotFound(err) {
			return fmt.Errorf("%w: user", ErrNotFound)
		}
		return err
	}
	areFriends, err := s.friendRepo.AreFriends(actor.ID, friendID)
	if err != nil {
		return err
	}
	if !areFriends {
		return ErrNotFriends
	}

	alreadyIn, err := s.roomRepo.IsMember(roomID, friendID)
	if err != nil {
		return err
	}
	if alreadyIn {
		return nil
	}
	return s.roomRepo.AddMember(roomID, friendID)
}

// ListRooms returns the actor's rooms with their invite codes, or the
// public directory (no codes) when unauthenticated.
func (s *RoomService) ListRooms(ctx context.Context, actor *models.User) ([]*RoomDTO, error) {
	var (
		rooms []models.Room
		err   error
	)
	if actor != nil {
		rooms, err = s.roomRepo.ListForUser(actor.ID, maxRoomsListed)
	} else {
		rooms, err = s.roomRepo.ListPublic(maxRoomsListed)
	}
	if err != nil {
		return nil, err
	}

	dtos := make([]*RoomDTO, 0, len(rooms))
	for i := range rooms {
		room := &rooms[i]
		count, err := s.roomRepo.MemberCount(room.ID)
		if err != nil {
			return nil, err
		}
		code := ""
		if actor != nil {
			if invite, err := s.roomRepo.GetInviteByRoom(room.ID); err == nil {
				code = invite.Code
			}
		}
		dtos = append(dtos, s.roomDTO(room, count, actor != nil, code))
	}
	return dtos, nil
}
