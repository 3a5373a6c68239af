package services

import (
	"errors"
	"fmt"
)

// Base errors; handlers map each family to one HTTP status.
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("invalid input")
	ErrConflict        = errors.New("conflict")
	ErrRateLimited     = errors.New("too many requests")
)

// Business-rule errors, wrapping the base they report as.
var (
	ErrBadCredentials   = fmt.Errorf("%w: invalid email or password", ErrUnauthenticated)
	ErrAccountBanned    = fmt.Errorf("%w: account banned", ErrForbidden)
	ErrNotRoomMember    = fmt.Errorf("%w: not a member of this room", ErrForbidden)
	ErrNotFriends       = fmt.Errorf("%w: users are not friends", ErrForbidden)
	ErrNotAdmin         = fmt.Errorf("%w: admin access required", ErrForbidden)
	ErrCannotBanAdmin   = fmt.Errorf("%w: cannot ban an administrator", ErrForbidden)
	ErrInvalidCode      = fmt.Errorf("%w: unknown invite code", ErrNotFound)
	ErrMessageRemoved   = fmt.Errorf("%w: message has been removed", ErrValidation)
	ErrInvalidLocality  = fmt.Errorf("%w: exactly one of channel or room_id must be set", ErrValidation)
	ErrDuplicateRequest = fmt.Errorf("%w: friend request already pending", ErrConflict)
	ErrAlreadyFriends   = fmt.Errorf("%w: already friends", ErrConflict)
	ErrUsernameTaken    = fmt.Errorf("%w: username already taken", ErrConflict)
	ErrEmailTaken       = fmt.Errorf("%w: email already registered", ErrConflict)
)
