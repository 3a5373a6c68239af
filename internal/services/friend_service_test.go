package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFriendRequestLifecycle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.newUser("alice")
	bob := e.newUser("bob")

	req, err := e.friend.SendRequest(ctx, alice, "bob")
	require.NoError(t, err)
	assert.Equal(t, "pending", req.Status)
	assert.Equal(t, "alice", req.FromUsername)

	// The target sees it; the sender does not.
	pending, err := e.friend.ListRequests(ctx, bob)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	pendingForAlice, err := e.friend.ListRequests(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, pendingForAlice)

	// Only the target can respond.
	require.ErrorIs(t, e.friend.Respond(ctx, alice, req.ID, true), ErrForbidden)
	require.NoError(t, e.friend.Respond(ctx, bob, req.ID, true))

	// Friendship is symmetric.
	aliceFriends, err := e.friend.ListFriends(ctx, alice)
	require.NoError(t, err)
	require.Len(t, aliceFriends, 1)
	assert.Equal(t, "bob", aliceFriends[0].Username)
	bobFriends, err := e.friend.ListFriends(ctx, bob)
	require.NoError(t, err)
	require.Len(t, bobFriends, 1)
	assert.Equal(t, "alice", bobFriends[0].Username)

	// Responding twice conflicts.
	assert.ErrorIs(t, e.friend.Respond(ctx, bob, req.ID, false), ErrConflict)
}

func TestFriendRequestValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.newUser("alice")
	bob := e.newUser("bob")

	_, err := e.friend.SendRequest(ctx, alice, "alice")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = e.friend.SendRequest(ctx, alice, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = e.friend.SendRequest(ctx, alice, "bob")
	require.NoError(t, err)

	// Duplicate pending, in either direction.
	_, err = e.friend.SendRequest(ctx, alice, "bob")
	assert.ErrorIs(t, err, ErrDuplicateRequest)
	_, err = e.friend.SendRequest(ctx, bob, "alice")
	assert.ErrorIs(t, err, ErrDuplicateRequest)
}

func TestFriendRequestAfterDecline(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.newUser("alice")
	bob := e.newUser("bob")

	req, err := e.friend.SendRequest(ctx, alice, "bob")
	require.NoError(t, err)
	require.NoError(t, e.friend.Respond(ctx, bob, req.ID, false))

	friends, err := e.friend.ListFriends(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, friends)

	// A declined history does not block a fresh request.
	_, err = e.friend.SendRequest(ctx, alice, "bob")
	assert.NoError(t, err)
}

func TestAlreadyFriends(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.newUser("alice")
	bob := e.newUser("bob")
	e.befriend(alice, bob)

	_, err := e.friend.SendRequest(ctx, bob, "alice")
	assert.ErrorIs(t, err, ErrAlreadyFriends)
}
