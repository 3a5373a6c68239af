package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnlineWindow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.newUser("alice")
	bob := e.newUser("bob")

	require.NoError(t, e.presence.Touch(ctx, alice.ID))
	require.NoError(t, e.presence.Touch(ctx, bob.ID))

	online, err := e.presence.Online(ctx)
	require.NoError(t, err)
	require.Len(t, online, 2)
	// Sorted by username.
	assert.Equal(t, "alice", online[0].Username)
	assert.Equal(t, "bob", online[1].Username)
}

func TestStaleHeartbeatDropsOut(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.newUser("alice")
	bob := e.newUser("bob")

	// Alice's heartbeat is older than the 15s window.
	require.NoError(t, e.presence.rdb.TouchPresence(ctx, alice.ID, time.Now().Add(-time.Minute)))
	require.NoError(t, e.presence.Touch(ctx, bob.ID))

	online, err := e.presence.Online(ctx)
	require.NoError(t, err)
	require.Len(t, online, 1)
	assert.Equal(t, "bob", online[0].Username)

	// A fresh heartbeat brings her back.
	require.NoError(t, e.presence.Touch(ctx, alice.ID))
	online, err = e.presence.Online(ctx)
	require.NoError(t, err)
	assert.Len(t, online, 2)
}

func TestForgetRemovesImmediately(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.newUser("alice")

	require.NoError(t, e.presence.Touch(ctx, alice.ID))
	require.NoError(t, e.presence.Forget(ctx, alice.ID))

	online, err := e.presence.Online(ctx)
	require.NoError(t, err)
	assert.Empty(t, online)
}

func TestBannedUsersHiddenFromOnlineList(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.newUser("alice")
	admin := e.newAdmin("mod")

	require.NoError(t, e.presence.Touch(ctx, alice.ID))
	require.NoError(t, e.admin.SetBanned(ctx, admin, alice.ID, true))

	online, err := e.presence.Online(ctx)
	require.NoError(t, err)
	assert.Empty(t, online)
}
