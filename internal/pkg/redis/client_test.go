package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *Client {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return New(rdb)
}

func TestClient_NextSeq(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()

	t.Run("generates incrementing values", func(t *testing.T) {
		id1, err := client.NextSeq(ctx, "chan:general")
		require.NoError(t, err)
		assert.Equal(t, int64(1), id1)

		id2, err := client.NextSeq(ctx, "chan:general")
		require.NoError(t, err)
		assert.Equal(t, id1+1, id2)
	})

	t.Run("localities are independent", func(t *testing.T) {
		_, err := client.NextSeq(ctx, "room:7")
		require.NoError(t, err)

		id, err := client.NextSeq(ctx, "room:8")
		require.NoError(t, err)
		assert.Equal(t, int64(1), id)
	})
}

func TestClient_PeekSeq(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()

	val, err := client.PeekSeq(ctx, "chan:memes")
	require.NoError(t, err)
	assert.Equal(t, int64(0), val)

	_, err = client.NextSeq(ctx, "chan:memes")
	require.NoError(t, err)

	val, err = client.PeekSeq(ctx, "chan:memes")
	require.NoError(t, err)
	assert.Equal(t, int64(1), val)
}

func TestClient_Presence(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, client.TouchPresence(ctx, 1, now))
	require.NoError(t, client.TouchPresence(ctx, 2, now.Add(-30*time.Second)))
	require.NoError(t, client.TouchPresence(ctx, 3, now.Add(-2*time.Second)))

	online, err := client.OnlineUserIDs(ctx, now.Add(-15*time.Second))
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{1, 3}, online)
}

func TestClient_PresenceHeartbeatRefreshes(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()
	now := time.Now()

	// Stale heartbeat, then a fresh one for the same user.
	require.NoError(t, client.TouchPresence(ctx, 5, now.Add(-time.Minute)))
	require.NoError(t, client.TouchPresence(ctx, 5, now))

	online, err := client.OnlineUserIDs(ctx, now.Add(-15*time.Second))
	require.NoError(t, err)
	assert.Equal(t, []uint{5}, online)
}

func TestClient_RemovePresence(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, client.TouchPresence(ctx, 9, now))
	require.NoError(t, client.RemovePresence(ctx, 9))

	online, err := client.OnlineUserIDs(ctx, now.Add(-15*time.Second))
	require.NoError(t, err)
	assert.Empty(t, online)
}
