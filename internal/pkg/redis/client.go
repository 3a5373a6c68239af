package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const presenceKey = "presence:online"

// Client wraps the raw Redis client with the two pieces of shared
// state that need atomic mutation: the per-locality message sequence
// and the presence heartbeat set.
type Client struct {
	client *redis.Client
}

func New(client *redis.Client) *Client {
	return &Client{client: client}
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Raw exposes the underlying client for components that manage their
// own keys, such as the rate limiter.
func (c *Client) Raw() *redis.Client {
	return c.client
}

// NextSeq returns the next sequence number for a locality. Redis INCR
// is atomic, so concurrent senders in the same locality always observe
// strictly increasing values with no duplicates.
func (c *Client) NextSeq(ctx context.Context, locality string) (int64, error) {
	key := fmt.Sprintf("seq:%s", locality)
	result, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to generate seq for locality %s: %w", locality, err)
	}
	return result, nil
}

// PeekSeq reads the current sequence value for a locality without
// advancing it. Missing keys read as zero.
func (c *Client) PeekSeq(ctx context.Context, locality string) (int64, error) {
	key := fmt.Sprintf("seq:%s", locality)
	val, err := c.client.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read seq for locality %s: %w", locality, err)
	}
	return val, nil
}

// TouchPresence records a heartbeat for a user at the given instant.
// Presence is a single sorted set scored by heartbeat time; staleness
// is resolved lazily at read time, no sweeper runs.
func (c *Client) TouchPresence(ctx context.Context, userID uint, at time.Time) error {
	member := strconv.FormatUint(uint64(userID), 10)
	err := c.client.ZAdd(ctx, presenceKey, redis.Z{
		Score:  float64(at.UnixMilli()),
		Member: member,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to touch presence for user %d: %w", userID, err)
	}
	return nil
}

// OnlineUserIDs returns the ids of users whose last heartbeat is at or
// after the cutoff.
func (c *Client) OnlineUserIDs(ctx context.Context, cutoff time.Time) ([]uint, error) {
	members, err := c.client.ZRangeByScore(ctx, presenceKey, &redis.ZRangeBy{
		Min: strconv.FormatInt(cutoff.UnixMilli(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read presence set: %w", err)
	}

	ids := make([]uint, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseUint(m, 10, 32)
		if err != nil {
			continue
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

// RemovePresence drops a user from the presence set, used on logout
// and ban.
func (c *Client) RemovePresence(ctx context.Context, userID uint) error {
	member := strconv.FormatUint(uint64(userID), 10)
	if err := c.client.ZRem(ctx, presenceKey, member).Err(); err != nil {
		return fmt.Errorf("failed to remove presence for user %d: %w", userID, err)
	}
	return nil
}
