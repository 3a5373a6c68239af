package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/frikords/server/internal/models"
)

func sendChannel(t *testing.T, e *env, author *models.User, content string) *MessageDTO {
	t.Helper()
	msg, err := e.msg.SendMessage(context.Background(), author, "127.0.0.1", &SendMessageRequest{
		Channel: "general",
		Content: content,
	})
	require.NoError(t, err)
	return msg
}

func TestSendMessageAssignsIncreasingSeq(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.newUser("alice")

	var lastSeq int64
	for i := 0; i < 5; i++ {
		msg, err := e.msg.SendMessage(ctx, alice, "127.0.0.1", &SendMessageRequest{
			Channel: "general",
			Content: fmt.Sprintf("hello %d", i),
		})
		require.NoError(t, err)
		assert.Greater(t, msg.SeqID, lastSeq)
		lastSeq = msg.SeqID
	}
}

func TestSendMessageLocalitiesAreIndependent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.newUser("alice")

	general, err := e.msg.SendMessage(ctx, alice, "127.0.0.1", &SendMessageRequest{Channel: "general", Content: "in general"})
	require.NoError(t, err)
	memes, err := e.msg.SendMessage(ctx, alice, "127.0.0.1", &SendMessageRequest{Channel: "memes", Content: "in memes"})
	require.NoError(t, err)

	// Each channel starts its own counter at 1.
	assert.Equal(t, int64(1), general.SeqID)
	assert.Equal(t, int64(1), memes.SeqID)
}

func TestSendMessageValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.newUser("alice")

	cases := []struct {
		name string
		req  SendMessageRequest
	}{
		{"unknown channel", SendMessageRequest{Channel: "nope", Content: "hi"}},
		{"empty content", SendMessageRequest{Channel: "general", Content: "   "}},
		{"too long", SendMessageRequest{Channel: "general", Content: strings.Repeat("x", 2001)}},
		{"both channel and room", SendMessageRequest{Channel: "general", RoomID: 1, Content: "hi"}},
		{"neither channel nor room", SendMessageRequest{Content: "hi"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.msg.SendMessage(ctx, alice, "127.0.0.1", &tc.req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestRejectedSendDoesNotAdvanceSeq(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.newUser("alice")

	_, err := e.msg.SendMessage(ctx, alice, "127.0.0.1", &SendMessageRequest{Channel: "general", Content: ""})
	require.Error(t, err)

	msg, err := e.msg.SendMessage(ctx, alice, "127.0.0.1", &SendMessageRequest{Channel: "general", Content: "first"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), msg.SeqID)
}

func TestRoomMessageRequiresMembership(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.newUser("alice")
	mallory := e.newUser("mallory")

	room, err := e.room.CreateRoom(ctx, alice, &CreateRoomRequest{Name: "raid night"})
	require.NoError(t, err)

	_, err = e.msg.SendMessage(ctx, mallory, "127.0.0.1", &SendMessageRequest{RoomID: room.ID, Content: "let me in"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = e.msg.ListMessages(ctx, mallory, ListMessagesQuery{RoomID: room.ID})
	assert.ErrorIs(t, err, ErrForbidden)

	// Room reads are never anonymous.
	_, err = e.msg.ListMessages(ctx, nil, ListMessagesQuery{RoomID: room.ID})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestListMessagesSinceDelta(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.newUser("alice")

	var seqs []int64
	for i := 0; i < 4; i++ {
		msg, err := e.msg.SendMessage(ctx, alice, "127.0.0.1", &SendMessageRequest{
			Channel: "general",
			Content: fmt.Sprintf("msg %d", i),
		})
		require.NoError(t, err)
		seqs = append(seqs, msg.SeqID)
	}

	// Anonymous channel reads are allowed.
	all, err := e.msg.ListMessages(ctx, nil, ListMessagesQuery{Channel: "general"})
	require.NoError(t, err)
	require.Len(t, all, 4)
	for i := 1; i < len(all); i++ {
		assert.Greater(t, all[i].SeqID, all[i-1].SeqID)
	}

	delta, err := e.msg.ListMessages(ctx, nil, ListMessagesQuery{Channel: "general", SinceSeq: seqs[1]})
	require.NoError(t, err)
	require.Len(t, delta, 2)
	assert.Equal(t, seqs[2], delta[0].SeqID)
	assert.Equal(t, seqs[3], delta[1].SeqID)
}

func TestEditMessageKeepsIDAndSeq(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.newUser("alice")
	bob := e.newUser("bob")

	msg, err := e.msg.SendMessage(ctx, alice, "127.0.0.1", &SendMessageRequest{Channel: "general", Content: "typo"})
	require.NoError(t, err)

	require.ErrorIs(t, e.msg.EditMessage(ctx, bob, msg.ID, "hijack"), ErrForbidden)
	require.NoError(t, e.msg.EditMessage(ctx, alice, msg.ID, "fixed"))

	list, err := e.msg.ListMessages(ctx, nil, ListMessagesQuery{Channel: "general"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, msg.ID, list[0].ID)
	assert.Equal(t, msg.SeqID, list[0].SeqID)
	assert.Equal(t, "fixed", list[0].Content)
	assert.True(t, list[0].Edited)
}

func TestDeleteMessageIsIdempotentAndKeepsOrdering(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.newUser("alice")

	first := sendChannel(t, e, alice, "one")
	second := sendChannel(t, e, alice, "two")
	third := sendChannel(t, e, alice, "three")

	require.NoError(t, e.msg.DeleteMessage(ctx, alice, second.ID))
	require.NoError(t, e.msg.DeleteMessage(ctx, alice, second.ID))

	list, err := e.msg.ListMessages(ctx, nil, ListMessagesQuery{Channel: "general"})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, first.ID, list[0].ID)
	assert.True(t, list[1].IsRemoved)
	assert.Empty(t, list[1].Content)
	assert.Equal(t, third.ID, list[2].ID)

	// Removed messages cannot be edited.
	assert.ErrorIs(t, e.msg.EditMessage(ctx, alice, second.ID, "resurrect"), ErrNotFound)
}

func TestAdminCanDeleteOthersMessages(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.newUser("alice")
	mod := e.newAdmin("mod")

	msg := sendChannel(t, e, alice, "spam")
	bob := e.newUser("bob")
	require.ErrorIs(t, e.msg.DeleteMessage(ctx, bob, msg.ID), ErrForbidden)
	require.NoError(t, e.msg.DeleteMessage(ctx, mod, msg.ID))
}

func TestReactToggle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.newUser("alice")
	bob := e.newUser("bob")

	msg := sendChannel(t, e, alice, "gg")

	res, err := e.msg.React(ctx, bob, msg.ID, "🔥")
	require.NoError(t, err)
	assert.True(t, res.Added)
	assert.Equal(t, 1, res.Count)
	assert.Equal(t, []uint{bob.ID}, res.Users)

	res, err = e.msg.React(ctx, alice, msg.ID, "🔥")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)

	// Toggling off removes only the caller's reaction.
	res, err = e.msg.React(ctx, bob, msg.ID, "🔥")
	require.NoError(t, err)
	assert.False(t, res.Added)
	assert.Equal(t, 1, res.Count)
	assert.Equal(t, []uint{alice.ID}, res.Users)

	_, err = e.msg.React(ctx, bob, msg.ID, "💩")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestReactOnRemovedMessage(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.newUser("alice")
	bob := e.newUser("bob")

	msg := sendChannel(t, e, alice, "soon gone")
	_, err := e.msg.React(ctx, bob, msg.ID, "❤️")
	require.NoError(t, err)

	require.NoError(t, e.msg.DeleteMessage(ctx, alice, msg.ID))

	// New reactions are rejected, the existing one stays readable.
	_, err = e.msg.React(ctx, bob, msg.ID, "👍")
	assert.ErrorIs(t, err, ErrMessageRemoved)

	list, err := e.msg.ListMessages(ctx, nil, ListMessagesQuery{Channel: "general"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Len(t, list[0].Reactions, 1)
	assert.Equal(t, "❤️", list[0].Reactions[0].Emoji)
}

func TestMessageRateLimit(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.newUser("alice")
	e.msg.msgsPer10s = 3

	for i := 0; i < 3; i++ {
		_, err := e.msg.SendMessage(ctx, alice, "127.0.0.1", &SendMessageRequest{
			Channel: "general",
			Content: fmt.Sprintf("burst %d", i),
		})
		require.NoError(t, err)
	}
	_, err := e.msg.SendMessage(ctx, alice, "127.0.0.1", &SendMessageRequest{Channel: "general", Content: "over"})
	assert.True(t, errors.Is(err, ErrRateLimited))
}

// Toggling the same reaction twice always returns to the starting
// state, whatever sequence of users and emoji came before.
func TestReactInvolutionProperty(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.newUser("alice")
	bob := e.newUser("bob")
	carol := e.newUser("carol")

	msg := sendChannel(t, e, alice, "react to me")
	actors := []*models.User{alice, bob, carol}
	emojis := []string{"👍", "❤️", "😂", "🔥"}

	rapid.Check(t, func(rt *rapid.T) {
		actor := actors[rapid.IntRange(0, len(actors)-1).Draw(rt, "actor")]
		emoji := emojis[rapid.IntRange(0, len(emojis)-1).Draw(rt, "emoji")]

		first, err := e.msg.React(ctx, actor, msg.ID, emoji)
		if err != nil {
			rt.Fatalf("first toggle: %v", err)
		}
		second, err := e.msg.React(ctx, actor, msg.ID, emoji)
		if err != nil {
			rt.Fatalf("second toggle: %v", err)
		}

		// A double toggle inverts membership and restores the count
		// to where it stood before the first toggle.
		if first.Added == second.Added {
			rt.Fatalf("toggle did not invert: first=%v second=%v", first.Added, second.Added)
		}
		want := first.Count - 1
		if second.Added {
			want = first.Count + 1
		}
		if second.Count != want {
			rt.Fatalf("count after double toggle: got %d, want %d", second.Count, want)
		}
	})
}

func TestEditReportsBackendFailure(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.newUser("alice")
	msg := sendChannel(t, e, alice, "hello")

	sqlDB, err := e.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	// A dead database is not a missing message.
	err = e.msg.EditMessage(ctx, alice, msg.ID, "changed")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}
