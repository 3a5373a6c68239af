package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	resp, err := e.auth.Register(ctx, "127.0.0.1", &RegisterRequest{
		Username:     "alice",
		Email:        "alice@example.com",
		Password:     "correcthorse",
		FavoriteGame: "Quake",
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Empty(t, resp.Token, "registration must not issue a session")

	login, err := e.auth.Login(ctx, "127.0.0.1", &LoginRequest{Email: "alice@example.com", Password: "correcthorse"})
	require.NoError(t, err)
	require.NotEmpty(t, login.Token)
	assert.Len(t, login.Token, 64)
	assert.Equal(t, "Quake", login.User.FavoriteGame)

	user, err := e.auth.ValidateToken(login.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.newUser("alice")

	_, err := e.auth.Register(ctx, "127.0.0.1", &RegisterRequest{
		Username: "alice", Email: "other@example.com", Password: "correcthorse",
	})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	taken, err := e.users.GetByUsername("alice")
	require.NoError(t, err)
	_, err = e.auth.Register(ctx, "127.0.0.1", &RegisterRequest{
		Username: "alice2", Email: taken.Email, Password: "correcthorse",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginBadCredentials(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.newUser("alice")

	_, err := e.auth.Login(ctx, "127.0.0.1", &LoginRequest{Email: alice.Email, Password: "wrongwrongwrong"})
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = e.auth.Login(ctx, "127.0.0.1", &LoginRequest{Email: "nobody@example.com", Password: "whatever123"})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestLogoutRevokesToken(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.newUser("alice")

	login, err := e.auth.Login(ctx, "127.0.0.1", &LoginRequest{Email: alice.Email, Password: "hunter2hunter2"})
	require.NoError(t, err)

	require.NoError(t, e.auth.Logout(ctx, alice, login.Token))
	_, err = e.auth.ValidateToken(login.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestEachLoginIssuesIndependentSession(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.newUser("alice")

	first, err := e.auth.Login(ctx, "127.0.0.1", &LoginRequest{Email: alice.Email, Password: "hunter2hunter2"})
	require.NoError(t, err)
	second, err := e.auth.Login(ctx, "127.0.0.1", &LoginRequest{Email: alice.Email, Password: "hunter2hunter2"})
	require.NoError(t, err)
	require.NotEqual(t, first.Token, second.Token)

	// Logging out one device leaves the other intact.
	require.NoError(t, e.auth.Logout(ctx, alice, first.Token))
	_, err = e.auth.ValidateToken(second.Token)
	assert.NoError(t, err)
}

func TestBannedUserCannotAuthenticate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.newUser("alice")
	admin := e.newAdmin("mod")

	login, err := e.auth.Login(ctx, "127.0.0.1", &LoginRequest{Email: alice.Email, Password: "hunter2hunter2"})
	require.NoError(t, err)

	require.NoError(t, e.admin.SetBanned(ctx, admin, alice.ID, true))

	// Existing tokens stop resolving and new logins are refused.
	_, err = e.auth.ValidateToken(login.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = e.auth.Login(ctx, "127.0.0.1", &LoginRequest{Email: alice.Email, Password: "hunter2hunter2"})
	assert.ErrorIs(t, err, ErrAccountBanned)
}

func TestAuthRateLimit(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.auth.authPerMin = 2

	for i := 0; i < 2; i++ {
		e.auth.Login(ctx, "10.0.0.9", &LoginRequest{Email: "nobody@example.com", Password: "whatever123"})
	}
	_, err := e.auth.Login(ctx, "10.0.0.9", &LoginRequest{Email: "nobody@example.com", Password: "whatever123"})
	assert.ErrorIs(t, err, ErrRateLimited)

	// Other addresses are unaffected.
	_, err = e.auth.Login(ctx, "10.0.0.10", &LoginRequest{Email: "nobody@example.com", Password: "whatever123"})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
