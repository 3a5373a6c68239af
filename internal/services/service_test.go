package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/frikords/server/internal/audit"
	"github.com/frikords/server/internal/config"
	"github.com/frikords/server/internal/models"
	"github.com/frikords/server/internal/pkg/redis"
	"github.com/frikords/server/internal/repositories"
	"github.com/frikords/server/internal/storage"
	"github.com/frikords/server/pkg/logger"
	"github.com/frikords/server/pkg/ratelimit"
)

// env is the full service stack on an in-memory sqlite database and
// a miniredis instance, one per test.
type env struct {
	t  *testing.T
	db *gorm.DB
	mr *miniredis.Miniredis

	users    *repositories.UserRepository
	rooms    *repositories.RoomRepository
	messages *repositories.MessageRepository
	dms      *repositories.DMRepository
	friends  *repositories.FriendRepository
	logs     *repositories.LogRepository

	auth     *AuthService
	msg      *MessageService
	room     *RoomService
	friend   *FriendService
	dm       *DMService
	presence *PresenceService
	user     *UserService
	admin    *AdminService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection so every query sees the same in-memory database.
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, storage.Migrate(db))

	mr := miniredis.RunT(t)
	rdb := redis.New(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))

	limiter := ratelimit.NewRedisLimiter(rdb.Raw(), logger.NewNop().Logger, false)

	e := &env{
		t:        t,
		db:       db,
		mr:       mr,
		users:    repositories.NewUserRepository(db),
		rooms:    repositories.NewRoomRepository(db),
		messages: repositories.NewMessageRepository(db),
		dms:      repositories.NewDMRepository(db),
		friends:  repositories.NewFriendRepository(db),
		logs:     repositories.NewLogRepository(db),
	}
	recorder := audit.NewRecorder(nil, e.logs, logger.NewNop())

	e.auth = NewAuthService(e.users, rdb, limiter, 100)
	e.msg = NewMessageService(e.messages, e.rooms, rdb, limiter, recorder, 100)
	e.room = NewRoomService(e.rooms, e.friends, e.users, limiter, 100)
	e.friend = NewFriendService(e.friends, e.users)
	e.dm = NewDMService(e.dms, e.friends, e.users, rdb, limiter, 100)
	e.presence = NewPresenceService(e.users, rdb, 15*time.Second)
	e.user = NewUserService(e.users, e.messages, &config.AvatarConfig{Dir: t.TempDir(), BaseURL: "/static/avatars"})
	e.admin = NewAdminService(e.users, e.messages, e.rooms, e.logs, e.presence, recorder)
	return e
}

var userSeq int

func (e *env) newUser(name string) *models.User {
	e.t.Helper()
	userSeq++
	ctx := context.Background()
	_, err := e.auth.Register(ctx, "127.0.0.1", &RegisterRequest{
		Username: name,
		Email:    fmt.Sprintf("%s%d@example.com", name, userSeq),
		Password: "hunter2hunter2",
	})
	require.NoError(e.t, err)
	user, err := e.users.GetByUsername(name)
	require.NoError(e.t, err)
	return user
}

func (e *env) newAdmin(name string) *models.User {
	e.t.Helper()
	user := e.newUser(name)
	require.NoError(e.t, e.users.UpdateFields(user.ID, map[string]any{"is_admin": true}))
	user.IsAdmin = true
	return user
}

// befriend creates an accepted edge between two users.
func (e *env) befriend(a, b *models.User) {
	e.t.Helper()
	ctx := context.Background()
	req, err := e.friend.SendRequest(ctx, a, b.Username)
	require.NoError(e.t, err)
	require.NoError(e.t, e.friend.Respond(ctx, b, req.ID, true))
}
