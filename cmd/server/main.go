package main

import (
	"context"
	"log"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/frikords/server/internal/audit"
	"github.com/frikords/server/internal/config"
	"github.com/frikords/server/internal/consumer"
	"github.com/frikords/server/internal/handlers"
	"github.com/frikords/server/internal/pkg/redis"
	"github.com/frikords/server/internal/repositories"
	"github.com/frikords/server/internal/routers"
	"github.com/frikords/server/internal/services"
	"github.com/frikords/server/internal/storage"
	"github.com/frikords/server/internal/utils"
	"github.com/frikords/server/pkg/logger"
	"github.com/frikords/server/pkg/mq"
	"github.com/frikords/server/pkg/ratelimit"
)

func main() {
	cfg, err := config.LoadConfig("./config.toml")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	appLog, err := logger.NewLogger(&cfg.Logging)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer appLog.Sync()

	dsn := storage.BuildDSN(cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.DBName)
	db, err := storage.InitPostgres(dsn, cfg.Postgres.MaxIdleConns, cfg.Postgres.MaxOpenConns)
	if err != nil {
		appLog.Fatal("failed to init postgres", zap.Error(err))
	}

	redisClient, err := storage.InitRedis(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.PoolSize, cfg.Redis.MinIdleConns)
	if err != nil {
		appLog.Fatal("failed to init redis", zap.Error(err))
	}
	rdb := redis.New(redisClient)

	pool := utils.NewWorkerPool(cfg.WorkerPool.Size, cfg.WorkerPool.QueueSize)
	pool.Start()
	defer pool.Stop()

	limiter := ratelimit.NewRedisLimiter(redisClient, appLog.Logger, true)

	userRepo := repositories.NewUserRepository(db)
	roomRepo := repositories.NewRoomRepository(db)
	messageRepo := repositories.NewMessageRepository(db)
	dmRepo := repositories.NewDMRepository(db)
	friendRepo := repositories.NewFriendRepository(db)
	logRepo := repositories.NewLogRepository(db)

	// Kafka carries audit entries; without it the recorder degrades
	// to direct database writes.
	kafkaProducer, err := mq.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	if err != nil {
		appLog.Warn("kafka unavailable, audit log degrades to direct writes", zap.Error(err))
		kafkaProducer = nil
	} else {
		defer kafkaProducer.Close()
	}
	recorder := audit.NewRecorder(kafkaProducer, logRepo, appLog)

	if kafkaProducer != nil {
		auditConsumer := consumer.NewAuditConsumer(logRepo, appLog)
		if err := consumer.StartConsumer(context.Background(), cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.Topic, auditConsumer, appLog); err != nil {
			appLog.Warn("failed to start audit consumer", zap.Error(err))
		}
	}

	authService := services.NewAuthService(userRepo, rdb, limiter, cfg.RateLimit.AuthPerMinute)
	presenceService := services.NewPresenceService(userRepo, rdb, cfg.Presence.Window())
	messageService := services.NewMessageService(messageRepo, roomRepo, rdb, limiter, recorder, cfg.RateLimit.MessagesPer10s)
	roomService := services.NewRoomService(roomRepo, friendRepo, userRepo, limiter, cfg.RateLimit.RoomsPerHour)
	friendService := services.NewFriendService(friendRepo, userRepo)
	dmService := services.NewDMService(dmRepo, friendRepo, userRepo, rdb, limiter, cfg.RateLimit.DMsPer10s)
	userService := services.NewUserService(userRepo, messageRepo, &cfg.Avatar)
	adminService := services.NewAdminService(userRepo, messageRepo, roomRepo, logRepo, presenceService, recorder)

	h := &routers.Handlers{
		Auth:    handlers.NewAuthHandler(authService),
		Message: handlers.NewMessageHandler(messageService),
		Room:    handlers.NewRoomHandler(roomService),
		Friend:  handlers.NewFriendHandler(friendService),
		DM:      handlers.NewDMHandler(dmService),
		User:    handlers.NewUserHandler(userService, presenceService),
		Admin:   handlers.NewAdminHandler(adminService),
	}

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery())

	routers.SetupRoutes(r, cfg, appLog, pool, authService, presenceService, h)

	appLog.Info("server starting", zap.Int("port", cfg.Server.Port))
	if err := r.Run(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
		appLog.Fatal("server exited", zap.Error(err))
	}
}
