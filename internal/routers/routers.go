package routers

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/frikords/server/internal/config"
	"github.com/frikords/server/internal/handlers"
	"github.com/frikords/server/internal/metrics"
	"github.com/frikords/server/internal/middlewares"
	"github.com/frikords/server/internal/services"
	"github.com/frikords/server/internal/utils"
	"github.com/frikords/server/pkg/logger"
)

type Handlers struct {
	Auth    *handlers.AuthHandler
	Message *handlers.MessageHandler
	Room    *handlers.RoomHandler
	Friend  *handlers.FriendHandler
	DM      *handlers.DMHandler
	User    *handlers.UserHandler
	Admin   *handlers.AdminHandler
}

// SetupRoutes wires the full HTTP surface onto the engine.
func SetupRoutes(
	r *gin.Engine,
	cfg *config.Config,
	log *logger.Logger,
	pool *utils.WorkerPool,
	authService *services.AuthService,
	presenceService *services.PresenceService,
	h *Handlers,
) {
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Authorization"}
	r.Use(cors.New(corsCfg))
	r.Use(middlewares.Trace(log))
	r.Use(metrics.GinMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.Static(cfg.Avatar.BaseURL, cfg.Avatar.Dir)

	// Everything below queues through the worker pool.
	r.Use(middlewares.Async(pool))

	requireAuth := middlewares.RequireAuth(authService, presenceService)
	optionalAuth := middlewares.OptionalAuth(authService, presenceService)

	api := r.Group("/api/v1")

	auth := api.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/logout", requireAuth, h.Auth.Logout)
		auth.GET("/me", requireAuth, h.Auth.Me)
	}

	// Channel history and the online list are public reads; room
	// history needs the optional token to prove membership.
	api.GET("/messages", optionalAuth, h.Message.List)
	api.GET("/online", optionalAuth, h.User.Online)
	api.GET("/rooms", optionalAuth, h.Room.List)
	api.GET("/profile/:username", h.User.Profile)

	authed := api.Group("")
	authed.Use(requireAuth)
	{
		authed.POST("/messages", h.Message.Send)
		authed.PATCH("/messages/:id", h.Message.Edit)
		authed.DELETE("/messages/:id", h.Message.Delete)
		authed.POST("/messages/:id/reactions", h.Message.React)

		authed.POST("/rooms", h.Room.Create)
		authed.POST("/rooms/join", h.Room.Join)
		authed.POST("/rooms/:id/invite", h.Room.Regenerate)
		authed.POST("/rooms/:id/invite_friend", h.Room.InviteFriend)

		authed.GET("/friends", h.Friend.ListFriends)
		authed.POST("/friends/requests", h.Friend.SendRequest)
		authed.GET("/friends/requests", h.Friend.ListRequests)
		authed.POST("/friends/requests/:id/respond", h.Friend.Respond)

		authed.POST("/dm", h.DM.Send)
		authed.GET("/dm/:user_id", h.DM.History)
		authed.DELETE("/dm/messages/:id", h.DM.Delete)

		authed.GET("/settings", h.User.Settings)
		authed.POST("/settings", h.User.UpdateSettings)
		authed.POST("/avatar", h.User.UploadAvatar)
	}

	admin := api.Group("/admin")
	admin.Use(requireAuth, middlewares.RequireAdmin())
	{
		admin.GET("/stats", h.Admin.Stats)
		admin.GET("/users", h.Admin.Users)
		admin.POST("/users/:id/ban", h.Admin.SetBanned)
		admin.POST("/users/:id/badge", h.Admin.SetBadge)
		admin.GET("/messages", h.Admin.Messages)
		admin.DELETE("/messages/:id", h.Admin.ClearMessage)
		admin.POST("/messages/clear", h.Admin.ClearLocality)
		admin.GET("/logs", h.Admin.Logs)
	}
}
