package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/frikords/server/internal/services"
)

type UserHandler struct {
	UserService     *services.UserService
	PresenceService *services.PresenceService
}

func NewUserHandler(userService *services.UserService, presenceService *services.PresenceService) *UserHandler {
	return &UserHandler{
		UserService:     userService,
		PresenceService: presenceService,
	}
}

func (h *UserHandler) Profile(c *gin.Context) {
	profile, err := h.UserService.Profile(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *UserHandler) Settings(c *gin.Context) {
	c.JSON(http.StatusOK, h.UserService.Settings(c.Request.Context(), currentUser(c)))
}

func (h *UserHandler) UpdateSettings(c *gin.Context) {
	req := services.SettingsRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	user, err := h.UserService.UpdateSettings(c.Request.Context(), currentUser(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UploadAvatar(c *gin.Context) {
	req := struct {
		Image string `json:"image" binding:"required"`
	}{}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	url, err := h.UserService.UploadAvatar(c.Request.Context(), currentUser(c), req.Image)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"avatar_url": url})
}

// Online lists currently active users. Public, like the channel feed.
func (h *UserHandler) Online(c *gin.Context) {
	users, err := h.PresenceService.Online(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}
