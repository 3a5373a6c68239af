package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/frikords/server/internal/services"
)

type AuthHandler struct {
	AuthService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{AuthService: authService}
}

func (h *AuthHandler) Register(c *gin.Context) {
	req := services.RegisterRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	resp, err := h.AuthService.Register(c.Request.Context(), c.ClientIP(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *AuthHandler) Login(c *gin.Context) {
	req := services.LoginRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	resp, err := h.AuthService.Login(c.Request.Context(), c.ClientIP(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	token, _ := c.Get("token")
	tokenStr, _ := token.(string)
	user := currentUser(c)

	if err := h.AuthService.Logout(c.Request.Context(), user, tokenStr); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Me returns the account behind the presented token, used by clients
// to restore a session.
func (h *AuthHandler) Me(c *gin.Context) {
	user := currentUser(c)
	c.JSON(http.StatusOK, services.NewUserDTO(user))
}
