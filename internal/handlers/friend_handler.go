package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/frikords/server/internal/services"
)

type FriendHandler struct {
	FriendService *services.FriendService
}

func NewFriendHandler(friendService *services.FriendService) *FriendHandler {
	return &FriendHandler{FriendService: friendService}
}

func (h *FriendHandler) SendRequest(c *gin.Context) {
	req := struct {
		Username string `json:"username" binding:"required"`
	}{}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	dto, err := h.FriendService.SendRequest(c.Request.Context(), currentUser(c), req.Username)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto)
}

func (h *FriendHandler) Respond(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		badRequest(c, "invalid request id")
		return
	}
	req := struct {
		Accept *bool `json:"accept" binding:"required"`
	}{}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	if err := h.FriendService.Respond(c.Request.Context(), currentUser(c), uint(id), *req.Accept); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *FriendHandler) ListFriends(c *gin.Context) {
	friends, err := h.FriendService.ListFriends(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"friends": friends})
}

func (h *FriendHandler) ListRequests(c *gin.Context) {
	requests, err := h.FriendService.ListRequests(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}
