package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/frikords/server/internal/services"
)

type DMHandler struct {
	DMService *services.DMService
}

func NewDMHandler(dmService *services.DMService) *DMHandler {
	return &DMHandler{DMService: dmService}
}

func (h *DMHandler) Send(c *gin.Context) {
	req := struct {
		ReceiverID uint   `json:"receiver_id" binding:"required"`
		Content    string `json:"content" binding:"required"`
	}{}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	dm, err := h.DMService.Send(c.Request.Context(), currentUser(c), req.ReceiverID, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dm)
}

func (h *DMHandler) History(c *gin.Context) {
	otherID, err := strconv.ParseUint(c.Param("user_id"), 10, 32)
	if err != nil {
		badRequest(c, "invalid user id")
		return
	}
	since, _ := strconv.ParseInt(c.Query("since"), 10, 64)
	limit, _ := strconv.Atoi(c.Query("limit"))

	msgs, err := h.DMService.History(c.Request.Context(), currentUser(c), uint(otherID), since, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

func (h *DMHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "invalid message id")
		return
	}

	if err := h.DMService.Delete(c.Request.Context(), currentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
