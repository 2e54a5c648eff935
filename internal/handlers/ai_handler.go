package handlers

import (
	"net/http"

	"go-stock-ledger/internal/config"

	"github.com/gin-gonic/gin"
)

type AskRequest struct {
	Message string `json:"message" binding:"required"`
}

// --- POST: /ask ---
func (h *Handler) AskAI(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Message is required"})
		return
	}

	if h.Assistant == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Assistant is not configured"})
		return
	}

	reply, err := h.Assistant.Ask(c.Request.Context(), req.Message)
	if err != nil {
		config.LogError(h.Log, "handlers", "AskAI", "assistant request", nil, err)
		c.JSON(http.StatusBadGateway, gin.H{"message": "Assistant request failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reply": reply})
}
