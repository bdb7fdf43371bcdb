package chat

import (
	"errors"
	"net/http"

	"portfolio-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Service *Service
}

type request struct {
	Message string        `json:"message"`
	History []HistoryTurn `json:"history"`
}

func (h Handler) Post(c *gin.Context) {
	var req request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	reply, err := h.Service.Reply(c.Request.Context(), req.Message, req.History)
	switch {
	case errors.Is(err, ErrEmptyMessage), errors.Is(err, ErrMessageTooLong):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		logger.FromGin(c).Error("chat reply failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "assistant unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}
