package telephony

import (
	"errors"
	"io"
	"net/http"

	"portfolio-api/internal/errorsx"
	"portfolio-api/internal/extraction"
	"portfolio-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 1 << 20

// WebhookHandler receives provider server messages, verifies them, and hands
// finished calls to the inquiry bootstrap.
//
// No business logic here.
type WebhookHandler struct {
	Secret string
	// MetadataKey verifies the signed user and session ids on the call.
	MetadataKey []byte
	Inquiries   Bootstrapper
}

func (h WebhookHandler) HandleServerMessage(c *gin.Context) {
	log := logger.FromGin(c)

	if h.Inquiries == nil || len(h.MetadataKey) == 0 {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "inquiry service not configured"})
		return
	}
	if err := VerifySecret(h.Secret, c.GetHeader(SecretHeader)); err != nil {
		log.Warn("voice webhook rejected", "err", err)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}
	msg, err := ParseServerMessage(body)
	if err != nil {
		log.Warn("voice webhook parse failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid message"})
		return
	}

	if msg.Type != MessageEndOfCallReport {
		log.Debug("voice webhook ignored", "type", msg.Type, "call_id", msg.Call.ID)
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	req, err := msg.ToBootstrapRequest()
	if err != nil {
		log.Warn("voice webhook missing metadata", "call_id", msg.Call.ID, "err", err)
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	if err := msg.VerifyMetadata(h.MetadataKey); err != nil {
		log.Warn("voice webhook metadata rejected", "call_id", msg.Call.ID, "err", err)
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "untrusted call metadata"})
		return
	}

	rec, err := h.Inquiries.Bootstrap(c.Request.Context(), req)
	switch {
	case errors.Is(err, extraction.ErrEmptyTranscript), errors.Is(err, extraction.ErrNoData):
		// nothing to keep; a 2xx stops provider retries
		log.Info("voice call produced no inquiry", "call_id", msg.Call.ID, "session_id", req.SourceSessionID, "ended_reason", msg.EndedReason, "err", err)
		c.JSON(http.StatusOK, gin.H{"ok": true, "skipped": true})
		return
	case err != nil:
		log.Error("voice call bootstrap failed", "call_id", msg.Call.ID, "session_id", req.SourceSessionID, "reason", errorsx.Reason(err), "err", err)
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "bootstrap failed"})
		return
	}

	log.Info("voice call bootstrapped", "call_id", msg.Call.ID, "inquiry_id", rec.ID, "status", rec.Status)
	c.JSON(http.StatusOK, gin.H{"ok": true, "inquiryId": rec.ID})
}
