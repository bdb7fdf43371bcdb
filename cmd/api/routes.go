package main

import (
	"database/sql"
	"net/http"
	"time"

	"portfolio-api/internal/chat"
	"portfolio-api/internal/httpapi"
	"portfolio-api/internal/ratelimit"
	"portfolio-api/internal/rbac"
	"portfolio-api/internal/telephony"
	"portfolio-api/pkg/utils"

	"github.com/gin-gonic/gin"
)

type routeDeps struct {
	DB          *sql.DB
	AuthMW      gin.HandlerFunc
	Handlers    httpapi.Handlers
	Voice       httpapi.VoiceHandler
	Chat        chat.Handler
	ChatLimiter ratelimit.Limiter

	// Webhook is nil when no provider secret is configured.
	Webhook *telephony.WebhookHandler
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, d routeDeps) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		if d.DB != nil {
			if err := utils.HealthCheck(c.Request.Context(), d.DB, 2*time.Second); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "db": "down"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Provider webhooks (public, shared-secret verified).
	if d.Webhook != nil {
		r.POST("/webhooks/vapi", d.Webhook.HandleServerMessage)
	}

	// protected API group
	v1 := r.Group("/v1")
	v1.Use(d.AuthMW)
	{
		v1.GET("/me", d.Handlers.Me)
		v1.GET("/voice/ws", d.Voice.ServeWS)

		inquiries := v1.Group("/inquiries")
		{
			inquiries.POST("", d.Handlers.BootstrapInquiry)
			inquiries.PATCH("/:id", d.Handlers.UpdateInquiry)
		}

		v1.POST("/chat", ratelimit.Middleware(d.ChatLimiter), d.Chat.Post)

		// ADMIN routes
		admin := v1.Group("/admin")
		admin.Use(rbac.RequireAnyRole(rbac.RoleAdmin))
		{
			admin.GET("/inquiries", d.Handlers.AdminListInquiries)
			admin.GET("/inquiries/:id", d.Handlers.AdminGetInquiry)
			admin.DELETE("/inquiries/:id", d.Handlers.AdminDeleteInquiry)
			admin.GET("/reports/inquiries", d.Handlers.AdminInquirySummary)
		}
	}
}
