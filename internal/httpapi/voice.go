package httpapi

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"portfolio-api/internal/auth"
	"portfolio-api/internal/ratelimit"
	"portfolio-api/internal/voice"
	"portfolio-api/internal/voice/wsbridge"
	"portfolio-api/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// VoiceHandler upgrades GET /v1/voice/ws and runs one voice controller per socket.
type VoiceHandler struct {
	Upgrader   websocket.Upgrader
	Slots      ratelimit.Slots
	Extractor  voice.Extractor
	Store      voice.InquiryStore
	Duplicates voice.DuplicateRecorder
	Options    voice.Options

	// BaseContext outlives requests; cancelling it closes every socket.
	BaseContext context.Context
}

// NewUpgrader allows the configured public origin, or same-host requests when
// none is set.
func NewUpgrader(publicOrigin string) websocket.Upgrader {
	allowed := strings.TrimRight(strings.TrimSpace(publicOrigin), "/")
	return websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			if allowed != "" {
				return strings.EqualFold(strings.TrimRight(origin, "/"), allowed)
			}
			u, err := url.Parse(origin)
			return err == nil && strings.EqualFold(u.Host, r.Host)
		},
	}
}

func (h VoiceHandler) ServeWS(c *gin.Context) {
	log := logger.FromGin(c)
	id, err := auth.IdentityFrom(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if h.Slots != nil {
		ok, err := h.Slots.Acquire(c.Request.Context(), id.UserID)
		switch {
		case err != nil:
			log.Warn("voice slot check unavailable", "err", err)
		case !ok:
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "a voice session is already open"})
			return
		default:
			defer func() {
				rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				if err := h.Slots.Release(rctx, id.UserID); err != nil {
					log.Warn("voice slot release failed", "err", err)
				}
			}()
		}
	}

	conn, err := h.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		log.Warn("voice websocket upgrade failed", "err", err)
		return
	}

	base := h.BaseContext
	if base == nil {
		base = context.Background()
	}
	ctx, cancel := context.WithCancel(logger.With(base, log))
	defer cancel()

	sockLog := logger.Component(log, "voice")
	sockLog.Info("voice socket opened", "user_id", id.UserID)
	b := wsbridge.New(conn, sockLog)
	wsbridge.Serve(ctx, b, func(b *wsbridge.Bridge) *voice.Controller {
		return voice.NewController(
			voice.Identity{UserID: id.UserID, DisplayName: auth.DisplayName(c.Request.Context())},
			voice.Deps{
				Adapter:    b,
				Sink:       b,
				Extractor:  h.Extractor,
				Store:      h.Store,
				Duplicates: h.Duplicates,
				Log:        sockLog,
			},
			h.Options,
		)
	})
	sockLog.Info("voice socket closed", "user_id", id.UserID)
}
