package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"portfolio-api/internal/audit"
	"portfolio-api/internal/auth"
	"portfolio-api/internal/chat"
	"portfolio-api/internal/config"
	"portfolio-api/internal/extraction"
	"portfolio-api/internal/httpapi"
	"portfolio-api/internal/inquiry"
	"portfolio-api/internal/llm"
	"portfolio-api/internal/ratelimit"
	"portfolio-api/internal/redact"
	"portfolio-api/internal/reporting"
	"portfolio-api/internal/telephony"
	"portfolio-api/internal/voice"
	"portfolio-api/pkg/logger"
	"portfolio-api/pkg/utils"

	"github.com/dimiro1/banner"
	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const version = "dev"

// voiceSlotTTL bounds how long a crashed process can hold a visitor's slot.
const voiceSlotTTL = 30 * time.Minute

func printBanner() {
	tpl := "{{ .Title \"portfolio\" \"\" 0 }}\nportfolio-api " + version + "\n"
	banner.Init(os.Stdout, true, false, bytes.NewBufferString(tpl))
}

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	if cfg.IsLocal() {
		printBanner()
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)
	redact.SetEnabled(cfg.Privacy.RedactPII)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := inquiry.Migrate(rootCtx, db); err != nil {
		log.Error("schema migration failed", "err", err)
		os.Exit(1)
	}

	// Redis is optional; without it limits are per-process.
	var (
		chatLimiter ratelimit.Limiter
		voiceSlots  ratelimit.Slots
	)
	if addr := cfg.RedisAddr(); addr != "" {
		rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: addr})
		if err != nil {
			log.Error("redis init failed", "err", err)
			os.Exit(1)
		}
		defer rdb.Close()
		chatLimiter = ratelimit.NewRedis(rdb, "rl:chat", cfg.Chat.RateLimit, cfg.Chat.RateWindow)
		voiceSlots = ratelimit.NewRedisSlots(rdb, "slots:voice", cfg.Voice.MaxSessionsPerUser, voiceSlotTTL)
	} else {
		log.Warn("redis not configured, using in-memory limiters")
		chatLimiter = ratelimit.NewMemory(cfg.Chat.RateLimit, cfg.Chat.RateWindow)
		voiceSlots = ratelimit.NewMemorySlots(cfg.Voice.MaxSessionsPerUser)
	}

	gen, err := llm.NewGeminiClient(rootCtx, cfg.Gemini.APIKey, cfg.Gemini.Model)
	if err != nil {
		log.Error("gemini init failed", "err", err)
		os.Exit(1)
	}

	auditSvc := audit.NewService(audit.NewPostgresRepo(db))
	extractor := extraction.New(gen, logger.Component(log, "extraction"))
	inquirySvc := inquiry.NewService(inquiry.NewPostgresRepo(db), extractor, auditSvc, logger.Component(log, "inquiry"))
	chatSvc := chat.NewService(gen, logger.Component(log, "chat"))

	deps := routeDeps{
		DB:     db,
		AuthMW: auth.RequireAccessToken(authManager),
		Handlers: httpapi.Handlers{
			Inquiries: inquirySvc,
			Reports:   reporting.NewService(reporting.NewPostgresRepo(db)),
			Voice: httpapi.VoiceClientConfig{
				PublicKey:          cfg.Voice.PublicKey,
				AssistantID:        cfg.Voice.AssistantID,
				MaxDurationSeconds: cfg.Voice.MaxDurationSeconds,
			},
		},
		Voice: httpapi.VoiceHandler{
			Upgrader:   httpapi.NewUpgrader(cfg.App.PublicOrigin),
			Slots:      voiceSlots,
			Extractor:  extractor,
			Store:      inquirySvc,
			Duplicates: auditSvc,
			Options: voice.Options{
				AssistantID:       cfg.Voice.AssistantID,
				VoiceID:           cfg.Voice.VoiceID,
				CeilingSeconds:    cfg.Voice.MaxDurationSeconds,
				ExtractionTimeout: cfg.Voice.ExtractionTimeout,
				NavigateTo:        "/",
				MetadataKey:       []byte(cfg.Vapi.MetadataKey),
			},
			BaseContext: rootCtx,
		},
		Chat:        chat.Handler{Service: chatSvc},
		ChatLimiter: chatLimiter,
	}
	if cfg.Vapi.WebhookSecret != "" {
		deps.Webhook = &telephony.WebhookHandler{
			Secret:      cfg.Vapi.WebhookSecret,
			MetadataKey: []byte(cfg.Vapi.MetadataKey),
			Inquiries:   inquirySvc,
		}
	} else {
		log.Info("voice provider webhook disabled, no secret configured")
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	registerRoutes(r, deps)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	// Hijacked voice sockets are not tracked by Shutdown; they close when
	// rootCtx is cancelled and finish their in-flight work.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
