package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig(env string) Config {
	return Config{
		App:    AppConfig{Env: env, Port: 8080},
		DB:     DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "portfolio"},
		Auth:   AuthConfig{JWTSecret: "secret", JWTIssuer: "iss", JWTAudience: "aud"},
		Gemini: GeminiConfig{APIKey: "key"},
		Voice:  VoiceConfig{MaxDurationSeconds: 180},
		Chat:   ChatConfig{RateLimit: 10},
	}
}

func TestLoad_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_ProductionRequiresSSLMode(t *testing.T) {
	c := validConfig("production")
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE")
	}
}

func TestValidate_LocalDefaults(t *testing.T) {
	c := validConfig("local")
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
	if c.Chat.RateWindow != time.Minute {
		t.Fatalf("expected 1m chat window default, got %v", c.Chat.RateWindow)
	}
	if c.Voice.ExtractionTimeout != 30*time.Second {
		t.Fatalf("expected 30s extraction timeout, got %v", c.Voice.ExtractionTimeout)
	}
	if c.RedisAddr() != "" {
		t.Fatalf("expected empty redis addr when host unset")
	}
}

func TestFromViper_AppliesDefaultsAndOverrides(t *testing.T) {
	v := newViper()
	v.Set("APP_ENV", "dev")
	v.Set("DB_HOST", "db")
	v.Set("DB_USER", "app")
	v.Set("DB_NAME", "portfolio")
	v.Set("JWT_SECRET", "s")
	v.Set("GEMINI_API_KEY", "g")
	v.Set("REDIS_HOST", "cache")

	c, err := fromViper(v)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if c.App.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", c.App.Port)
	}
	if c.Voice.MaxDurationSeconds != 180 {
		t.Fatalf("expected 180s ceiling, got %d", c.Voice.MaxDurationSeconds)
	}
	if c.Gemini.Model != "gemini-2.0-flash" {
		t.Fatalf("unexpected model %q", c.Gemini.Model)
	}
	if c.RedisAddr() != "cache:6379" {
		t.Fatalf("unexpected redis addr %q", c.RedisAddr())
	}
	if !c.Privacy.RedactPII {
		t.Fatalf("expected PII redaction on by default")
	}
}

func TestFromViper_CollectsParseErrors(t *testing.T) {
	v := newViper()
	v.Set("APP_PORT", "eighty")
	v.Set("CHAT_RATE_LIMIT", "lots")

	_, err := fromViper(v)
	if err == nil {
		t.Fatalf("expected parse errors")
	}
	if !strings.Contains(err.Error(), "APP_PORT") || !strings.Contains(err.Error(), "CHAT_RATE_LIMIT") {
		t.Fatalf("expected both keys reported, got %v", err)
	}
}

func TestValidate_WebhookNeedsMetadataKey(t *testing.T) {
	c := validConfig("local")
	c.Vapi.WebhookSecret = "hook"
	err := c.Validate()
	if err == nil || !strings.Contains(err.Error(), "VAPI_METADATA_KEY") {
		t.Fatalf("expected VAPI_METADATA_KEY error, got %v", err)
	}
	c.Vapi.MetadataKey = "sign"
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}
