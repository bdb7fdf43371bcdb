package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration required by the API process.
// Values come from env, optionally overlaid by the file named in CONFIG_FILE.
// No business logic should depend on raw environment variables.
type Config struct {
	App     AppConfig
	DB      DBConfig
	Redis   RedisConfig
	Auth    AuthConfig
	Gemini  GeminiConfig
	Voice   VoiceConfig
	Vapi    VapiConfig
	Chat    ChatConfig
	Privacy PrivacyConfig
}

type AppConfig struct {
	Env  string
	Port int

	// PublicOrigin is the site origin allowed to open the voice websocket.
	// Empty means same-host only.
	PublicOrigin string
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

// RedisConfig is optional. An empty Host selects the in-memory rate limiter.
type RedisConfig struct {
	Host string
	Port int
}

type AuthConfig struct {
	JWTSecret      string
	JWTIssuer      string
	JWTAudience    string
	AccessTokenTTL time.Duration
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type VoiceConfig struct {
	AssistantID string
	PublicKey   string
	VoiceID     string

	// MaxDurationSeconds is the hard call ceiling, mirrored by the server-side timer.
	MaxDurationSeconds int
	ExtractionTimeout  time.Duration

	// MaxSessionsPerUser caps concurrently open voice sockets per visitor.
	MaxSessionsPerUser int
}

type VapiConfig struct {
	// WebhookSecret enables POST /webhooks/vapi when set.
	WebhookSecret string
	// MetadataKey signs the userId and sessionId put on each call.
	MetadataKey string
}

type ChatConfig struct {
	RateLimit  int
	RateWindow time.Duration
}

type PrivacyConfig struct {
	RedactPII bool
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("GEMINI_MODEL", "gemini-2.0-flash")
	v.SetDefault("VOICE_MAX_DURATION_SECONDS", "180")
	v.SetDefault("VOICE_EXTRACTION_TIMEOUT", "30s")
	v.SetDefault("VOICE_MAX_SESSIONS_PER_USER", "1")
	v.SetDefault("CHAT_RATE_LIMIT", "10")
	v.SetDefault("CHAT_RATE_WINDOW", "1m")
	v.SetDefault("PRIVACY_REDACT_PII", true)
	return v
}

func Load() (Config, error) {
	v := newViper()
	if path := strings.TrimSpace(v.GetString("CONFIG_FILE")); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	c := Config{}
	var parseErrs []error
	intVal := func(key string) int {
		n, err := mustInt(v, key)
		if err != nil {
			parseErrs = append(parseErrs, err)
		}
		return n
	}

	c.App.Env = str(v, "APP_ENV")
	c.App.Port = intVal("APP_PORT")
	c.App.PublicOrigin = str(v, "APP_PUBLIC_ORIGIN")

	c.DB.Host = str(v, "DB_HOST")
	c.DB.Port = intVal("DB_PORT")
	c.DB.User = str(v, "DB_USER")
	c.DB.Password = v.GetString("DB_PASSWORD")
	c.DB.Name = str(v, "DB_NAME")
	c.DB.SSLMode = str(v, "DB_SSLMODE")

	c.Redis.Host = str(v, "REDIS_HOST")
	c.Redis.Port = intVal("REDIS_PORT")

	c.Auth.JWTSecret = v.GetString("JWT_SECRET")
	c.Auth.JWTIssuer = str(v, "JWT_ISSUER")
	c.Auth.JWTAudience = str(v, "JWT_AUDIENCE")
	// Optional; default applied in Validate().
	c.Auth.AccessTokenTTL = optDuration(v, "JWT_ACCESS_TTL")

	c.Gemini.APIKey = v.GetString("GEMINI_API_KEY")
	c.Gemini.Model = str(v, "GEMINI_MODEL")

	c.Voice.AssistantID = str(v, "VOICE_ASSISTANT_ID")
	c.Voice.PublicKey = str(v, "VOICE_PUBLIC_KEY")
	c.Voice.VoiceID = str(v, "VOICE_ID")
	c.Voice.MaxDurationSeconds = intVal("VOICE_MAX_DURATION_SECONDS")
	c.Voice.ExtractionTimeout = optDuration(v, "VOICE_EXTRACTION_TIMEOUT")
	c.Voice.MaxSessionsPerUser = intVal("VOICE_MAX_SESSIONS_PER_USER")

	c.Vapi.WebhookSecret = v.GetString("VAPI_WEBHOOK_SECRET")
	c.Vapi.MetadataKey = v.GetString("VAPI_METADATA_KEY")

	c.Chat.RateLimit = intVal("CHAT_RATE_LIMIT")
	c.Chat.RateWindow = optDuration(v, "CHAT_RATE_WINDOW")

	c.Privacy.RedactPII = v.GetBool("PRIVACY_REDACT_PII")

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate reports every configuration problem at once and fills safe defaults.
func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if c.DB.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.DB.Port <= 0 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
	}
	if c.DB.User == "" {
		errs = append(errs, errors.New("DB_USER is required"))
	}
	if c.DB.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if c.DB.SSLMode == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("DB_SSLMODE is required in production"))
		} else {
			c.DB.SSLMode = "disable"
		}
	}
	if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
	}

	if c.Redis.Host != "" && (c.Redis.Port <= 0 || c.Redis.Port > 65535) {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.IsProduction() {
		if c.Auth.JWTIssuer == "" {
			errs = append(errs, errors.New("JWT_ISSUER is required in production"))
		}
		if c.Auth.JWTAudience == "" {
			errs = append(errs, errors.New("JWT_AUDIENCE is required in production"))
		}
	}
	if c.Auth.AccessTokenTTL <= 0 {
		c.Auth.AccessTokenTTL = time.Hour
	}

	if c.Gemini.APIKey == "" {
		errs = append(errs, errors.New("GEMINI_API_KEY is required"))
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.0-flash"
	}

	if c.Voice.MaxDurationSeconds <= 0 {
		errs = append(errs, fmt.Errorf("VOICE_MAX_DURATION_SECONDS must be positive, got %d", c.Voice.MaxDurationSeconds))
	}
	if c.Voice.ExtractionTimeout <= 0 {
		c.Voice.ExtractionTimeout = 30 * time.Second
	}
	if c.Voice.MaxSessionsPerUser <= 0 {
		c.Voice.MaxSessionsPerUser = 1
	}

	if c.Vapi.WebhookSecret != "" && c.Vapi.MetadataKey == "" {
		errs = append(errs, errors.New("VAPI_METADATA_KEY is required when VAPI_WEBHOOK_SECRET is set"))
	}

	if c.Chat.RateLimit <= 0 {
		errs = append(errs, fmt.Errorf("CHAT_RATE_LIMIT must be positive, got %d", c.Chat.RateLimit))
	}
	if c.Chat.RateWindow <= 0 {
		c.Chat.RateWindow = time.Minute
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) IsLocal() bool {
	return c.App.Env == "local" || c.App.Env == "dev"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

// RedisAddr returns "" when Redis is not configured.
func (c Config) RedisAddr() string {
	if c.Redis.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func str(v *viper.Viper, key string) string {
	return strings.TrimSpace(v.GetString(key))
}

func mustInt(v *viper.Viper, key string) (int, error) {
	s := str(v, key)
	if s == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, s)
	}
	return n, nil
}

func optDuration(v *viper.Viper, key string) time.Duration {
	s := str(v, key)
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
