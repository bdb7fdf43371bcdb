package telephony

import (
	"context"
	"strings"

	"portfolio-api/internal/inquiry"
	"portfolio-api/internal/transcript"
)

// Server message types posted by the voice provider. Only the end-of-call
// report drives business logic; the rest are acknowledged.
const (
	MessageEndOfCallReport = "end-of-call-report"
	MessageStatusUpdate    = "status-update"
	MessageTranscript      = "transcript"
)

// Bootstrapper turns a finished call into a draft inquiry.
//
// Rules:
// - Provider payloads never reach the inquiry package; map them here.
// - Bootstrap must be idempotent per source session, the provider retries.
type Bootstrapper interface {
	Bootstrap(ctx context.Context, req inquiry.BootstrapRequest) (inquiry.Inquiry, error)
}

// ServerMessage is the subset of the provider's server message we consume.
type ServerMessage struct {
	Type        string    `mapstructure:"type"`
	EndedReason string    `mapstructure:"endedReason"`
	Call        CallInfo  `mapstructure:"call"`
	Assistant   Assistant `mapstructure:"assistant"`
	Artifact    Artifact  `mapstructure:"artifact"`
}

type CallInfo struct {
	ID       string         `mapstructure:"id"`
	Metadata map[string]any `mapstructure:"metadata"`
}

// Assistant carries the per-call overrides, including metadata set at start.
type Assistant struct {
	Metadata map[string]any `mapstructure:"metadata"`
}

type Artifact struct {
	Messages []ArtifactMessage `mapstructure:"messages"`
}

type ArtifactMessage struct {
	Role    string `mapstructure:"role"`
	Message string `mapstructure:"message"`
}

// Metadata returns the string value for key from the call metadata, then the
// assistant overrides.
func (m ServerMessage) Metadata(key string) string {
	for _, src := range []map[string]any{m.Call.Metadata, m.Assistant.Metadata} {
		if v, ok := src[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// Transcript converts the artifact log into final utterances. System and tool
// entries are not conversation and are skipped.
func (m ServerMessage) Transcript() []transcript.Utterance {
	var acc transcript.Accumulator
	for _, msg := range m.Artifact.Messages {
		role := strings.ToLower(strings.TrimSpace(msg.Role))
		switch role {
		case "user":
		case "bot", "assistant":
			role = string(transcript.RoleAssistant)
		default:
			continue
		}
		acc.Observe(transcript.KindFinal, role, msg.Message)
	}
	return acc.Snapshot()
}
