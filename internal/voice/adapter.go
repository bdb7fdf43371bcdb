package voice

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// SessionConfig is sent to the voice SDK when a call starts.
type SessionConfig struct {
	AssistantID        string            `json:"assistantId,omitempty"`
	SystemPrompt       string            `json:"systemPrompt"`
	FirstMessage       string            `json:"firstMessage"`
	VoiceID            string            `json:"voiceId,omitempty"`
	MaxDurationSeconds int               `json:"maxDurationSeconds"`
	Metadata           map[string]string `json:"metadata,omitempty"`
}

// Metadata keys carried on the call so provider webhooks can be correlated.
const (
	MetadataUserID      = "userId"
	MetadataSessionID   = "sessionId"
	MetadataVisitorName = "visitorName"
	MetadataSignature   = "signature"
)

// SignMetadata binds a call's user and session ids under key so provider
// webhooks can trust them. It returns "" when key is empty.
func SignMetadata(key []byte, userID, sessionID string) string {
	if len(key) == 0 {
		return ""
	}
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(userID))
	mac.Write([]byte{0})
	mac.Write([]byte(sessionID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyMetadata reports whether sig is SignMetadata's output for the same ids.
func VerifyMetadata(key []byte, userID, sessionID, sig string) bool {
	if len(key) == 0 || sig == "" {
		return false
	}
	return hmac.Equal([]byte(SignMetadata(key, userID, sessionID)), []byte(sig))
}

// TranscriptEvent is one transcript message from the SDK.
type TranscriptEvent struct {
	Final bool
	Role  string
	Text  string
}

// Handlers receive SDK events. Nil handlers are skipped.
type Handlers struct {
	OnCallStart   func()
	OnCallEnd     func()
	OnSpeechStart func()
	OnSpeechEnd   func()
	OnTranscript  func(TranscriptEvent)
	OnVolume      func(level float64)
	OnError       func(err error)
}

// Subscription is returned by Adapter.Connect. After Dispose returns no
// handler is invoked again.
type Subscription interface {
	Dispose()
}

// Adapter is the boundary to the real-time voice SDK.
type Adapter interface {
	Start(ctx context.Context, cfg SessionConfig) error
	Stop(ctx context.Context) error
	SetMuted(muted bool) error
	Connect(h Handlers) Subscription
}

const systemPromptTemplate = `You are the voice assistant on a personal developer portfolio site.
You are speaking with %s.
Your job is to understand why they are reaching out and collect:
- their name
- an email address or phone number, if they want to share one
- the purpose of the inquiry and the key details.
Keep answers short and conversational. Ask one question at a time.
When you have what you need, confirm the details back and say goodbye.
The call ends automatically after %d seconds.`

const firstMessageTemplate = "Hi %s! I'm the assistant for this portfolio. What can I help you with today?"

// BuildSessionConfig parameterizes the assistant for one visitor and session.
func BuildSessionConfig(opts Options, id Identity, sessionID string) SessionConfig {
	name := id.DisplayName
	if name == "" {
		name = "there"
	}
	meta := map[string]string{
		MetadataUserID:      id.UserID,
		MetadataSessionID:   sessionID,
		MetadataVisitorName: id.DisplayName,
	}
	if sig := SignMetadata(opts.MetadataKey, id.UserID, sessionID); sig != "" {
		meta[MetadataSignature] = sig
	}
	return SessionConfig{
		AssistantID:        opts.AssistantID,
		SystemPrompt:       fmt.Sprintf(systemPromptTemplate, name, opts.CeilingSeconds),
		FirstMessage:       fmt.Sprintf(firstMessageTemplate, name),
		VoiceID:            opts.VoiceID,
		MaxDurationSeconds: opts.CeilingSeconds,
		Metadata:           meta,
	}
}
