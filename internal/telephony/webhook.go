package telephony

import (
	"crypto/hmac"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"portfolio-api/internal/inquiry"
	"portfolio-api/internal/voice"

	"github.com/mitchellh/mapstructure"
)

// SecretHeader carries the shared webhook secret configured on the assistant.
const SecretHeader = "X-Vapi-Secret"

var (
	ErrMissingSecret  = errors.New("missing webhook secret")
	ErrInvalidSecret  = errors.New("invalid webhook secret")
	ErrMissingMessage = errors.New("webhook body has no message")
	ErrMissingUser    = errors.New("call metadata has no userId")
	ErrUnsignedCall   = errors.New("call metadata is not signed")
	ErrBadSignature   = errors.New("call metadata signature mismatch")
)

// VerifySecret compares the presented secret against the configured one in
// constant time.
func VerifySecret(expected, presented string) error {
	if presented == "" {
		return ErrMissingSecret
	}
	if !hmac.Equal([]byte(expected), []byte(presented)) {
		return ErrInvalidSecret
	}
	return nil
}

// ParseServerMessage decodes the {"message": {...}} envelope. Fields we do not
// model are ignored.
func ParseServerMessage(body []byte) (ServerMessage, error) {
	var envelope struct {
		Message map[string]any `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ServerMessage{}, fmt.Errorf("decode webhook body: %w", err)
	}
	if len(envelope.Message) == 0 {
		return ServerMessage{}, ErrMissingMessage
	}

	var msg ServerMessage
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		Result:           &msg,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return ServerMessage{}, err
	}
	if err := dec.Decode(envelope.Message); err != nil {
		return ServerMessage{}, fmt.Errorf("decode server message: %w", err)
	}
	msg.Type = strings.TrimSpace(msg.Type)
	return msg, nil
}

// ToBootstrapRequest maps an end-of-call report onto the inquiry bootstrap.
// The session id set by the voice controller keys the record so a later
// confirm from the browser updates the same inquiry; the provider call id is
// the fallback when the call was not started through our socket.
func (m ServerMessage) ToBootstrapRequest() (inquiry.BootstrapRequest, error) {
	userID := m.Metadata(voice.MetadataUserID)
	if userID == "" {
		return inquiry.BootstrapRequest{}, ErrMissingUser
	}
	sessionID := m.Metadata(voice.MetadataSessionID)
	if sessionID == "" {
		sessionID = m.Call.ID
	}
	return inquiry.BootstrapRequest{
		UserID:          userID,
		VisitorName:     m.Metadata(voice.MetadataVisitorName),
		Transcript:      m.Transcript(),
		SourceSessionID: sessionID,
	}, nil
}

// VerifyMetadata checks that the user and session ids on the call were issued
// by our voice controller. Calls started elsewhere carry no signature.
func (m ServerMessage) VerifyMetadata(key []byte) error {
	sig := m.Metadata(voice.MetadataSignature)
	if sig == "" {
		return ErrUnsignedCall
	}
	if !voice.VerifyMetadata(key, m.Metadata(voice.MetadataUserID), m.Metadata(voice.MetadataSessionID), sig) {
		return ErrBadSignature
	}
	return nil
}
