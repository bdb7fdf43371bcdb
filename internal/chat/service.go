// Package chat answers free-form visitor questions about the portfolio owner.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"portfolio-api/internal/llm"
	"portfolio-api/internal/redact"
)

const (
	MaxMessageChars = 2000
	maxHistoryTurns = 20
)

var (
	ErrEmptyMessage   = errors.New("chat: message is empty")
	ErrMessageTooLong = fmt.Errorf("chat: message exceeds %d characters", MaxMessageChars)
)

const systemPrompt = `You are the assistant on a personal developer portfolio site.
Answer questions about the owner's projects, certificates, experience and availability.
Be friendly and concise. If you do not know something, say so and suggest using the contact form or a voice call.
Never invent employers, dates or credentials.`

// HistoryTurn is one prior message supplied by the client.
type HistoryTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Service struct {
	gen llm.Generator
	log *slog.Logger
}

func NewService(gen llm.Generator, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{gen: gen, log: log}
}

// Reply generates the assistant's answer to message given the prior turns.
func (s *Service) Reply(ctx context.Context, message string, history []HistoryTurn) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrEmptyMessage
	}
	if utf8.RuneCountInString(message) > MaxMessageChars {
		return "", ErrMessageTooLong
	}

	reply, err := s.gen.Generate(ctx, llm.Request{
		System:          systemPrompt,
		History:         toTurns(history),
		Prompt:          message,
		Temperature:     0.7,
		TopP:            0.9,
		TopK:            40,
		MaxOutputTokens: 1024,
	})
	if err != nil {
		s.log.Warn("chat generation failed", "err", err, "message", redact.Text(message))
		return "", fmt.Errorf("chat: generate: %w", err)
	}
	return strings.TrimSpace(reply), nil
}

// toTurns keeps the most recent turns with content. Unknown roles are
// treated as the visitor.
func toTurns(history []HistoryTurn) []llm.Turn {
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}
	turns := make([]llm.Turn, 0, len(history))
	for _, h := range history {
		text := strings.TrimSpace(h.Content)
		if text == "" {
			continue
		}
		role := llm.RoleUser
		switch strings.ToLower(h.Role) {
		case "assistant", "model", "bot":
			role = llm.RoleModel
		}
		turns = append(turns, llm.Turn{Role: role, Text: text})
	}
	return turns
}
