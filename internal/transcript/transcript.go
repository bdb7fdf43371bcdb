// Package transcript holds the speaker-tagged utterance log of one voice session.
package transcript

import (
	"strings"
	"sync"
)

// Role is the speaker of an utterance. Only two speakers exist.
type Role string

const (
	RoleVisitor   Role = "visitor"
	RoleAssistant Role = "assistant"
)

// NormalizeRole maps provider role names onto the two supported speakers.
// "user" is the voice SDK's name for the visitor; anything else is the assistant.
func NormalizeRole(raw string) Role {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "visitor", "user":
		return RoleVisitor
	default:
		return RoleAssistant
	}
}

type Utterance struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Kind is the finality of a transcript event.
type Kind string

const (
	KindPartial Kind = "partial"
	KindFinal   Kind = "final"
)

// Accumulator is the append-only ordered log of finalized utterances.
// Partial events only update the live caption.
type Accumulator struct {
	mu      sync.Mutex
	entries []Utterance
	caption Utterance
}

// Observe feeds one transcript event. It reports whether the event was final
// and, if so, the utterance appended.
func (a *Accumulator) Observe(kind Kind, role string, text string) (Utterance, bool) {
	u := Utterance{Role: NormalizeRole(role), Content: strings.TrimSpace(text)}

	a.mu.Lock()
	defer a.mu.Unlock()

	if kind != KindFinal {
		a.caption = u
		return u, false
	}
	a.caption = Utterance{}
	if u.Content == "" {
		return u, false
	}
	a.entries = append(a.entries, u)
	return u, true
}

func (a *Accumulator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = nil
	a.caption = Utterance{}
}

// Snapshot returns a copy of the accumulated utterances in arrival order.
func (a *Accumulator) Snapshot() []Utterance {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Utterance, len(a.entries))
	copy(out, a.entries)
	return out
}

func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}

func (a *Accumulator) Caption() Utterance {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.caption
}
