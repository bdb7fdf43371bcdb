package voice

import (
	"time"

	"portfolio-api/internal/extraction"
	"portfolio-api/internal/transcript"
)

// DefaultCeilingSeconds is the hard cap on a call's length.
const DefaultCeilingSeconds = 180

type endTrigger int

const (
	endNone endTrigger = iota
	endRemote
	endVisitor
	endTimeLimit
)

func (t endTrigger) String() string {
	switch t {
	case endRemote:
		return "remote"
	case endVisitor:
		return "visitor"
	case endTimeLimit:
		return "time_limit"
	default:
		return "none"
	}
}

// session is the state of one call attempt. It is replaced, never reused,
// when the visitor starts a new call.
type session struct {
	id             string
	status         Status
	elapsedSeconds int
	ceilingSeconds int
	startedAt      time.Time
	greeting       string

	transcript transcript.Accumulator
	endedBy    endTrigger
	draft      *extraction.Draft
	confirming bool
	timer      *sessionTimer
}

// Snapshot is the externally visible view of a session.
type Snapshot struct {
	SessionID        string `json:"sessionId,omitempty"`
	Status           Status `json:"status"`
	ElapsedSeconds   int    `json:"elapsedSeconds"`
	RemainingSeconds int    `json:"remainingSeconds"`
}

func (s *session) snapshot() Snapshot {
	remaining := s.ceilingSeconds - s.elapsedSeconds
	if remaining < 0 {
		remaining = 0
	}
	return Snapshot{
		SessionID:        s.id,
		Status:           s.status,
		ElapsedSeconds:   s.elapsedSeconds,
		RemainingSeconds: remaining,
	}
}
