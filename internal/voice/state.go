package voice

import "fmt"

// Status is the single source of truth for where a voice session is.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusConnecting Status = "connecting"
	StatusActive     Status = "active"
	StatusListening  Status = "listening"
	StatusSpeaking   Status = "speaking"
	// StatusProcessing doubles as the extraction guard: a call-end is only
	// accepted from the active set, so a second one can never start another
	// extraction.
	StatusProcessing Status = "processing"
	StatusReview     Status = "review"
)

var validTransitions = map[Status][]Status{
	StatusIdle:       {StatusConnecting},
	StatusConnecting: {StatusActive, StatusIdle},
	StatusActive:     {StatusListening, StatusSpeaking, StatusProcessing, StatusIdle},
	StatusListening:  {StatusSpeaking, StatusProcessing, StatusIdle},
	StatusSpeaking:   {StatusListening, StatusProcessing, StatusIdle},
	StatusProcessing: {StatusReview, StatusIdle},
	StatusReview:     {StatusIdle},
}

func (s Status) String() string { return string(s) }

// Live reports whether a call is connected and the timer runs.
func (s Status) Live() bool {
	switch s {
	case StatusActive, StatusListening, StatusSpeaking:
		return true
	case StatusIdle, StatusConnecting, StatusProcessing, StatusReview:
		return false
	default:
		panic(fmt.Sprintf("voice: unknown status %q", string(s)))
	}
}

// CanTransition reports whether from -> to is in the transition table.
func CanTransition(from, to Status) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("voice: invalid transition %s -> %s", e.From, e.To)
}
