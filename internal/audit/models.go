package audit

import "time"

// Event is an immutable, append-only audit log record.
//
// Invariants:
// - Events are never updated or deleted.
// - actor and ip capture are best-effort; do not block visitor flows on audit failures.
type Event struct {
	ID   string    `json:"id" db:"id"`
	Type EventType `json:"type" db:"type"`

	// ActorUserID is the authenticated user causing the event (if applicable).
	ActorUserID string `json:"actor_user_id,omitempty" db:"actor_user_id"`
	ActorRole   string `json:"actor_role,omitempty" db:"actor_role"`
	IPAddress   string `json:"ip_address,omitempty" db:"ip_address"`

	// Target identifiers (optional, depending on the event type).
	SessionID string `json:"session_id,omitempty" db:"session_id"`
	InquiryID string `json:"inquiry_id,omitempty" db:"inquiry_id"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty" db:"message"`

	// Metadata is optional JSON for full details.
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	// EventTypeVoiceDuplicateEnd marks a call-end signal absorbed because the
	// session had already left the active states.
	EventTypeVoiceDuplicateEnd EventType = "voice_duplicate_end"
	EventTypeInquirySubmitted  EventType = "inquiry_submitted"
	EventTypeInquiryDeleted    EventType = "inquiry_deleted"
)

// Actor identifies who performed an operation.
type Actor struct {
	UserID string
	Role   string
	IP     string
}
