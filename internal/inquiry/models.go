package inquiry

import (
	"time"

	"portfolio-api/internal/extraction"
)

// Inquiry is a visitor's contact request.
// A record starts as a draft (bootstrapped from a transcript) and becomes
// submitted once the visitor confirms it.
type Inquiry struct {
	ID              string  `json:"id" db:"id"`
	UserID          string  `json:"user_id" db:"user_id"`
	VisitorName     string  `json:"visitor_name" db:"visitor_name"`
	Email           *string `json:"email" db:"email"`
	PhoneNumber     *string `json:"phone_number" db:"phone_number"`
	Purpose         string  `json:"purpose" db:"purpose"`
	Summary         string  `json:"summary" db:"summary"`
	SourceSessionID string  `json:"source_session_id,omitempty" db:"source_session_id"`
	Status          Status  `json:"status" db:"status"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
)

func (s Status) Valid() bool { return s == StatusDraft || s == StatusSubmitted }

// Draft returns the editable view of the record.
func (i Inquiry) Draft() extraction.Draft {
	return extraction.Draft{
		ID:              i.ID,
		VisitorName:     i.VisitorName,
		Email:           i.Email,
		PhoneNumber:     i.PhoneNumber,
		Purpose:         i.Purpose,
		Summary:         i.Summary,
		SourceSessionID: i.SourceSessionID,
	}
}

// Filter narrows admin listings. Zero Status lists every status.
type Filter struct {
	Status Status
	Limit  int
	Offset int
}

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

func (f Filter) withDefaults() Filter {
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// UpdateResult is the outcome reported to the review step.
type UpdateResult struct {
	Success bool   `json:"success"`
	ID      string `json:"data,omitempty"`
}
