package reporting

import (
	"time"

	"portfolio-api/internal/inquiry"
)

// Common filtering inputs.

type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

func (r TimeRange) valid() bool {
	return !r.From.IsZero() && !r.To.IsZero() && r.To.After(r.From)
}

// InquiryRow is the reporting projection of an inquiry. Free text is not loaded.
type InquiryRow struct {
	ID        string
	Status    inquiry.Status
	HasEmail  bool
	HasPhone  bool
	CreatedAt time.Time
}

// InquirySummaryRequest requests aggregated inquiry metrics for the admin dashboard.
type InquirySummaryRequest struct {
	Range TimeRange `json:"range"`
}

type InquirySummary struct {
	Range TimeRange `json:"range"`

	TotalInquiries     int `json:"total_inquiries"`
	DraftInquiries     int `json:"draft_inquiries"`
	SubmittedInquiries int `json:"submitted_inquiries"`

	WithEmail   int `json:"with_email"`
	WithPhone   int `json:"with_phone"`
	WithContact int `json:"with_contact"`

	// SubmissionRate is submitted / total.
	SubmissionRate float64 `json:"submission_rate"`

	// DuplicateCallEnds counts call-end signals absorbed by the voice session.
	DuplicateCallEnds int `json:"duplicate_call_ends"`
}
