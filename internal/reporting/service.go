package reporting

import (
	"context"
	"errors"
	"time"

	"portfolio-api/internal/audit"
	"portfolio-api/internal/inquiry"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// Repository abstracts data access for reporting.
//
// IMPORTANT:
// - Ranges are half-open: From inclusive, To exclusive.
// - Implementations should query immutable sources when possible (audit events).
type Repository interface {
	ListInquiries(ctx context.Context, from, to time.Time) ([]InquiryRow, error)
	CountAuditEvents(ctx context.Context, typ audit.EventType, from, to time.Time) (int, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

func (s *Service) InquirySummary(ctx context.Context, req InquirySummaryRequest) (InquirySummary, error) {
	if !req.Range.valid() {
		return InquirySummary{}, ErrInvalidRequest
	}
	if s.repo == nil {
		return InquirySummary{}, errors.New("reporting: repository not configured")
	}

	rows, err := s.repo.ListInquiries(ctx, req.Range.From, req.Range.To)
	if err != nil {
		return InquirySummary{}, err
	}
	dups, err := s.repo.CountAuditEvents(ctx, audit.EventTypeVoiceDuplicateEnd, req.Range.From, req.Range.To)
	if err != nil {
		return InquirySummary{}, err
	}

	out := InquirySummary{Range: req.Range, DuplicateCallEnds: dups}
	for _, r := range rows {
		out.TotalInquiries++
		switch r.Status {
		case inquiry.StatusDraft:
			out.DraftInquiries++
		case inquiry.StatusSubmitted:
			out.SubmittedInquiries++
		}
		if r.HasEmail {
			out.WithEmail++
		}
		if r.HasPhone {
			out.WithPhone++
		}
		if r.HasEmail || r.HasPhone {
			out.WithContact++
		}
	}
	if out.TotalInquiries > 0 {
		out.SubmissionRate = float64(out.SubmittedInquiries) / float64(out.TotalInquiries)
	}
	return out, nil
}
