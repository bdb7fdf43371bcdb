package inquiry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"portfolio-api/internal/audit"
	"portfolio-api/internal/errorsx"
	"portfolio-api/internal/extraction"
	"portfolio-api/internal/redact"
	"portfolio-api/internal/transcript"

	"github.com/google/uuid"
)

// Extractor turns a transcript into a draft.
type Extractor interface {
	Extract(ctx context.Context, utterances []transcript.Utterance, visitorName string) (extraction.Draft, error)
}

// Service owns inquiry persistence and the server-side bootstrap path.
type Service struct {
	repo      Repository
	extractor Extractor
	audit     *audit.Service
	log       *slog.Logger
	clock     func() time.Time
}

func NewService(repo Repository, extractor Extractor, auditSvc *audit.Service, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, extractor: extractor, audit: auditSvc, log: log, clock: time.Now}
}

// UpdateInquiry saves a confirmed draft for userID, keyed on draft.ID. A draft
// without an id gets a new one. The record becomes submitted.
func (s *Service) UpdateInquiry(ctx context.Context, userID string, d extraction.Draft) (UpdateResult, error) {
	if userID == "" {
		return UpdateResult{}, errors.New("inquiry: user_id required")
	}
	d = d.Normalize()
	if !d.Confirmable() {
		return UpdateResult{}, errorsx.Wrap(ErrInvalidDraft, errorsx.ReasonInvalidDraft)
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}

	rec, err := s.repo.Upsert(ctx, Inquiry{
		ID:              d.ID,
		UserID:          userID,
		VisitorName:     d.VisitorName,
		Email:           d.Email,
		PhoneNumber:     d.PhoneNumber,
		Purpose:         d.Purpose,
		Summary:         d.Summary,
		SourceSessionID: d.SourceSessionID,
		Status:          StatusSubmitted,
		UpdatedAt:       s.clock().UTC(),
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return UpdateResult{}, err
		}
		return UpdateResult{}, errorsx.Wrap(fmt.Errorf("inquiry: save: %w", err), errorsx.ReasonPersistence)
	}

	s.log.Info("inquiry submitted",
		"inquiry_id", rec.ID,
		"user_id", userID,
		"visitor_name", redact.Text(rec.VisitorName),
		"email", redact.Ptr(rec.Email),
	)
	if err := s.audit.LogInquirySubmitted(ctx, userID, rec.ID); err != nil {
		s.log.Warn("audit append failed", "err", err, "inquiry_id", rec.ID)
	}
	return UpdateResult{Success: true, ID: rec.ID}, nil
}

// BootstrapRequest carries a raw transcript to turn into a draft record.
type BootstrapRequest struct {
	UserID          string
	VisitorName     string
	Transcript      []transcript.Utterance
	SourceSessionID string
}

// Bootstrap runs one extraction and stores the result as a draft. When the
// source session already has a record, that record is returned untouched and
// no extraction runs.
func (s *Service) Bootstrap(ctx context.Context, req BootstrapRequest) (Inquiry, error) {
	if req.UserID == "" {
		return Inquiry{}, errors.New("inquiry: user_id required")
	}
	if s.extractor == nil {
		return Inquiry{}, errors.New("inquiry: extractor not configured")
	}

	id := strings.TrimSpace(req.SourceSessionID)
	if id != "" {
		existing, err := s.repo.Get(ctx, id)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return Inquiry{}, errorsx.Wrap(fmt.Errorf("inquiry: lookup: %w", err), errorsx.ReasonPersistence)
		}
	} else {
		id = uuid.NewString()
	}

	d, err := s.extractor.Extract(ctx, req.Transcript, req.VisitorName)
	if err != nil {
		return Inquiry{}, err
	}

	rec := Inquiry{
		ID:              id,
		UserID:          req.UserID,
		VisitorName:     d.VisitorName,
		Email:           d.Email,
		PhoneNumber:     d.PhoneNumber,
		Purpose:         d.Purpose,
		Summary:         d.Summary,
		SourceSessionID: req.SourceSessionID,
		Status:          StatusDraft,
		CreatedAt:       s.clock().UTC(),
	}
	rec.UpdatedAt = rec.CreatedAt

	created, err := s.repo.Insert(ctx, rec)
	if err != nil {
		return Inquiry{}, errorsx.Wrap(fmt.Errorf("inquiry: insert draft: %w", err), errorsx.ReasonPersistence)
	}
	if !created {
		// lost a race with a concurrent confirm or bootstrap for the same session
		return s.repo.Get(ctx, id)
	}
	s.log.Info("inquiry draft created", "inquiry_id", id, "user_id", req.UserID, "utterances", len(req.Transcript))
	return rec, nil
}

func (s *Service) Get(ctx context.Context, id string) (Inquiry, error) {
	if strings.TrimSpace(id) == "" {
		return Inquiry{}, ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter) ([]Inquiry, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, fmt.Errorf("inquiry: unknown status %q", f.Status)
	}
	return s.repo.List(ctx, f)
}

func (s *Service) Delete(ctx context.Context, actor audit.Actor, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrNotFound
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.audit.LogInquiryDeleted(ctx, actor, id); err != nil {
		s.log.Warn("audit append failed", "err", err, "inquiry_id", id)
	}
	return nil
}
