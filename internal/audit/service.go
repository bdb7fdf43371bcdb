package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
// It is append-only: there are no Update/Delete methods.
type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service logs internal audit information.
// Audit is internal-only and callers treat it as best-effort.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s == nil || s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}

	now := s.clock().UTC()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	return s.repo.Append(ctx, e)
}

// LogDuplicateEnd records a call-end signal dropped for a session already in
// processing or later.
func (s *Service) LogDuplicateEnd(ctx context.Context, userID, sessionID, status string) error {
	return s.Append(ctx, Event{
		Type:        EventTypeVoiceDuplicateEnd,
		ActorUserID: userID,
		SessionID:   sessionID,
		Message:     "duplicate call end ignored",
		Metadata:    fmt.Sprintf(`{"status":%q}`, status),
	})
}

func (s *Service) LogInquirySubmitted(ctx context.Context, userID, inquiryID string) error {
	return s.Append(ctx, Event{
		Type:        EventTypeInquirySubmitted,
		ActorUserID: userID,
		InquiryID:   inquiryID,
		Message:     "inquiry submitted",
	})
}

func (s *Service) LogInquiryDeleted(ctx context.Context, actor Actor, inquiryID string) error {
	return s.Append(ctx, Event{
		Type:        EventTypeInquiryDeleted,
		ActorUserID: actor.UserID,
		ActorRole:   actor.Role,
		IPAddress:   actor.IP,
		InquiryID:   inquiryID,
		Message:     "inquiry deleted",
	})
}
