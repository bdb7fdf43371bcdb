package reporting

import (
	"context"
	"sync"
	"time"

	"portfolio-api/internal/audit"
)

// MemoryRepo is a simple in-memory reporting repository for tests and local runs.
type MemoryRepo struct {
	mu sync.Mutex

	Inquiries []InquiryRow
	Events    []audit.Event
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}

func (r *MemoryRepo) ListInquiries(ctx context.Context, from, to time.Time) ([]InquiryRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]InquiryRow, 0)
	for _, row := range r.Inquiries {
		if inRange(row.CreatedAt, from, to) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *MemoryRepo) CountAuditEvents(ctx context.Context, typ audit.EventType, from, to time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.Events {
		if e.Type == typ && inRange(e.CreatedAt, from, to) {
			n++
		}
	}
	return n, nil
}
