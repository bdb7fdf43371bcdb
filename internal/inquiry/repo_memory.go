package inquiry

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo keeps inquiries in process memory for local runs and tests.
type MemoryRepo struct {
	mu    sync.Mutex
	items map[string]Inquiry
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{items: make(map[string]Inquiry)}
}

func (r *MemoryRepo) Insert(ctx context.Context, rec Inquiry) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[rec.ID]; ok {
		return false, nil
	}
	rec.UpdatedAt = rec.CreatedAt
	r.items[rec.ID] = rec
	return true, nil
}

func (r *MemoryRepo) Upsert(ctx context.Context, rec Inquiry) (Inquiry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[rec.ID]
	if !ok {
		rec.CreatedAt = rec.UpdatedAt
		r.items[rec.ID] = rec
		return rec, nil
	}
	if existing.UserID != rec.UserID {
		return Inquiry{}, ErrNotFound
	}
	existing.VisitorName = rec.VisitorName
	existing.Email = rec.Email
	existing.PhoneNumber = rec.PhoneNumber
	existing.Purpose = rec.Purpose
	existing.Summary = rec.Summary
	existing.Status = rec.Status
	if existing.SourceSessionID == "" {
		existing.SourceSessionID = rec.SourceSessionID
	}
	existing.UpdatedAt = rec.UpdatedAt
	r.items[rec.ID] = existing
	return existing, nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (Inquiry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.items[id]
	if !ok {
		return Inquiry{}, ErrNotFound
	}
	return rec, nil
}

func (r *MemoryRepo) List(ctx context.Context, f Filter) ([]Inquiry, error) {
	f = f.withDefaults()

	r.mu.Lock()
	out := make([]Inquiry, 0, len(r.items))
	for _, rec := range r.items {
		if f.Status != "" && rec.Status != f.Status {
			continue
		}
		out = append(out, rec)
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if f.Offset >= len(out) {
		return []Inquiry{}, nil
	}
	out = out[f.Offset:]
	if len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return ErrNotFound
	}
	delete(r.items, id)
	return nil
}
