package inquiry

import (
	"context"
	"errors"
)

var (
	ErrNotFound     = errors.New("inquiry not found")
	ErrInvalidDraft = errors.New("inquiry: visitor name and summary are required")
)

// Repository persists inquiries.
type Repository interface {
	// Insert creates rec unless its id already exists; created reports which.
	Insert(ctx context.Context, rec Inquiry) (created bool, err error)
	// Upsert writes rec keyed on id. An existing record owned by another user
	// is reported as ErrNotFound and left untouched.
	Upsert(ctx context.Context, rec Inquiry) (Inquiry, error)
	Get(ctx context.Context, id string) (Inquiry, error)
	List(ctx context.Context, f Filter) ([]Inquiry, error)
	Delete(ctx context.Context, id string) error
}
