package ratelimit

import (
	"context"
	"testing"
)

func TestMemorySlots(t *testing.T) {
	s := NewMemorySlots(1)
	ctx := context.Background()

	if ok, _ := s.Acquire(ctx, "u"); !ok {
		t.Fatalf("first acquire should succeed")
	}
	if ok, _ := s.Acquire(ctx, "u"); ok {
		t.Fatalf("second acquire should be rejected")
	}
	if err := s.Release(ctx, "u"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if ok, _ := s.Acquire(ctx, "u"); !ok {
		t.Fatalf("acquire after release should succeed")
	}
}
