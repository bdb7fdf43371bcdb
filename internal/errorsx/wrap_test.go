package errorsx

import (
	"errors"
	"fmt"
	"testing"
)

var errBoom = errors.New("boom")

func TestWrapAndReason(t *testing.T) {
	err := Wrap(errBoom, ReasonExtractionModel)
	if Reason(err) != ReasonExtractionModel {
		t.Fatalf("expected reason %s, got %s", ReasonExtractionModel, Reason(err))
	}
	if !HasReason(err, ReasonExtractionModel) {
		t.Fatalf("expected HasReason true")
	}
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected wrapped error to unwrap to the cause")
	}
}

func TestWrapPreservesExistingReason(t *testing.T) {
	first := Wrap(errBoom, ReasonExtractionMalformed)
	second := Wrap(fmt.Errorf("extract: %w", first), ReasonPersistence)
	if Reason(second) != ReasonExtractionMalformed {
		t.Fatalf("expected reason preserved, got %s", Reason(second))
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, ReasonPersistence) != nil {
		t.Fatalf("expected nil")
	}
	if Reason(nil) != ReasonUnknown {
		t.Fatalf("expected unknown for nil")
	}
}
