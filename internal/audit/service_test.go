package audit

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestService_AppendRequiresType(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	if err := svc.Append(context.Background(), Event{SessionID: "s"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestService_NilServiceIsAnError(t *testing.T) {
	var svc *Service
	if err := svc.LogInquirySubmitted(context.Background(), "u", "i"); err == nil {
		t.Fatalf("expected error from nil service")
	}
}

func TestService_AppendsImmutableEvents(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	svc.clock = func() time.Time { return time.Unix(1700000000, 0) }

	if err := svc.LogDuplicateEnd(context.Background(), "u", "sess-1", "processing"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := svc.LogInquiryDeleted(context.Background(), Actor{UserID: "admin-1", Role: "admin", IP: "1.2.3.4"}, "inq-1"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	evs := repo.Events()
	if len(evs) != 2 {
		t.Fatalf("expected 2 events, got %d", len(evs))
	}
	if evs[0].Type != EventTypeVoiceDuplicateEnd || evs[0].SessionID != "sess-1" {
		t.Fatalf("unexpected first event: %+v", evs[0])
	}
	if !strings.Contains(evs[0].Metadata, `"processing"`) {
		t.Fatalf("expected status in metadata, got %q", evs[0].Metadata)
	}
	if evs[1].IPAddress != "1.2.3.4" || evs[1].ActorRole != "admin" {
		t.Fatalf("expected actor captured: %+v", evs[1])
	}
	if evs[0].ID == "" || !evs[0].CreatedAt.Equal(time.Unix(1700000000, 0).UTC()) {
		t.Fatalf("expected id and timestamp filled: %+v", evs[0])
	}
}

func TestSchemaEmbedded(t *testing.T) {
	if !strings.Contains(Schema, "audit_events") {
		t.Fatalf("schema not embedded")
	}
}
