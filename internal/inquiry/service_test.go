package inquiry

import (
	"context"
	"errors"
	"testing"
	"time"

	"portfolio-api/internal/audit"
	"portfolio-api/internal/errorsx"
	"portfolio-api/internal/extraction"
	"portfolio-api/internal/transcript"
)

type fakeExtractor struct {
	draft extraction.Draft
	err   error
	calls int
}

func (f *fakeExtractor) Extract(ctx context.Context, us []transcript.Utterance, name string) (extraction.Draft, error) {
	f.calls++
	return f.draft, f.err
}

type failingRepo struct{ *MemoryRepo }

func (failingRepo) Upsert(ctx context.Context, rec Inquiry) (Inquiry, error) {
	return Inquiry{}, errors.New("connection reset")
}

func strPtr(s string) *string { return &s }

func newTestService(ex Extractor) (*Service, *MemoryRepo, *audit.MemoryRepo) {
	repo := NewMemoryRepo()
	auditRepo := audit.NewMemoryRepo()
	svc := NewService(repo, ex, audit.NewService(auditRepo), nil)
	svc.clock = func() time.Time { return time.Unix(1700000000, 0) }
	return svc, repo, auditRepo
}

func TestUpdateInquiry_PersistsEditedValues(t *testing.T) {
	svc, repo, auditRepo := newTestService(nil)

	res, err := svc.UpdateInquiry(context.Background(), "user-1", extraction.Draft{
		ID:          "sess-1",
		VisitorName: " Alexandra ",
		Email:       strPtr("alex@example.com"),
		PhoneNumber: strPtr(""),
		Purpose:     "Website Development Inquiry",
		Summary:     "Alex requested a website.",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !res.Success || res.ID != "sess-1" {
		t.Fatalf("unexpected result: %+v", res)
	}

	rec, err := repo.Get(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.VisitorName != "Alexandra" || rec.PhoneNumber != nil || rec.Status != StatusSubmitted {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if evs := auditRepo.Events(); len(evs) != 1 || evs[0].Type != audit.EventTypeInquirySubmitted {
		t.Fatalf("expected submitted audit event, got %+v", evs)
	}
}

func TestUpdateInquiry_RejectsMissingNameOrSummary(t *testing.T) {
	svc, _, _ := newTestService(nil)
	_, err := svc.UpdateInquiry(context.Background(), "u", extraction.Draft{VisitorName: "A", Summary: "  "})
	if !errors.Is(err, ErrInvalidDraft) || !errorsx.HasReason(err, errorsx.ReasonInvalidDraft) {
		t.Fatalf("expected invalid draft, got %v", err)
	}
}

func TestUpdateInquiry_UpdatesBootstrappedRecordInPlace(t *testing.T) {
	ex := &fakeExtractor{draft: extraction.Draft{VisitorName: "Alex", Purpose: "Website", Summary: "Wants a site."}}
	svc, repo, _ := newTestService(ex)

	draft, err := svc.Bootstrap(context.Background(), BootstrapRequest{
		UserID:          "user-1",
		VisitorName:     "Alex",
		Transcript:      []transcript.Utterance{{Role: transcript.RoleVisitor, Content: "hi"}},
		SourceSessionID: "sess-9",
	})
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if draft.ID != "sess-9" || draft.Status != StatusDraft {
		t.Fatalf("unexpected draft: %+v", draft)
	}

	edited := draft.Draft()
	edited.Summary = "Wants a portfolio site by June."
	if _, err := svc.UpdateInquiry(context.Background(), "user-1", edited); err != nil {
		t.Fatalf("update: %v", err)
	}

	rec, _ := repo.Get(context.Background(), "sess-9")
	if rec.Summary != "Wants a portfolio site by June." || rec.Status != StatusSubmitted {
		t.Fatalf("record not updated in place: %+v", rec)
	}
	if rec.SourceSessionID != "sess-9" {
		t.Fatalf("source session lost: %+v", rec)
	}
}

func TestUpdateInquiry_OtherUsersRecordIsNotFound(t *testing.T) {
	svc, _, _ := newTestService(nil)
	d := extraction.Draft{ID: "x", VisitorName: "A", Summary: "S"}
	if _, err := svc.UpdateInquiry(context.Background(), "owner", d); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := svc.UpdateInquiry(context.Background(), "intruder", d); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateInquiry_PersistenceFailureIsReasoned(t *testing.T) {
	repo := failingRepo{NewMemoryRepo()}
	svc := NewService(repo, nil, nil, nil)
	_, err := svc.UpdateInquiry(context.Background(), "u", extraction.Draft{VisitorName: "A", Summary: "S"})
	if !errorsx.HasReason(err, errorsx.ReasonPersistence) {
		t.Fatalf("expected persistence reason, got %v", err)
	}
}

func TestBootstrap_IdempotentPerSourceSession(t *testing.T) {
	ex := &fakeExtractor{draft: extraction.Draft{VisitorName: "Alex", Summary: "S"}}
	svc, _, _ := newTestService(ex)
	req := BootstrapRequest{UserID: "u", Transcript: []transcript.Utterance{{Role: transcript.RoleVisitor, Content: "hi"}}, SourceSessionID: "call-1"}

	if _, err := svc.Bootstrap(context.Background(), req); err != nil {
		t.Fatalf("first: %v", err)
	}
	if _, err := svc.Bootstrap(context.Background(), req); err != nil {
		t.Fatalf("second: %v", err)
	}
	if ex.calls != 1 {
		t.Fatalf("expected one extraction, got %d", ex.calls)
	}
}

func TestBootstrap_PropagatesExtractionFailure(t *testing.T) {
	ex := &fakeExtractor{err: extraction.ErrMalformed}
	svc, repo, _ := newTestService(ex)
	_, err := svc.Bootstrap(context.Background(), BootstrapRequest{UserID: "u", Transcript: []transcript.Utterance{{Role: transcript.RoleVisitor, Content: "hi"}}})
	if !errors.Is(err, extraction.ErrMalformed) {
		t.Fatalf("expected malformed, got %v", err)
	}
	if items, _ := repo.List(context.Background(), Filter{}); len(items) != 0 {
		t.Fatalf("nothing should be stored")
	}
}

func TestListAndDelete(t *testing.T) {
	svc, repo, auditRepo := newTestService(nil)
	ctx := context.Background()
	base := time.Unix(1700000000, 0)
	for i, id := range []string{"a", "b", "c"} {
		status := StatusDraft
		if i == 1 {
			status = StatusSubmitted
		}
		if _, err := repo.Insert(ctx, Inquiry{ID: id, UserID: "u", VisitorName: "V", Status: status, CreatedAt: base.Add(time.Duration(i) * time.Minute)}); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	drafts, err := svc.List(ctx, Filter{Status: StatusDraft})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(drafts) != 2 || drafts[0].ID != "c" || drafts[1].ID != "a" {
		t.Fatalf("unexpected listing: %+v", drafts)
	}
	if _, err := svc.List(ctx, Filter{Status: "bogus"}); err == nil {
		t.Fatalf("expected unknown status error")
	}

	page, _ := svc.List(ctx, Filter{Limit: 1, Offset: 1})
	if len(page) != 1 || page[0].ID != "b" {
		t.Fatalf("unexpected page: %+v", page)
	}

	if err := svc.Delete(ctx, audit.Actor{UserID: "admin", Role: "admin"}, "b"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(ctx, audit.Actor{}, "b"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if evs := auditRepo.Events(); len(evs) != 1 || evs[0].Type != audit.EventTypeInquiryDeleted {
		t.Fatalf("expected one delete audit event, got %+v", evs)
	}
}
