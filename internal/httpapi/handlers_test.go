package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"portfolio-api/internal/audit"
	"portfolio-api/internal/auth"
	"portfolio-api/internal/extraction"
	"portfolio-api/internal/inquiry"
	"portfolio-api/internal/rbac"
	"portfolio-api/internal/reporting"
	"portfolio-api/internal/transcript"

	"github.com/gin-gonic/gin"
)

type fakeExtractor struct {
	draft extraction.Draft
	err   error
	got   [][]transcript.Utterance
}

func (f *fakeExtractor) Extract(ctx context.Context, us []transcript.Utterance, name string) (extraction.Draft, error) {
	f.got = append(f.got, us)
	d := f.draft
	if d.VisitorName == "" {
		d.VisitorName = name
	}
	return d, f.err
}

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// withIdentity stands in for auth.RequireAccessToken.
func withIdentity(userID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID != "" {
			id := auth.Identity{UserID: userID, DisplayName: "Ada", Role: role}
			c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), id))
		}
		c.Next()
	}
}

type testEnv struct {
	svc     *inquiry.Service
	reports *reporting.MemoryRepo
	repo    *inquiry.MemoryRepo
	audit   *audit.MemoryRepo
	ex      *fakeExtractor
}

func newEnv() testEnv {
	ex := &fakeExtractor{draft: extraction.Draft{Purpose: "Hiring", Summary: "Wants a Go engineer."}}
	repo := inquiry.NewMemoryRepo()
	auditRepo := audit.NewMemoryRepo()
	return testEnv{
		svc:     inquiry.NewService(repo, ex, audit.NewService(auditRepo), nil),
		reports: reporting.NewMemoryRepo(),
		repo:    repo,
		audit:   auditRepo,
		ex:      ex,
	}
}

func (e testEnv) router(userID, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := Handlers{
		Inquiries: e.svc,
		Reports:   reporting.NewService(e.reports),
		Voice:     VoiceClientConfig{PublicKey: "pk", AssistantID: "asst", MaxDurationSeconds: 180},
		Now:       func() time.Time { return testNow },
	}
	r := gin.New()
	v1 := r.Group("/v1", withIdentity(userID, role))
	v1.GET("/me", h.Me)
	v1.POST("/inquiries", h.BootstrapInquiry)
	v1.PATCH("/inquiries/:id", h.UpdateInquiry)
	admin := v1.Group("/admin", rbac.RequireAnyRole(rbac.RoleAdmin))
	admin.GET("/inquiries", h.AdminListInquiries)
	admin.GET("/inquiries/:id", h.AdminGetInquiry)
	admin.DELETE("/inquiries/:id", h.AdminDeleteInquiry)
	admin.GET("/reports/inquiries", h.AdminInquirySummary)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestMe(t *testing.T) {
	e := newEnv()
	w := do(e.router("u1", rbac.RoleVisitor), http.MethodGet, "/v1/me", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		UserID string            `json:"user_id"`
		Voice  VoiceClientConfig `json:"voice"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.UserID != "u1" || body.Voice.PublicKey != "pk" {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}

	if w := do(e.router("", ""), http.MethodGet, "/v1/me", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestBootstrapThenUpdate(t *testing.T) {
	e := newEnv()
	r := e.router("u1", rbac.RoleVisitor)

	w := do(r, http.MethodPost, "/v1/inquiries", `{
		"sourceSessionId":"sess-1",
		"transcript":[{"role":"assistant","content":"Hi!"},{"role":"user","content":" I need a backend dev "}]
	}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d %s", w.Code, w.Body.String())
	}
	var rec inquiry.Inquiry
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatal(err)
	}
	if rec.ID != "sess-1" || rec.Status != inquiry.StatusDraft || rec.VisitorName != "Ada" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	got := e.ex.got[0]
	if got[1].Role != transcript.RoleVisitor || got[1].Content != "I need a backend dev" {
		t.Fatalf("transcript not normalized: %+v", got)
	}

	w = do(r, http.MethodPatch, "/v1/inquiries/sess-1", `{"visitorName":"Ada L","email":"ada@example.com","phoneNumber":null,"purpose":"Hiring","summary":"Backend role, remote."}`)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"success":true`) || !strings.Contains(w.Body.String(), `"data":"sess-1"`) {
		t.Fatalf("unexpected update response: %d %s", w.Code, w.Body.String())
	}
	stored, _ := e.repo.Get(context.Background(), "sess-1")
	if stored.Status != inquiry.StatusSubmitted || stored.VisitorName != "Ada L" || stored.Email == nil {
		t.Fatalf("unexpected stored record: %+v", stored)
	}
}

func TestBootstrap_EmptyTranscript(t *testing.T) {
	e := newEnv()
	e.ex.err = extraction.ErrEmptyTranscript
	w := do(e.router("u1", rbac.RoleVisitor), http.MethodPost, "/v1/inquiries", `{"transcript":[]}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
}

func TestBootstrap_OtherUsersSessionIsHidden(t *testing.T) {
	e := newEnv()
	body := `{"sourceSessionId":"sess-x","transcript":[{"role":"user","content":"hi"}]}`
	if w := do(e.router("owner", rbac.RoleVisitor), http.MethodPost, "/v1/inquiries", body); w.Code != http.StatusCreated {
		t.Fatalf("seed: %d", w.Code)
	}
	if w := do(e.router("intruder", rbac.RoleVisitor), http.MethodPost, "/v1/inquiries", body); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestUpdateInquiry_Errors(t *testing.T) {
	e := newEnv()
	r := e.router("u1", rbac.RoleVisitor)

	if w := do(r, http.MethodPatch, "/v1/inquiries/x", `{"visitorName":"","summary":"s"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid draft, got %d", w.Code)
	}
	if w := do(r, http.MethodPatch, "/v1/inquiries/x", `not json`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad json, got %d", w.Code)
	}

	if w := do(r, http.MethodPatch, "/v1/inquiries/x", `{"visitorName":"A","summary":"s"}`); w.Code != http.StatusOK {
		t.Fatalf("seed: %d", w.Code)
	}
	other := e.router("u2", rbac.RoleVisitor)
	if w := do(other, http.MethodPatch, "/v1/inquiries/x", `{"visitorName":"B","summary":"t"}`); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for another user's record, got %d", w.Code)
	}
}

func TestAdminInquiries(t *testing.T) {
	e := newEnv()
	visitor := e.router("u1", rbac.RoleVisitor)
	admin := e.router("admin-1", rbac.RoleAdmin)

	for _, id := range []string{"a", "b"} {
		if w := do(visitor, http.MethodPatch, "/v1/inquiries/"+id, `{"visitorName":"A","summary":"s"}`); w.Code != http.StatusOK {
			t.Fatalf("seed %s: %d", id, w.Code)
		}
	}

	if w := do(visitor, http.MethodGet, "/v1/admin/inquiries", ""); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for visitor, got %d", w.Code)
	}

	w := do(admin, http.MethodGet, "/v1/admin/inquiries?status=submitted&limit=10", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var list struct {
		Items []inquiry.Inquiry `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil || len(list.Items) != 2 {
		t.Fatalf("unexpected list: %s", w.Body.String())
	}

	if w := do(admin, http.MethodGet, "/v1/admin/inquiries?status=bogus", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", w.Code)
	}
	if w := do(admin, http.MethodGet, "/v1/admin/inquiries?limit=abc", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", w.Code)
	}
	if w := do(admin, http.MethodGet, "/v1/admin/inquiries/a", ""); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w := do(admin, http.MethodDelete, "/v1/admin/inquiries/a", ""); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if w := do(admin, http.MethodGet, "/v1/admin/inquiries/a", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", w.Code)
	}

	var deleted bool
	for _, ev := range e.audit.Events() {
		if ev.Type == audit.EventTypeInquiryDeleted && ev.ActorUserID == "admin-1" {
			deleted = true
		}
	}
	if !deleted {
		t.Fatalf("expected inquiry_deleted audit event, got %+v", e.audit.Events())
	}
}

func TestAdminInquirySummary(t *testing.T) {
	e := newEnv()
	e.reports.Inquiries = []reporting.InquiryRow{
		{ID: "recent", Status: inquiry.StatusSubmitted, HasEmail: true, CreatedAt: testNow.Add(-24 * time.Hour)},
		{ID: "stale", Status: inquiry.StatusDraft, CreatedAt: testNow.Add(-60 * 24 * time.Hour)},
	}
	admin := e.router("admin-1", rbac.RoleAdmin)

	w := do(admin, http.MethodGet, "/v1/admin/reports/inquiries", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", w.Code, w.Body.String())
	}
	var out reporting.InquirySummary
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.TotalInquiries != 1 || out.SubmittedInquiries != 1 {
		t.Fatalf("default window should cover 30 days: %+v", out)
	}

	w = do(admin, http.MethodGet, "/v1/admin/reports/inquiries?from=2025-01-01T00:00:00Z&to=2025-06-02T00:00:00Z", "")
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil || out.TotalInquiries != 2 {
		t.Fatalf("explicit range: %d %s", w.Code, w.Body.String())
	}

	if w := do(admin, http.MethodGet, "/v1/admin/reports/inquiries?from=yesterday", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad from, got %d", w.Code)
	}
	if w := do(admin, http.MethodGet, "/v1/admin/reports/inquiries?from=2025-06-02T00:00:00Z&to=2025-06-01T00:00:00Z", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for inverted range, got %d", w.Code)
	}
	if w := do(e.router("u1", rbac.RoleVisitor), http.MethodGet, "/v1/admin/reports/inquiries", ""); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for visitor, got %d", w.Code)
	}
}
