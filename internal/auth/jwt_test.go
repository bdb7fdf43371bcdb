package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"portfolio-api/internal/config"

	"github.com/gin-gonic/gin"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(config.AuthConfig{
		JWTSecret:      "secret",
		JWTIssuer:      "issuer",
		JWTAudience:    "aud",
		AccessTokenTTL: 15 * time.Minute,
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	return m
}

func TestIssueAndVerifyAccessToken(t *testing.T) {
	m := newTestManager(t)

	now := time.Unix(1700000000, 0).UTC()
	tok, err := m.Issue(now, Identity{UserID: "user-1", DisplayName: "Alex", Role: "visitor"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := m.Verify(tok, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "user-1" || claims.DisplayName != "Alex" || claims.Role != "visitor" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	m := newTestManager(t)
	now := time.Unix(1700000000, 0).UTC()
	tok, err := m.Issue(now, Identity{UserID: "u", Role: "visitor"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Verify(tok, now.Add(time.Hour)); err == nil {
		t.Fatalf("expected expiry error")
	}
}

func TestVerifyRejectsMissingRole(t *testing.T) {
	m := newTestManager(t)
	now := time.Now()
	tok, err := m.Issue(now, Identity{UserID: "u"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Verify(tok, now); err == nil {
		t.Fatalf("expected role missing error")
	}
}

func TestRequireAccessToken_QueryTokenOnlyForUpgrade(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := newTestManager(t)
	tok, err := m.Issue(time.Now(), Identity{UserID: "u", DisplayName: "Sam", Role: "visitor"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	r := gin.New()
	r.GET("/ws", RequireAccessToken(m), func(c *gin.Context) {
		c.String(http.StatusOK, DisplayName(c.Request.Context()))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws?token="+tok, nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without upgrade header, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ws?token="+tok, nil)
	req.Header.Set("Upgrade", "websocket")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != "Sam" {
		t.Fatalf("expected 200 Sam, got %d %q", w.Code, w.Body.String())
	}
}
