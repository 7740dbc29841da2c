package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/e3ventures/e3cal/internal/config"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.BaseURL = "https://booking.example.com"
	cfg.Session.Secret = "0123456789abcdef0123456789abcdef"
	return cfg
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	m := NewSessionManager(testConfig())

	token, err := m.Issue(Claims{Subject: "g-123", Email: "jane@example.com", Name: "Jane"})
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if claims.Subject != "g-123" || claims.Email != "jane@example.com" || claims.Name != "Jane" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	m := NewSessionManager(testConfig())

	token, err := m.Issue(Claims{Subject: "g-123"})
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := m.Verify(tampered); err != ErrInvalidSession {
		t.Errorf("expected ErrInvalidSession, got %v", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	cfg := testConfig()
	m := NewSessionManager(cfg)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "g-123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	token, err := expired.SignedString([]byte(cfg.Session.Secret))
	if err != nil {
		t.Fatalf("sign expired token: %v", err)
	}

	if _, err := m.Verify(token); err != ErrInvalidSession {
		t.Errorf("expected ErrInvalidSession for expired token, got %v", err)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	other := testConfig()
	other.Session.Secret = "ffffffffffffffffffffffffffffffff"
	token, err := NewSessionManager(other).Issue(Claims{Subject: "g-123"})
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	if _, err := NewSessionManager(testConfig()).Verify(token); err != ErrInvalidSession {
		t.Errorf("expected ErrInvalidSession, got %v", err)
	}
}

func TestSetCookieAttributes(t *testing.T) {
	m := NewSessionManager(testConfig())
	rec := httptest.NewRecorder()

	m.SetCookie(rec, "tok")

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != "e3_session" || c.Value != "tok" {
		t.Errorf("unexpected cookie %s=%s", c.Name, c.Value)
	}
	if !c.HttpOnly || !c.Secure || c.SameSite != http.SameSiteLaxMode || c.Path != "/" {
		t.Errorf("unexpected cookie attributes: %+v", c)
	}
	if c.MaxAge != int((14 * 24 * time.Hour).Seconds()) {
		t.Errorf("expected 14-day Max-Age, got %d", c.MaxAge)
	}
}

func TestClearCookie(t *testing.T) {
	m := NewSessionManager(testConfig())
	rec := httptest.NewRecorder()

	m.ClearCookie(rec)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	if cookies[0].MaxAge >= 0 || cookies[0].Value != "" {
		t.Errorf("expected expired empty cookie, got %+v", cookies[0])
	}
}

func TestRequireSession(t *testing.T) {
	m := NewSessionManager(testConfig())

	var gotClaims *Claims
	handler := m.RequireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	// Without a cookie.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without cookie, got %d", rec.Code)
	}

	// With a garbage cookie.
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: "e3_session", Value: "garbage"})
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with invalid cookie, got %d", rec.Code)
	}

	// With a valid cookie.
	token, err := m.Issue(Claims{Subject: "g-123", Email: "jane@example.com"})
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: "e3_session", Value: token})
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with valid cookie, got %d", rec.Code)
	}
	if gotClaims == nil || gotClaims.Subject != "g-123" {
		t.Errorf("expected claims in context, got %+v", gotClaims)
	}
}
