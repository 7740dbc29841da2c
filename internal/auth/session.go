package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/e3ventures/e3cal/internal/config"
)

const (
	sessionCookieName = "e3_session"
	sessionValidity   = 14 * 24 * time.Hour
)

// ErrInvalidSession is returned when a session token is missing, malformed,
// tampered with, or expired.
var ErrInvalidSession = errors.New("invalid session")

// Claims is the identity payload carried by a session token.
type Claims struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
}

type sessionClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// SessionManager signs and verifies session tokens and manages the
// session cookie.
type SessionManager struct {
	secret []byte
	secure bool
}

func NewSessionManager(cfg *config.Config) *SessionManager {
	return &SessionManager{
		secret: []byte(cfg.Session.Secret),
		secure: cfg.CookieSecure(),
	}
}

// Issue signs a session token for the given identity. Issuance is pure;
// callers attach the token via SetCookie.
func (m *SessionManager) Issue(claims Claims) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		Email: claims.Email,
		Name:  claims.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(sessionValidity)),
		},
	})
	return token.SignedString(m.secret)
}

// Verify checks the token signature and expiry and returns the identity.
func (m *SessionManager) Verify(token string) (*Claims, error) {
	var claims sessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidSession
	}
	return &Claims{
		Subject: claims.RegisteredClaims.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
	}, nil
}

// SetCookie attaches a signed session token to the response.
func (m *SessionManager) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(sessionValidity.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie removes the session cookie.
func (m *SessionManager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// FromRequest extracts and verifies the session cookie on a request.
func (m *SessionManager) FromRequest(r *http.Request) (*Claims, error) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil {
		return nil, ErrInvalidSession
	}
	return m.Verify(c.Value)
}
