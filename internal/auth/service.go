package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/e3ventures/e3cal/internal/config"
	"github.com/e3ventures/e3cal/internal/http/errors"
)

const googleIssuer = "https://accounts.google.com"

// CredentialStore persists the long-lived Google refresh credential per user.
type CredentialStore interface {
	Upsert(ctx context.Context, userID, refreshToken, email string) error
}

// Service implements the Google OAuth login flow.
type Service struct {
	cfg         *config.Config
	credentials CredentialStore
	sessions    *SessionManager
	oauth       *oauth2.Config
	verifier    *oidc.IDTokenVerifier
}

func NewService(ctx context.Context, cfg *config.Config, credentials CredentialStore, sessions *SessionManager) (*Service, error) {
	provider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, fmt.Errorf("discover google oidc provider: %w", err)
	}

	return &Service{
		cfg:         cfg,
		credentials: credentials,
		sessions:    sessions,
		oauth: &oauth2.Config{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RedirectURL:  cfg.Google.RedirectURL,
			Endpoint:     google.Endpoint,
			Scopes: []string{
				oidc.ScopeOpenID,
				"email",
				"profile",
				"https://www.googleapis.com/auth/calendar",
				"https://www.googleapis.com/auth/calendar.events",
			},
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.Google.ClientID}),
	}, nil
}

// BeginOAuth redirects the browser to the Google consent screen. Offline
// access and a forced consent re-prompt are requested so the callback
// receives a refresh token even for returning users.
func (s *Service) BeginOAuth(w http.ResponseWriter, r *http.Request) {
	url := s.oauth.AuthCodeURL("",
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	)
	http.Redirect(w, r, url, http.StatusFound)
}

// HandleOAuthCallback exchanges the authorization code, persists the refresh
// credential keyed by the Google subject, and starts a session.
func (s *Service) HandleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "Missing code", http.StatusBadRequest)
		return
	}

	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		s.callbackError(w, r, err)
		return
	}

	// Without a refresh token we cannot act on the user's calendar later;
	// send them back through consent instead of minting a session.
	if token.RefreshToken == "" {
		http.Redirect(w, r, s.cfg.BaseURL+"/?auth=needs_reconnect", http.StatusFound)
		return
	}

	rawIDToken, _ := token.Extra("id_token").(string)
	if rawIDToken == "" {
		s.callbackError(w, r, fmt.Errorf("token response did not include an id_token"))
		return
	}

	idToken, err := s.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		s.callbackError(w, r, fmt.Errorf("verify id token: %w", err))
		return
	}

	var identity struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := idToken.Claims(&identity); err != nil {
		s.callbackError(w, r, fmt.Errorf("decode id token claims: %w", err))
		return
	}

	if err := s.credentials.Upsert(ctx, idToken.Subject, token.RefreshToken, identity.Email); err != nil {
		s.callbackError(w, r, fmt.Errorf("persist refresh credential: %w", err))
		return
	}

	session, err := s.sessions.Issue(Claims{
		Subject: idToken.Subject,
		Email:   identity.Email,
		Name:    identity.Name,
	})
	if err != nil {
		s.callbackError(w, r, fmt.Errorf("issue session: %w", err))
		return
	}

	s.sessions.SetCookie(w, session)
	http.Redirect(w, r, s.cfg.BaseURL+"/?auth=success", http.StatusFound)
}

func (s *Service) callbackError(w http.ResponseWriter, r *http.Request, err error) {
	errors.LogError(r, "oauth callback", err)
	http.Error(w, "OAuth callback error: "+err.Error(), http.StatusInternalServerError)
}
