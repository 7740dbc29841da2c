// Package gcal wraps the Google Calendar API for per-user access. Clients
// are constructed per request from the user's stored refresh credential;
// the oauth2 token source handles access-token refresh transparently.
package gcal

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/e3ventures/e3cal/internal/config"
	"github.com/e3ventures/e3cal/internal/store"
)

// Client is a Google Calendar API client acting as one user.
type Client struct {
	svc *calendar.Service
}

// New builds a calendar client from a refresh credential.
func New(ctx context.Context, cfg *config.Config, refreshToken string) (*Client, error) {
	oc := &oauth2.Config{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RedirectURL:  cfg.Google.RedirectURL,
		Endpoint:     google.Endpoint,
	}
	ts := oc.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})

	svc, err := calendar.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// ListCalendars returns the entries of the user's calendar list.
func (c *Client) ListCalendars(ctx context.Context) ([]*calendar.CalendarListEntry, error) {
	resp, err := c.svc.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list calendars: %w", err)
	}
	return resp.Items, nil
}

// ListEvents fetches events whose start falls in [timeMin, timeMax),
// expanding recurring instances and ordering by start time.
func (c *Client) ListEvents(ctx context.Context, calendarID, timeMin, timeMax string, maxResults int64) ([]*calendar.Event, error) {
	resp, err := c.svc.Events.List(calendarID).
		TimeMin(timeMin).
		TimeMax(timeMax).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(maxResults).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("list events for %s: %w", calendarID, err)
	}
	return resp.Items, nil
}

// InsertEvent creates an event on the given calendar.
func (c *Client) InsertEvent(ctx context.Context, calendarID string, ev *calendar.Event) (*calendar.Event, error) {
	created, err := c.svc.Events.Insert(calendarID, ev).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return created, nil
}

// Factory builds per-user calendar clients from stored credentials.
type Factory struct {
	cfg         *config.Config
	credentials CredentialSource
}

// CredentialSource loads a user's stored refresh credential.
type CredentialSource interface {
	Get(ctx context.Context, userID string) (*store.Credential, error)
}

func NewFactory(cfg *config.Config, credentials CredentialSource) *Factory {
	return &Factory{cfg: cfg, credentials: credentials}
}

// ClientFor constructs a calendar client acting as the given user.
func (f *Factory) ClientFor(ctx context.Context, userID string) (*Client, error) {
	cred, err := f.credentials.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return New(ctx, f.cfg, cred.RefreshToken)
}
