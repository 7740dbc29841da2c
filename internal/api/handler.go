// Package api exposes the JSON contract consumed by the browser client.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"google.golang.org/api/calendar/v3"

	"github.com/e3ventures/e3cal/internal/auth"
	"github.com/e3ventures/e3cal/internal/config"
	"github.com/e3ventures/e3cal/internal/http/errors"
	"github.com/e3ventures/e3cal/internal/push"
	"github.com/e3ventures/e3cal/internal/store"
)

// CalendarService is the per-user calendar surface the handlers consume.
type CalendarService interface {
	ListCalendars(ctx context.Context) ([]*calendar.CalendarListEntry, error)
	ListEvents(ctx context.Context, calendarID, timeMin, timeMax string, maxResults int64) ([]*calendar.Event, error)
	InsertEvent(ctx context.Context, calendarID string, ev *calendar.Event) (*calendar.Event, error)
}

// CalendarFactory builds a CalendarService acting as the given user.
type CalendarFactory func(ctx context.Context, userID string) (CalendarService, error)

// SubscriptionStore persists push subscriptions.
type SubscriptionStore interface {
	Upsert(ctx context.Context, sub store.PushSubscription) error
}

// Sender delivers a push payload to all of a user's endpoints.
type Sender interface {
	SendToUser(ctx context.Context, userID string, payload push.Payload) (delivered, attempted int, err error)
}

// Sweeper runs one reminder sweep.
type Sweeper interface {
	Run(ctx context.Context) (int, error)
}

// Handler carries the dependencies of all API endpoints.
type Handler struct {
	cfg           *config.Config
	sessions      *auth.SessionManager
	calendars     CalendarFactory
	subscriptions SubscriptionStore
	sender        Sender
	sweeper       Sweeper
}

func NewHandler(cfg *config.Config, sessions *auth.SessionManager, calendars CalendarFactory, subscriptions SubscriptionStore, sender Sender, sweeper Sweeper) *Handler {
	return &Handler{
		cfg:           cfg,
		sessions:      sessions,
		calendars:     calendars,
		subscriptions: subscriptions,
		sender:        sender,
		sweeper:       sweeper,
	}
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Me reports the authenticated user's session claims.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		errors.Unauthorized(w, r)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"ok": true, "user": claims})
}

// Logout clears the session cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.ClearCookie(w)
	h.respondJSON(w, http.StatusOK, map[string]any{"ok": true})
}
