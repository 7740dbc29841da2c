package api

import (
	"encoding/json"
	"net/http"

	"github.com/e3ventures/e3cal/internal/auth"
	"github.com/e3ventures/e3cal/internal/http/errors"
	"github.com/e3ventures/e3cal/internal/push"
	"github.com/e3ventures/e3cal/internal/store"
)

// VapidKey publishes the server's VAPID public key. Public endpoint.
func (h *Handler) VapidKey(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]any{"publicKey": h.cfg.VAPID.PublicKey})
}

type subscribeRequest struct {
	Subscription struct {
		Endpoint string `json:"endpoint"`
		Keys     struct {
			P256dh string `json:"p256dh"`
			Auth   string `json:"auth"`
		} `json:"keys"`
	} `json:"subscription"`
}

// Subscribe registers (or refreshes) a browser push endpoint for the user.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		errors.Unauthorized(w, r)
		return
	}

	var body subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Subscription.Endpoint == "" {
		errors.BadRequest(w, r, "Missing subscription")
		return
	}

	err := h.subscriptions.Upsert(r.Context(), store.PushSubscription{
		UserID:   claims.Subject,
		Endpoint: body.Subscription.Endpoint,
		P256dh:   body.Subscription.Keys.P256dh,
		Auth:     body.Subscription.Keys.Auth,
	})
	if err != nil {
		errors.InternalError(w, r, err, "store subscription")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// PushTest fires a fixed test notification at every endpoint the caller
// registered. The count reflects attempts, not confirmed deliveries.
func (h *Handler) PushTest(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		errors.Unauthorized(w, r)
		return
	}

	_, attempted, err := h.sender.SendToUser(r.Context(), claims.Subject, push.Payload{
		Title: "E³ Calendar",
		Body:  "Push notifications are working.",
		URL:   "/",
	})
	if err != nil {
		errors.InternalError(w, r, err, "send test push")
		return
	}
	if attempted == 0 {
		h.respondJSON(w, http.StatusOK, map[string]any{
			"ok":      false,
			"message": "No subscriptions saved yet. Click 'Reminders' first.",
		})
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]any{"ok": true, "sent": attempted})
}

// Sweep triggers one reminder sweep. Unauthenticated: meant for a trusted
// scheduler, like the platform cron it replaces.
func (h *Handler) Sweep(w http.ResponseWriter, r *http.Request) {
	sentTotal, err := h.sweeper.Run(r.Context())
	if err != nil {
		errors.InternalError(w, r, err, "reminder sweep")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"ok": true, "sentTotal": sentTotal})
}
