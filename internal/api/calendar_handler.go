package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"
	"google.golang.org/api/calendar/v3"

	"github.com/e3ventures/e3cal/internal/auth"
	"github.com/e3ventures/e3cal/internal/booking"
	"github.com/e3ventures/e3cal/internal/http/errors"
)

const maxEventsPerCalendar = 2500

type calendarEntry struct {
	ID              string `json:"id"`
	Summary         string `json:"summary"`
	Primary         bool   `json:"primary"`
	AccessRole      string `json:"accessRole"`
	BackgroundColor string `json:"backgroundColor"`
	ForegroundColor string `json:"foregroundColor"`
}

// calendarFor resolves the session user's calendar client. A missing
// credential is an auth failure, not an upstream one.
func (h *Handler) calendarFor(w http.ResponseWriter, r *http.Request) (CalendarService, string, bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		errors.Unauthorized(w, r)
		return nil, "", false
	}
	svc, err := h.calendars(r.Context(), claims.Subject)
	if err != nil {
		errors.LogError(r, "build calendar client", err)
		errors.Unauthorized(w, r)
		return nil, "", false
	}
	return svc, claims.Subject, true
}

// ListCalendars passes the user's calendar list through to the client.
func (h *Handler) ListCalendars(w http.ResponseWriter, r *http.Request) {
	svc, _, ok := h.calendarFor(w, r)
	if !ok {
		return
	}

	items, err := svc.ListCalendars(r.Context())
	if err != nil {
		errors.InternalError(w, r, err, "list calendars")
		return
	}

	out := make([]calendarEntry, 0, len(items))
	for _, c := range items {
		out = append(out, calendarEntry{
			ID:              c.Id,
			Summary:         c.Summary,
			Primary:         c.Primary,
			AccessRole:      c.AccessRole,
			BackgroundColor: c.BackgroundColor,
			ForegroundColor: c.ForegroundColor,
		})
	}
	h.respondJSON(w, http.StatusOK, out)
}

// ListEvents fetches events from every requested calendar in one combined,
// normalized response. The calendar color lookup happens once per request
// and is reused across the whole batch.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	svc, _, ok := h.calendarFor(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	timeMin := q.Get("timeMin")
	timeMax := q.Get("timeMax")
	calendarIDs := splitNonEmpty(q.Get("calendars"))

	if timeMin == "" || timeMax == "" || len(calendarIDs) == 0 {
		errors.BadRequest(w, r, "Missing timeMin/timeMax/calendars")
		return
	}

	entries, err := svc.ListCalendars(r.Context())
	if err != nil {
		errors.InternalError(w, r, err, "fetch calendar colors")
		return
	}
	colors := make(map[string]*string, len(entries))
	for _, c := range entries {
		if c.BackgroundColor != "" {
			bg := c.BackgroundColor
			colors[c.Id] = &bg
		}
	}

	// One branch per calendar id; any failure fails the whole response.
	results := make([][]booking.NormalizedEvent, len(calendarIDs))
	g, ctx := errgroup.WithContext(r.Context())
	for i, calID := range calendarIDs {
		i, calID := i, calID
		g.Go(func() error {
			items, err := svc.ListEvents(ctx, calID, timeMin, timeMax, maxEventsPerCalendar)
			if err != nil {
				return err
			}
			normalized := make([]booking.NormalizedEvent, 0, len(items))
			for _, ev := range items {
				normalized = append(normalized, booking.Normalize(ev, calID, colors[calID]))
			}
			results[i] = normalized
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		errors.InternalError(w, r, err, "list events")
		return
	}

	flat := make([]booking.NormalizedEvent, 0)
	for _, batch := range results {
		flat = append(flat, batch...)
	}
	h.respondJSON(w, http.StatusOK, flat)
}

type createEventRequest struct {
	CalendarID  string `json:"calendarId"`
	StartISO    string `json:"startISO"`
	EndISO      string `json:"endISO"`
	ClientName  string `json:"clientName"`
	ClientEmail string `json:"clientEmail"`
	ClientPhone string `json:"clientPhone"`
	ServiceType string `json:"serviceType"`
	StatusTag   string `json:"statusTag"`
	Location    string `json:"location"`
	Notes       string `json:"notes"`
}

// CreateEvent creates a booking on the given calendar with the metadata
// dual-encoded and two fixed popup reminders attached.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	svc, _, ok := h.calendarFor(w, r)
	if !ok {
		return
	}

	var body createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		errors.BadRequest(w, r, "invalid JSON body")
		return
	}

	if body.CalendarID == "" {
		errors.BadRequest(w, r, "calendarId is required")
		return
	}
	if body.StartISO == "" || body.EndISO == "" {
		errors.BadRequest(w, r, "startISO and endISO are required")
		return
	}

	statusTag := strings.ToLower(strings.TrimSpace(body.StatusTag))
	if statusTag == "" {
		statusTag = "pending"
	}
	meta := booking.Metadata{
		ClientName:  strings.TrimSpace(body.ClientName),
		ClientEmail: strings.TrimSpace(body.ClientEmail),
		ClientPhone: strings.TrimSpace(body.ClientPhone),
		ServiceType: strings.TrimSpace(body.ServiceType),
		StatusTag:   statusTag,
	}

	if meta.ClientName == "" {
		errors.BadRequest(w, r, "clientName is required")
		return
	}

	ev := &calendar.Event{
		Summary:     booking.DeriveSummary(meta),
		Location:    strings.TrimSpace(body.Location),
		Description: booking.BuildDescription(body.Notes, meta),
		Start:       &calendar.EventDateTime{DateTime: body.StartISO},
		End:         &calendar.EventDateTime{DateTime: body.EndISO},
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: booking.PrivateProperties(meta),
		},
		Reminders: &calendar.EventReminders{
			UseDefault: false,
			Overrides: []*calendar.EventReminder{
				{Method: "popup", Minutes: 24 * 60},
				{Method: "popup", Minutes: 60},
			},
			// UseDefault=false is meaningful and must reach the wire.
			ForceSendFields: []string{"UseDefault"},
		},
	}

	created, err := svc.InsertEvent(r.Context(), body.CalendarID, ev)
	if err != nil {
		errors.InternalError(w, r, err, "insert event")
		return
	}

	// Color deliberately not looked up after creation.
	h.respondJSON(w, http.StatusOK, map[string]any{
		"ok":    true,
		"event": booking.Normalize(created, body.CalendarID, nil),
	})
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
