// Package reminder implements the periodic sweep that pushes appointment
// reminders for soon-upcoming events. The sweep is idempotent and
// re-entrant: the durable (user, event, kind) sent-record is the sole gate
// against duplicate sends, so overlapping runs are safe.
package reminder

import (
	"context"
	"log"
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/e3ventures/e3cal/internal/booking"
	"github.com/e3ventures/e3cal/internal/metrics"
	"github.com/e3ventures/e3cal/internal/push"
)

// Window is one fixed lookahead slice ahead of "now".
type Window struct {
	Kind   string
	Offset time.Duration
	Label  string
}

// Windows are the two reminder kinds, each deduplicated independently.
var Windows = []Window{
	{Kind: "h24", Offset: 24 * time.Hour, Label: "24 hours"},
	{Kind: "h1", Offset: time.Hour, Label: "1 hour"},
}

const (
	windowWidth      = 5 * time.Minute
	maxWindowResults = 250
	sweepCalendarID  = "primary"
)

// UserSource lists every user the sweep should consider.
type UserSource interface {
	ListUserIDs(ctx context.Context) ([]string, error)
}

// EventSource fetches a user's events inside a time window.
type EventSource interface {
	ListEvents(ctx context.Context, calendarID, timeMin, timeMax string, maxResults int64) ([]*calendar.Event, error)
}

// EventSourceFactory builds an EventSource acting as the given user.
type EventSourceFactory func(ctx context.Context, userID string) (EventSource, error)

// SentLog is the dedup gate.
type SentLog interface {
	AlreadySent(ctx context.Context, userID, eventID, kind string) (bool, error)
	MarkSent(ctx context.Context, userID, eventID, kind string) error
}

// Sender delivers a push payload to all of a user's endpoints.
type Sender interface {
	SendToUser(ctx context.Context, userID string, payload push.Payload) (delivered, attempted int, err error)
}

// Sweeper runs the reminder sweep across all known users.
type Sweeper struct {
	users     UserSource
	calendars EventSourceFactory
	sentLog   SentLog
	sender    Sender

	now func() time.Time
}

func NewSweeper(users UserSource, calendars EventSourceFactory, sentLog SentLog, sender Sender) *Sweeper {
	return &Sweeper{
		users:     users,
		calendars: calendars,
		sentLog:   sentLog,
		sender:    sender,
		now:       time.Now,
	}
}

// Run executes one sweep and returns the total number of deliveries.
//
// A user whose credential cannot be loaded is skipped; a window whose event
// fetch fails is skipped. Store failures abort the run: without the gate the
// sweep cannot guarantee at-most-once delivery.
func (s *Sweeper) Run(ctx context.Context) (sentTotal int, err error) {
	defer func() { metrics.CountSweepRun(err != nil) }()

	userIDs, err := s.users.ListUserIDs(ctx)
	if err != nil {
		return 0, err
	}

	now := s.now()

	for _, userID := range userIDs {
		events, err := s.calendars(ctx, userID)
		if err != nil {
			log.Printf("[WARN] sweep: skipping user %s: %v", userID, err)
			continue
		}

		for _, w := range Windows {
			timeMin := now.Add(w.Offset).Format(time.RFC3339)
			timeMax := now.Add(w.Offset + windowWidth).Format(time.RFC3339)

			items, err := events.ListEvents(ctx, sweepCalendarID, timeMin, timeMax, maxWindowResults)
			if err != nil {
				log.Printf("[WARN] sweep: skipping window %s for user %s: %v", w.Kind, userID, err)
				continue
			}

			for _, ev := range items {
				if ev.Id == "" || booking.IsAllDay(ev) {
					continue
				}

				sent, err := s.sentLog.AlreadySent(ctx, userID, ev.Id, w.Kind)
				if err != nil {
					return sentTotal, err
				}
				if sent {
					continue
				}

				delivered, _, err := s.sender.SendToUser(ctx, userID, reminderPayload(ev, w))
				if err != nil {
					return sentTotal, err
				}
				if delivered == 0 {
					// No active subscriptions: leave the gate open so a
					// later run can still deliver inside the window.
					continue
				}

				if err := s.sentLog.MarkSent(ctx, userID, ev.Id, w.Kind); err != nil {
					return sentTotal, err
				}
				sentTotal += delivered
				metrics.CountRemindersSent(w.Kind, delivered)
			}
		}
	}

	return sentTotal, nil
}

// Start runs the sweep on a fixed interval until the context is canceled.
func (s *Sweeper) Start(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sent, err := s.Run(ctx)
			if err != nil {
				log.Printf("[ERROR] reminder sweep failed: %v", err)
				continue
			}
			if sent > 0 {
				log.Printf("[INFO] reminder sweep delivered %d pushes", sent)
			}
		}
	}
}

func reminderPayload(ev *calendar.Event, w Window) push.Payload {
	title := "E³ Calendar Reminder"
	if ev.Summary != "" {
		title = "E³ Reminder: " + ev.Summary
	}
	return push.Payload{
		Title: title,
		Body:  "Your appointment is in " + w.Label + ".",
		URL:   "/",
	}
}
