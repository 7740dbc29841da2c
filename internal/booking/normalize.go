package booking

import (
	"strings"

	"google.golang.org/api/calendar/v3"
)

// NormalizedEvent is the flat record the browser client consumes: provider
// fields merged with decoded booking metadata.
type NormalizedEvent struct {
	ID            string  `json:"id"`
	CalendarID    string  `json:"calendarId"`
	CalendarColor *string `json:"calendarColor"`
	Summary       string  `json:"summary"`
	Location      string  `json:"location"`
	Description   string  `json:"description"`
	StartISO      string  `json:"startISO"`
	EndISO        string  `json:"endISO"`
	StatusTag     string  `json:"statusTag"`
	ServiceType   string  `json:"serviceType"`
	ClientName    string  `json:"clientName"`
	ClientEmail   string  `json:"clientEmail"`
	ClientPhone   string  `json:"clientPhone"`
}

// Normalize flattens a provider event into the client record. calendarColor
// may be nil when the color was not looked up.
func Normalize(ev *calendar.Event, calendarID string, color *string) NormalizedEvent {
	meta := ParseEvent(ev)

	status := strings.ToLower(meta.StatusTag)
	if status == "" {
		status = "pending"
	}
	service := meta.ServiceType
	if service == "" {
		service = "meeting"
	}

	return NormalizedEvent{
		ID:            ev.Id,
		CalendarID:    calendarID,
		CalendarColor: color,
		Summary:       ev.Summary,
		Location:      ev.Location,
		Description:   ev.Description,
		StartISO:      EventTime(ev.Start),
		EndISO:        EventTime(ev.End),
		StatusTag:     status,
		ServiceType:   service,
		ClientName:    meta.ClientName,
		ClientEmail:   meta.ClientEmail,
		ClientPhone:   meta.ClientPhone,
	}
}

// EventTime resolves an event boundary to whichever the provider populated:
// a timed instant or an all-day date.
func EventTime(dt *calendar.EventDateTime) string {
	if dt == nil {
		return ""
	}
	if dt.DateTime != "" {
		return dt.DateTime
	}
	return dt.Date
}

// IsAllDay reports whether an event carries only a date start.
func IsAllDay(ev *calendar.Event) bool {
	return ev.Start != nil && ev.Start.Date != "" && ev.Start.DateTime == ""
}
