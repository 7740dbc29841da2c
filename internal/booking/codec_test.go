package booking

import (
	"strings"
	"testing"

	"google.golang.org/api/calendar/v3"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	meta := Metadata{
		ClientName:  "Jane Doe",
		ClientEmail: "jane@example.com",
		ClientPhone: "+1 555 0100",
		ServiceType: "Consult",
		StatusTag:   "confirmed",
	}

	ev := &calendar.Event{
		Description: BuildDescription("bring documents", meta),
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: PrivateProperties(meta),
		},
	}

	got := ParseEvent(ev)
	if got != meta {
		t.Errorf("round trip mismatch: got %+v want %+v", got, meta)
	}
}

func TestPrivatePropertiesTakePrecedence(t *testing.T) {
	ev := &calendar.Event{
		Description: "[E3META]\nClient: Wrong Name\nEmail: wrong@example.com\n[/E3META]",
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{
				"e3_client_name": "Right Name",
			},
		},
	}

	got := ParseEvent(ev)
	if got.ClientName != "Right Name" {
		t.Errorf("expected property map to win, got %q", got.ClientName)
	}
	// Email is empty in the property map, so the fallback fills it.
	if got.ClientEmail != "wrong@example.com" {
		t.Errorf("expected fallback to fill empty field, got %q", got.ClientEmail)
	}
}

func TestParseEventFallbackOnly(t *testing.T) {
	ev := &calendar.Event{
		Description: strings.Join([]string{
			"[E3META]",
			"Client: Bob",
			"Email: bob@example.com",
			"Phone: 555-0101",
			"Service: Coaching",
			"Status: Confirmed",
			"[/E3META]",
			"",
			"free text notes",
		}, "\n"),
	}

	got := ParseEvent(ev)
	want := Metadata{
		ClientName:  "Bob",
		ClientEmail: "bob@example.com",
		ClientPhone: "555-0101",
		ServiceType: "Coaching",
		StatusTag:   "Confirmed",
	}
	if got != want {
		t.Errorf("fallback decode mismatch: got %+v want %+v", got, want)
	}
}

func TestParseEventFallbackDetails(t *testing.T) {
	tests := []struct {
		name        string
		description string
		want        Metadata
	}{
		{
			name:        "first non-empty value wins",
			description: "[E3META]\nClient:\nClient: First\nClient: Second\n[/E3META]",
			want:        Metadata{ClientName: "First"},
		},
		{
			name:        "keys are case-insensitive",
			description: "[E3META]\nCLIENT: Ada\nstatus: done\n[/E3META]",
			want:        Metadata{ClientName: "Ada", StatusTag: "done"},
		},
		{
			name:        "unknown keys are ignored",
			description: "[E3META]\nColor: blue\nClient: Ada\n[/E3META]",
			want:        Metadata{ClientName: "Ada"},
		},
		{
			name:        "value may contain colons",
			description: "[E3META]\nService: cut: deluxe\n[/E3META]",
			want:        Metadata{ServiceType: "cut: deluxe"},
		},
		{
			name:        "unterminated block is ignored",
			description: "[E3META]\nClient: Ada",
			want:        Metadata{},
		},
		{
			name:        "no block at all",
			description: "just some notes",
			want:        Metadata{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseEvent(&calendar.Event{Description: tt.description})
			if got != tt.want {
				t.Errorf("got %+v want %+v", got, tt.want)
			}
		})
	}
}

func TestBuildDescription(t *testing.T) {
	meta := Metadata{ClientName: "Jane", ServiceType: "Consult"}

	withNotes := BuildDescription("  extra info  ", meta)
	if !strings.HasPrefix(withNotes, "[E3META]\nClient: Jane\n") {
		t.Errorf("unexpected block start: %q", withNotes)
	}
	if !strings.HasSuffix(withNotes, "[/E3META]\n\nextra info") {
		t.Errorf("notes should follow block after blank line: %q", withNotes)
	}

	withoutNotes := BuildDescription("   ", meta)
	if !strings.HasSuffix(withoutNotes, "[/E3META]") {
		t.Errorf("blank notes should leave bare block: %q", withoutNotes)
	}
}

func TestDeriveSummary(t *testing.T) {
	tests := []struct {
		name string
		meta Metadata
		want string
	}{
		{"name and service", Metadata{ClientName: "Jane", ServiceType: "Consult"}, "Jane — Consult"},
		{"name only", Metadata{ClientName: "Jane"}, "Jane"},
		{"empty", Metadata{}, "Appointment"},
		{"service only", Metadata{ServiceType: "Consult"}, "Appointment"},
		{"whitespace name", Metadata{ClientName: "  ", ServiceType: "Consult"}, "Appointment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveSummary(tt.meta); got != tt.want {
				t.Errorf("DeriveSummary(%+v) = %q, want %q", tt.meta, got, tt.want)
			}
		})
	}
}
