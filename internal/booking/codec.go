// Package booking encodes client-booking metadata onto Google Calendar
// events. The primary copy lives in the event's private extended properties;
// a human-readable fallback block is embedded in the description so events
// edited or created outside this system can still be recovered.
package booking

import (
	"fmt"
	"strings"

	"google.golang.org/api/calendar/v3"
)

// Metadata holds the booking fields attached to a calendar event.
type Metadata struct {
	ClientName  string
	ClientEmail string
	ClientPhone string
	ServiceType string
	StatusTag   string
}

const (
	propClientName  = "e3_client_name"
	propClientEmail = "e3_client_email"
	propClientPhone = "e3_client_phone"
	propServiceType = "e3_service_type"
	propStatus      = "e3_status"

	metaBlockStart = "[E3META]"
	metaBlockEnd   = "[/E3META]"
)

// PrivateProperties renders the metadata as the event's private
// extended-property map. All five keys are always present.
func PrivateProperties(m Metadata) map[string]string {
	return map[string]string{
		propClientName:  m.ClientName,
		propClientEmail: m.ClientEmail,
		propClientPhone: m.ClientPhone,
		propServiceType: m.ServiceType,
		propStatus:      m.StatusTag,
	}
}

// BuildDescription renders the fallback metadata block, followed by the
// user's free-text notes when present.
func BuildDescription(notes string, m Metadata) string {
	block := fmt.Sprintf("%s\nClient: %s\nEmail: %s\nPhone: %s\nService: %s\nStatus: %s\n%s",
		metaBlockStart, m.ClientName, m.ClientEmail, m.ClientPhone, m.ServiceType, m.StatusTag, metaBlockEnd)
	if clean := strings.TrimSpace(notes); clean != "" {
		return block + "\n\n" + clean
	}
	return block
}

// ParseEvent recovers booking metadata from an event. Private properties
// take precedence field-by-field; the description block only fills fields
// the property map left empty. Within the block, the first non-empty value
// per field wins.
func ParseEvent(ev *calendar.Event) Metadata {
	var m Metadata
	if ev == nil {
		return m
	}

	if ev.ExtendedProperties != nil && ev.ExtendedProperties.Private != nil {
		priv := ev.ExtendedProperties.Private
		m.ClientName = priv[propClientName]
		m.ClientEmail = priv[propClientEmail]
		m.ClientPhone = priv[propClientPhone]
		m.ServiceType = priv[propServiceType]
		m.StatusTag = priv[propStatus]
	}

	for _, line := range metaBlockLines(ev.Description) {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "client":
			if m.ClientName == "" {
				m.ClientName = value
			}
		case "email":
			if m.ClientEmail == "" {
				m.ClientEmail = value
			}
		case "phone":
			if m.ClientPhone == "" {
				m.ClientPhone = value
			}
		case "service":
			if m.ServiceType == "" {
				m.ServiceType = value
			}
		case "status":
			if m.StatusTag == "" {
				m.StatusTag = value
			}
		}
	}

	return m
}

// metaBlockLines extracts the non-empty lines between the first block
// markers in a description, or nil when no complete block exists.
func metaBlockLines(description string) []string {
	var lines []string
	inBlock := false
	for _, raw := range strings.Split(description, "\n") {
		line := strings.TrimSpace(raw)
		if !inBlock {
			if strings.HasPrefix(raw, metaBlockStart) {
				inBlock = true
			}
			continue
		}
		if strings.HasPrefix(raw, metaBlockEnd) {
			return lines
		}
		if line != "" {
			lines = append(lines, line)
		}
	}
	// Unterminated block: ignore it entirely.
	return nil
}

// DeriveSummary builds the event title from booking metadata.
func DeriveSummary(m Metadata) string {
	name := strings.TrimSpace(m.ClientName)
	svc := strings.TrimSpace(m.ServiceType)
	if name != "" && svc != "" {
		return name + " — " + svc
	}
	if name != "" {
		return name
	}
	return "Appointment"
}
