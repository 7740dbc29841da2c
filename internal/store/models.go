package store

import "time"

// Credential is a user's long-lived Google refresh credential.
type Credential struct {
	UserID       string
	RefreshToken string
	Email        string
	UpdatedAt    time.Time
}

// PushSubscription is one browser push endpoint registered by a user.
// A user may hold several, one per browser/device.
type PushSubscription struct {
	UserID    string
	Endpoint  string
	P256dh    string
	Auth      string
	UpdatedAt time.Time
}
