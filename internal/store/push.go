package store

import (
	"context"
	"fmt"
)

// SubscriptionRepo persists browser push subscriptions.
type SubscriptionRepo struct {
	pool PgxPool
}

// Upsert stores a subscription. Resubscribing the same endpoint overwrites
// its keys rather than duplicating the row.
func (r *SubscriptionRepo) Upsert(ctx context.Context, sub PushSubscription) error {
	defer observeDB(ctx, "db.subscriptions.upsert")()
	const q = `INSERT INTO push_subscriptions (user_id, endpoint, p256dh, auth, updated_at)
VALUES ($1, $2, $3, $4, NOW())
ON CONFLICT (user_id, endpoint) DO UPDATE SET
        p256dh = EXCLUDED.p256dh,
        auth = EXCLUDED.auth,
        updated_at = NOW()`
	if _, err := r.pool.Exec(ctx, q, sub.UserID, sub.Endpoint, sub.P256dh, sub.Auth); err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}

// ListByUser returns all subscriptions registered by a user.
func (r *SubscriptionRepo) ListByUser(ctx context.Context, userID string) ([]PushSubscription, error) {
	defer observeDB(ctx, "db.subscriptions.list")()
	const q = `SELECT user_id, endpoint, p256dh, auth, updated_at
FROM push_subscriptions WHERE user_id = $1`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []PushSubscription
	for rows.Next() {
		var s PushSubscription
		if err := rows.Scan(&s.UserID, &s.Endpoint, &s.P256dh, &s.Auth, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	return subs, nil
}

// ReminderLogRepo records which reminders were already delivered. The
// (user_id, event_id, remind_kind) uniqueness constraint is the sole gate
// against duplicate sends across sweep runs.
type ReminderLogRepo struct {
	pool PgxPool
}

// AlreadySent reports whether a reminder was delivered for this triple.
func (r *ReminderLogRepo) AlreadySent(ctx context.Context, userID, eventID, kind string) (bool, error) {
	defer observeDB(ctx, "db.reminder_log.already_sent")()
	const q = `SELECT EXISTS (
        SELECT 1 FROM push_sent WHERE user_id = $1 AND event_id = $2 AND remind_kind = $3
)`
	var exists bool
	if err := r.pool.QueryRow(ctx, q, userID, eventID, kind).Scan(&exists); err != nil {
		return false, fmt.Errorf("check reminder sent: %w", err)
	}
	return exists, nil
}

// MarkSent records a delivered reminder. Safe to call concurrently; a
// conflicting record is left untouched.
func (r *ReminderLogRepo) MarkSent(ctx context.Context, userID, eventID, kind string) error {
	defer observeDB(ctx, "db.reminder_log.mark_sent")()
	const q = `INSERT INTO push_sent (user_id, event_id, remind_kind, sent_at)
VALUES ($1, $2, $3, NOW())
ON CONFLICT (user_id, event_id, remind_kind) DO NOTHING`
	if _, err := r.pool.Exec(ctx, q, userID, eventID, kind); err != nil {
		return fmt.Errorf("mark reminder sent: %w", err)
	}
	return nil
}
