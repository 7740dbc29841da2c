package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// CredentialRepo persists Google refresh credentials keyed by user id.
type CredentialRepo struct {
	pool PgxPool
}

// Upsert stores or overwrites the credential for a user.
func (r *CredentialRepo) Upsert(ctx context.Context, userID, refreshToken, email string) error {
	defer observeDB(ctx, "db.credentials.upsert")()
	const q = `INSERT INTO google_oauth_tokens (user_id, refresh_token, email, updated_at)
VALUES ($1, $2, $3, NOW())
ON CONFLICT (user_id) DO UPDATE SET
        refresh_token = EXCLUDED.refresh_token,
        email = EXCLUDED.email,
        updated_at = NOW()`
	if _, err := r.pool.Exec(ctx, q, userID, refreshToken, email); err != nil {
		return fmt.Errorf("upsert credential: %w", err)
	}
	return nil
}

// Get loads the credential for a user. Returns ErrNoCredential when absent.
func (r *CredentialRepo) Get(ctx context.Context, userID string) (*Credential, error) {
	defer observeDB(ctx, "db.credentials.get")()
	const q = `SELECT user_id, refresh_token, email, updated_at
FROM google_oauth_tokens WHERE user_id = $1`
	var c Credential
	err := r.pool.QueryRow(ctx, q, userID).Scan(&c.UserID, &c.RefreshToken, &c.Email, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoCredential
	}
	if err != nil {
		return nil, fmt.Errorf("get credential: %w", err)
	}
	return &c, nil
}

// ListUserIDs returns every user id with a stored credential. The reminder
// sweep fans out over this set.
func (r *CredentialRepo) ListUserIDs(ctx context.Context) ([]string, error) {
	defer observeDB(ctx, "db.credentials.list_user_ids")()
	const q = `SELECT user_id FROM google_oauth_tokens ORDER BY user_id`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list user ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list user ids: %w", err)
	}
	return ids, nil
}
