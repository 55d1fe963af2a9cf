package repository

import (
	"context"
	"database/sql"
	"time"
)

// TokenRepo stores refresh tokens.  Like link tokens, only the SHA-256 hash
// of the raw value is persisted.  user_id is a string because the two roles
// identify differently: tutors by UUID, parents by phone number.
type TokenRepo struct {
	db *sql.DB
}

// NewTokenRepo returns a new TokenRepo bound to the given database.
func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{db: db} }

// Store saves a refresh token hash for a user.
func (r *TokenRepo) Store(ctx context.Context, userID, role, tokenHash string, expiresAt time.Time) error {
	const q = `INSERT INTO refresh_tokens (user_id, role, token_hash, expires_at)
	           VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, userID, role, tokenHash, expiresAt.UTC())
	return err
}

// Find looks up a live (unexpired, unrevoked) refresh token by hash and
// returns the owning identity.
func (r *TokenRepo) Find(ctx context.Context, tokenHash string) (userID, role string, err error) {
	const q = `SELECT user_id, role FROM refresh_tokens
	           WHERE token_hash = ? AND revoked_at IS NULL AND expires_at > NOW()`
	err = r.db.QueryRowContext(ctx, q, tokenHash).Scan(&userID, &role)
	return userID, role, err
}

// Revoke marks one refresh token as revoked.  Used during rotation so a
// replayed old token stops working.
func (r *TokenRepo) Revoke(ctx context.Context, tokenHash string) error {
	const q = `UPDATE refresh_tokens SET revoked_at = NOW()
	           WHERE token_hash = ? AND revoked_at IS NULL`
	_, err := r.db.ExecContext(ctx, q, tokenHash)
	return err
}

// RevokeAllForUser revokes every live refresh token a user holds, used on
// logout-everywhere and account deletion.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID string) error {
	const q = `UPDATE refresh_tokens SET revoked_at = NOW()
	           WHERE user_id = ? AND revoked_at IS NULL`
	_, err := r.db.ExecContext(ctx, q, userID)
	return err
}

// DeleteExpired prunes rows that expired more than a day ago.  Called
// opportunistically; losing the prune to an error is harmless.
func (r *TokenRepo) DeleteExpired(ctx context.Context) error {
	const q = `DELETE FROM refresh_tokens WHERE expires_at < NOW() - INTERVAL 1 DAY`
	_, err := r.db.ExecContext(ctx, q)
	return err
}
