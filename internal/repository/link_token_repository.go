package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rizqapp/rizq-server/internal/model"
)

// LinkTokenRepo persists single-use link tokens.  Only SHA-256 hashes are
// stored; lookups take the hash of the presented raw token.  Every failure
// mode surfaces as ErrInvalidToken so a caller probing the endpoint learns
// nothing about which check failed.
type LinkTokenRepo struct {
	db *sql.DB
}

// NewLinkTokenRepo returns a new LinkTokenRepo bound to the given database.
func NewLinkTokenRepo(db *sql.DB) *LinkTokenRepo { return &LinkTokenRepo{db: db} }

// InsertTx stores a freshly issued token hash.
func (r *LinkTokenRepo) InsertTx(ctx context.Context, tx *sql.Tx, t *model.LinkToken) error {
	const q = `INSERT INTO link_tokens (id, lesson_id, token_hash, purpose, expires_at)
	           VALUES (?, ?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, q, t.ID, t.LessonID, t.TokenHash, string(t.Purpose), t.ExpiresAt.UTC())
	return err
}

// MarkUsedTx burns a token.  The WHERE clause re-checks used_at inside the
// transaction, so two concurrent redemptions of the same token cannot both
// succeed: the loser sees zero affected rows and gets ErrInvalidToken.
func (r *LinkTokenRepo) MarkUsedTx(ctx context.Context, tx *sql.Tx, tokenID string) error {
	const q = `UPDATE link_tokens SET used_at = NOW() WHERE id = ? AND used_at IS NULL`
	res, err := tx.ExecContext(ctx, q, tokenID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInvalidToken
	}
	return nil
}

// TokenContext is everything a parent-facing transition needs in one read:
// the token row, the lesson's current state, and per-purpose extras
// (cancellation policy for cancel, owning tutor for rate).
type TokenContext struct {
	Token             model.LinkToken
	LessonID          string
	TutorID           string
	LessonStatus      model.LessonStatus
	ConfirmedStartAt  *time.Time
	CutoffHours       int
	LateCancelPayable bool
}

// FindByHashTx loads the token and its lesson context by hash.  An unknown
// hash maps to ErrInvalidToken.  Redeemability is not checked here; the
// caller applies model.LinkToken.Redeemable against its own clock.
func (r *LinkTokenRepo) FindByHashTx(ctx context.Context, tx *sql.Tx, hash string) (*TokenContext, error) {
	const q = `SELECT t.id, t.lesson_id, t.token_hash, t.purpose, t.expires_at, t.used_at,
	                  l.id, l.tutor_id, l.status, l.confirmed_start_at,
	                  p.cutoff_hours, p.late_cancel_payable
	           FROM link_tokens t
	           JOIN lessons l ON l.id = t.lesson_id
	           JOIN cancellation_policy p ON p.tutor_id = l.tutor_id
	           WHERE t.token_hash = ?`
	var tc TokenContext
	var usedAt, confirmed sql.NullTime
	err := tx.QueryRowContext(ctx, q, hash).Scan(
		&tc.Token.ID, &tc.Token.LessonID, &tc.Token.TokenHash, &tc.Token.Purpose,
		&tc.Token.ExpiresAt, &usedAt,
		&tc.LessonID, &tc.TutorID, &tc.LessonStatus, &confirmed,
		&tc.CutoffHours, &tc.LateCancelPayable,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	if usedAt.Valid {
		t := usedAt.Time.UTC()
		tc.Token.UsedAt = &t
	}
	if confirmed.Valid {
		t := confirmed.Time.UTC()
		tc.ConfirmedStartAt = &t
	}
	tc.Token.ExpiresAt = tc.Token.ExpiresAt.UTC()
	return &tc, nil
}
