package repository

import (
	"context"
	"database/sql"

	"github.com/rizqapp/rizq-server/internal/model"
)

// RatingRepo persists ratings and the per-tutor aggregate.
type RatingRepo struct {
	db *sql.DB
}

// NewRatingRepo returns a new RatingRepo bound to the given database.
func NewRatingRepo(db *sql.DB) *RatingRepo { return &RatingRepo{db: db} }

// InsertTx writes a rating.  The unique key on lesson_id is the backstop
// against double rating; the single-use rate token prevents it first.
func (r *RatingRepo) InsertTx(ctx context.Context, tx *sql.Tx, rt *model.Rating) error {
	const q = `INSERT INTO ratings (id, lesson_id, tutor_id, stars, comment)
	           VALUES (?, ?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, q, rt.ID, rt.LessonID, rt.TutorID, rt.Stars, rt.Comment)
	return err
}

// StarsForTutorTx loads every visible star value for a tutor so the
// aggregate can be recomputed from scratch within the same transaction as
// the insert.
func (r *RatingRepo) StarsForTutorTx(ctx context.Context, tx *sql.Tx, tutorID string) ([]int, error) {
	const q = `SELECT stars FROM ratings WHERE tutor_id = ? AND is_hidden = 0`
	rows, err := tx.QueryContext(ctx, q, tutorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stars []int
	for rows.Next() {
		var s int
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		stars = append(stars, s)
	}
	return stars, rows.Err()
}

// UpsertSummaryTx writes the recomputed aggregate.
func (r *RatingRepo) UpsertSummaryTx(ctx context.Context, tx *sql.Tx, tutorID string, avg float64, count int) error {
	const q = `INSERT INTO tutor_rating_summary (tutor_id, avg_stars, rating_count)
	           VALUES (?, ?, ?)
	           ON DUPLICATE KEY UPDATE avg_stars = VALUES(avg_stars), rating_count = VALUES(rating_count)`
	_, err := tx.ExecContext(ctx, q, tutorID, avg, count)
	return err
}

// ListVisibleByTutor returns the tutor's visible ratings newest first, for
// the public tutor page.
func (r *RatingRepo) ListVisibleByTutor(ctx context.Context, tutorID string, limit int) ([]model.Rating, error) {
	const q = `SELECT id, lesson_id, tutor_id, stars, comment, is_hidden, created_at
	           FROM ratings
	           WHERE tutor_id = ? AND is_hidden = 0
	           ORDER BY created_at DESC
	           LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, tutorID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Rating, 0)
	for rows.Next() {
		var rt model.Rating
		var comment sql.NullString
		if err := rows.Scan(&rt.ID, &rt.LessonID, &rt.TutorID, &rt.Stars, &comment, &rt.IsHidden, &rt.CreatedAt); err != nil {
			return nil, err
		}
		if comment.Valid {
			v := comment.String
			rt.Comment = &v
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}
