package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/rizqapp/rizq-server/internal/model"
)

// TutorRepo persists tutors and their satellite rows: profile, lesson
// types, pricing, cancellation policy, service areas.
type TutorRepo struct {
	db *sql.DB
}

// NewTutorRepo returns a new TutorRepo bound to the given database.
func NewTutorRepo(db *sql.DB) *TutorRepo { return &TutorRepo{db: db} }

// DB exposes the underlying handle for cross-repository transactions.
func (r *TutorRepo) DB() *sql.DB { return r.db }

// GetByPhone fetches a tutor by phone number.  sql.ErrNoRows when the phone
// is unknown, which the OTP flow treats as "create on first login".
func (r *TutorRepo) GetByPhone(ctx context.Context, phone string) (*model.Tutor, error) {
	const q = `SELECT id, phone, name, slug, is_active, latitude, longitude, created_at, updated_at
	           FROM tutors WHERE phone = ?`
	return r.scanTutor(r.db.QueryRowContext(ctx, q, phone))
}

// GetByID fetches a tutor by primary key.
func (r *TutorRepo) GetByID(ctx context.Context, id string) (*model.Tutor, error) {
	const q = `SELECT id, phone, name, slug, is_active, latitude, longitude, created_at, updated_at
	           FROM tutors WHERE id = ?`
	return r.scanTutor(r.db.QueryRowContext(ctx, q, id))
}

// GetBySlug fetches an active tutor by public slug.
func (r *TutorRepo) GetBySlug(ctx context.Context, slug string) (*model.Tutor, error) {
	const q = `SELECT id, phone, name, slug, is_active, latitude, longitude, created_at, updated_at
	           FROM tutors WHERE slug = ? AND is_active = 1`
	return r.scanTutor(r.db.QueryRowContext(ctx, q, slug))
}

func (r *TutorRepo) scanTutor(row *sql.Row) (*model.Tutor, error) {
	var t model.Tutor
	var lat, lng sql.NullFloat64
	err := row.Scan(&t.ID, &t.Phone, &t.Name, &t.Slug, &t.IsActive, &lat, &lng, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if lat.Valid {
		v := lat.Float64
		t.Latitude = &v
	}
	if lng.Valid {
		v := lng.Float64
		t.Longitude = &v
	}
	return &t, nil
}

// CreateWithDefaults inserts a tutor along with the empty profile, default
// cancellation policy (24h cutoff) and zeroed rating summary, all in one
// transaction.  Called on first OTP login for an unknown phone.
func (r *TutorRepo) CreateWithDefaults(ctx context.Context, t *model.Tutor) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	const q = `INSERT INTO tutors (id, phone, name, slug, is_active, latitude, longitude)
	           VALUES (?, ?, ?, ?, 1, ?, ?)`
	if _, err := tx.ExecContext(ctx, q, t.ID, t.Phone, t.Name, t.Slug, t.Latitude, t.Longitude); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO tutor_profiles (tutor_id) VALUES (?)`, t.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO cancellation_policy (tutor_id) VALUES (?)`, t.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO tutor_rating_summary (tutor_id) VALUES (?)`, t.ID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetProfile returns the tutor's presentation fields.
func (r *TutorRepo) GetProfile(ctx context.Context, tutorID string) (*model.TutorProfile, error) {
	const q = `SELECT tutor_id, bio, lesson_formats, levels_supported FROM tutor_profiles WHERE tutor_id = ?`
	var p model.TutorProfile
	var bio sql.NullString
	var formats, levels string
	if err := r.db.QueryRowContext(ctx, q, tutorID).Scan(&p.TutorID, &bio, &formats, &levels); err != nil {
		return nil, err
	}
	if bio.Valid {
		v := bio.String
		p.Bio = &v
	}
	p.LessonFormats = splitCSV(formats)
	p.LevelsSupported = splitCSV(levels)
	return &p, nil
}

// UpdateProfile replaces the tutor's presentation fields and display name.
func (r *TutorRepo) UpdateProfile(ctx context.Context, tutorID, name string, p *model.TutorProfile) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, `UPDATE tutors SET name = ? WHERE id = ?`, name, tutorID); err != nil {
		return err
	}
	const q = `UPDATE tutor_profiles SET bio = ?, lesson_formats = ?, levels_supported = ? WHERE tutor_id = ?`
	if _, err := tx.ExecContext(ctx, q, p.Bio, joinCSV(p.LessonFormats), joinCSV(p.LevelsSupported), tutorID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// ReplacePricing swaps the tutor's lesson types and price list in one
// transaction.  The pricing editor submits the full catalogue, so old rows
// are deactivated rather than deleted to keep existing lessons' foreign
// keys valid.
func (r *TutorRepo) ReplacePricing(ctx context.Context, tutorID string, types []model.LessonType, pricing map[string][]model.LessonPricing) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, `UPDATE lesson_types SET active = 0 WHERE tutor_id = ?`, tutorID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE lesson_pricing SET active = 0
		 WHERE lesson_type_id IN (SELECT id FROM lesson_types WHERE tutor_id = ?)`, tutorID); err != nil {
		return err
	}

	const insType = `INSERT INTO lesson_types (id, tutor_id, category, label, is_group_allowed, active)
	                 VALUES (?, ?, ?, ?, ?, 1)
	                 ON DUPLICATE KEY UPDATE category = VALUES(category), label = VALUES(label),
	                                         is_group_allowed = VALUES(is_group_allowed), active = 1`
	const insPrice = `INSERT INTO lesson_pricing (id, lesson_type_id, duration_minutes, price_amount, currency, active)
	                  VALUES (?, ?, ?, ?, ?, 1)`
	for _, lt := range types {
		if lt.ID == "" {
			lt.ID = uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx, insType, lt.ID, tutorID, string(lt.Category), lt.Label, lt.IsGroupAllowed); err != nil {
			return err
		}
		for _, pr := range pricing[lt.Label] {
			if _, err := tx.ExecContext(ctx, insPrice, uuid.NewString(), lt.ID, pr.DurationMinutes, pr.PriceAmount, pr.Currency); err != nil {
				return err
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// ListLessonTypes returns the tutor's active lesson types with their active
// price entries.
func (r *TutorRepo) ListLessonTypes(ctx context.Context, tutorID string) ([]model.LessonType, map[string][]model.LessonPricing, error) {
	const q = `SELECT id, tutor_id, category, label, is_group_allowed, active
	           FROM lesson_types WHERE tutor_id = ? AND active = 1 ORDER BY label`
	rows, err := r.db.QueryContext(ctx, q, tutorID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	types := make([]model.LessonType, 0)
	for rows.Next() {
		var lt model.LessonType
		if err := rows.Scan(&lt.ID, &lt.TutorID, &lt.Category, &lt.Label, &lt.IsGroupAllowed, &lt.Active); err != nil {
			return nil, nil, err
		}
		types = append(types, lt)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	const pq = `SELECT p.id, p.lesson_type_id, p.duration_minutes, p.price_amount, p.currency, p.active
	            FROM lesson_pricing p
	            JOIN lesson_types t ON t.id = p.lesson_type_id
	            WHERE t.tutor_id = ? AND p.active = 1 AND t.active = 1
	            ORDER BY p.duration_minutes`
	prows, err := r.db.QueryContext(ctx, pq, tutorID)
	if err != nil {
		return nil, nil, err
	}
	defer prows.Close()

	pricing := make(map[string][]model.LessonPricing)
	for prows.Next() {
		var pr model.LessonPricing
		if err := prows.Scan(&pr.ID, &pr.LessonTypeID, &pr.DurationMinutes, &pr.PriceAmount, &pr.Currency, &pr.Active); err != nil {
			return nil, nil, err
		}
		pricing[pr.LessonTypeID] = append(pricing[pr.LessonTypeID], pr)
	}
	return types, pricing, prows.Err()
}

// PriceFor resolves the canonical price for a (tutor, lesson type,
// duration) triple.  ErrNoPrice when no active entry matches, which also
// covers a lesson type that belongs to a different tutor.
func (r *TutorRepo) PriceFor(ctx context.Context, tutorID, lessonTypeID string, durationMinutes int) (float64, error) {
	const q = `SELECT p.price_amount
	           FROM lesson_pricing p
	           JOIN lesson_types t ON t.id = p.lesson_type_id
	           WHERE t.tutor_id = ? AND p.lesson_type_id = ? AND p.duration_minutes = ?
	             AND p.active = 1 AND t.active = 1`
	var price float64
	err := r.db.QueryRowContext(ctx, q, tutorID, lessonTypeID, durationMinutes).Scan(&price)
	if err == sql.ErrNoRows {
		return 0, ErrNoPrice
	}
	if err != nil {
		return 0, err
	}
	return price, nil
}

// GetPolicy returns the tutor's cancellation policy.
func (r *TutorRepo) GetPolicy(ctx context.Context, tutorID string) (*model.CancellationPolicy, error) {
	const q = `SELECT tutor_id, cutoff_hours, late_cancel_payable FROM cancellation_policy WHERE tutor_id = ?`
	var p model.CancellationPolicy
	if err := r.db.QueryRowContext(ctx, q, tutorID).Scan(&p.TutorID, &p.CutoffHours, &p.LateCancelPayable); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdatePolicy replaces the tutor's cancellation policy.
func (r *TutorRepo) UpdatePolicy(ctx context.Context, p *model.CancellationPolicy) error {
	const q = `UPDATE cancellation_policy SET cutoff_hours = ?, late_cancel_payable = ? WHERE tutor_id = ?`
	_, err := r.db.ExecContext(ctx, q, p.CutoffHours, p.LateCancelPayable, p.TutorID)
	return err
}

// ReplaceServiceAreas swaps the tutor's district list.
func (r *TutorRepo) ReplaceServiceAreas(ctx context.Context, tutorID string, areas []model.ServiceArea) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tutor_service_areas WHERE tutor_id = ?`, tutorID); err != nil {
		return err
	}
	const ins = `INSERT INTO tutor_service_areas (id, tutor_id, district_id, district_label, latitude, longitude)
	             VALUES (?, ?, ?, ?, ?, ?)`
	for _, a := range areas {
		if _, err := tx.ExecContext(ctx, ins, uuid.NewString(), tutorID, a.DistrictID, a.DistrictLabel, a.Latitude, a.Longitude); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// SetLocation updates the tutor's coordinates used by distance search.
func (r *TutorRepo) SetLocation(ctx context.Context, tutorID string, lat, lng float64) error {
	const q = `UPDATE tutors SET latitude = ?, longitude = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, lat, lng, tutorID)
	return err
}

// DeleteAccount removes the tutor row; every satellite table cascades.
// Refresh-token revocation is the caller's job since those rows are not
// keyed by foreign key.
func (r *TutorRepo) DeleteAccount(ctx context.Context, tutorID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tutors WHERE id = ?`, tutorID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func splitCSV(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func joinCSV(parts []string) string {
	return strings.Join(parts, ",")
}
