package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/rizqapp/rizq-server/internal/model"
)

// searchLimit caps every discovery result page.
const searchLimit = 50

// SearchParams are the discovery filters.  Zero values mean "no filter".
type SearchParams struct {
	Category       model.LessonCategory
	Query          string
	DistrictID     string
	MaxPrice       float64
	MinRating      float64
	AvailableToday bool
	Lat, Lng       *float64
	Sort           string // "rating" (default), "price_asc", "price_desc", "distance"
}

// SearchResult is one discovery card.
type SearchResult struct {
	TutorID     string   `json:"tutor_id"`
	Name        string   `json:"name"`
	Slug        string   `json:"slug"`
	Subjects    []string `json:"subjects"`
	MinPrice    float64  `json:"min_price"`
	AvgStars    float64  `json:"avg_stars"`
	RatingCount int      `json:"rating_count"`
	DistanceKm  *float64 `json:"distance_km,omitempty"`
}

// buildSearchQuery assembles the discovery SQL from the filters.  Kept pure
// (no database access) so the clause assembly is unit-testable; every
// user-supplied value goes through a placeholder.
func buildSearchQuery(p SearchParams) (string, []any) {
	var sb strings.Builder
	args := make([]any, 0, 8)

	sb.WriteString(`SELECT t.id, t.name, t.slug,
	       GROUP_CONCAT(DISTINCT lt.label ORDER BY lt.label SEPARATOR ','),
	       MIN(lp.price_amount),
	       rs.avg_stars, rs.rating_count`)
	if p.Lat != nil && p.Lng != nil {
		// Haversine over tutors' stored coordinates; NULL for tutors
		// without a location.
		sb.WriteString(`,
	       6371 * ACOS(LEAST(1.0,
	           COS(RADIANS(?)) * COS(RADIANS(t.latitude)) * COS(RADIANS(t.longitude) - RADIANS(?)) +
	           SIN(RADIANS(?)) * SIN(RADIANS(t.latitude)))) AS distance_km`)
		args = append(args, *p.Lat, *p.Lng, *p.Lat)
	} else {
		sb.WriteString(`,
	       NULL AS distance_km`)
	}
	sb.WriteString(`
	FROM tutors t
	JOIN lesson_types lt ON lt.tutor_id = t.id AND lt.active = 1
	JOIN lesson_pricing lp ON lp.lesson_type_id = lt.id AND lp.active = 1
	JOIN tutor_rating_summary rs ON rs.tutor_id = t.id
	WHERE t.is_active = 1`)

	if p.Category != "" {
		sb.WriteString(` AND lt.category = ?`)
		args = append(args, string(p.Category))
	}
	if p.Query != "" {
		sb.WriteString(` AND (lt.label LIKE ? OR t.name LIKE ?)`)
		like := "%" + p.Query + "%"
		args = append(args, like, like)
	}
	if p.DistrictID != "" {
		sb.WriteString(` AND EXISTS (SELECT 1 FROM tutor_service_areas sa WHERE sa.tutor_id = t.id AND sa.district_id = ?)`)
		args = append(args, p.DistrictID)
	}
	if p.MaxPrice > 0 {
		sb.WriteString(` AND lp.price_amount <= ?`)
		args = append(args, p.MaxPrice)
	}
	if p.MinRating > 0 {
		sb.WriteString(` AND rs.avg_stars >= ?`)
		args = append(args, p.MinRating)
	}
	if p.AvailableToday {
		// DAYOFWEEK is 1=Sunday; the template stores 0=Sunday.
		sb.WriteString(` AND EXISTS (SELECT 1 FROM tutor_availability av WHERE av.tutor_id = t.id AND av.day_of_week = DAYOFWEEK(UTC_DATE()) - 1)`)
	}

	sb.WriteString(`
	GROUP BY t.id, t.name, t.slug, rs.avg_stars, rs.rating_count`)

	switch p.Sort {
	case "price_asc":
		sb.WriteString(`
	ORDER BY MIN(lp.price_amount) ASC, rs.avg_stars DESC`)
	case "price_desc":
		sb.WriteString(`
	ORDER BY MIN(lp.price_amount) DESC, rs.avg_stars DESC`)
	case "distance":
		// Tutors without coordinates sort last.
		sb.WriteString(`
	ORDER BY distance_km IS NULL, distance_km ASC`)
	default:
		sb.WriteString(`
	ORDER BY rs.avg_stars DESC, rs.rating_count DESC`)
	}

	sb.WriteString(`
	LIMIT ?`)
	args = append(args, searchLimit)
	return sb.String(), args
}

// Search runs the discovery query.
func (r *TutorRepo) Search(ctx context.Context, p SearchParams) ([]SearchResult, error) {
	q, args := buildSearchQuery(p)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]SearchResult, 0)
	for rows.Next() {
		var res SearchResult
		var subjects sql.NullString
		var dist sql.NullFloat64
		if err := rows.Scan(&res.TutorID, &res.Name, &res.Slug, &subjects, &res.MinPrice,
			&res.AvgStars, &res.RatingCount, &dist); err != nil {
			return nil, err
		}
		res.Subjects = splitCSV(subjects.String)
		if dist.Valid {
			v := dist.Float64
			res.DistanceKm = &v
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// PublicTutorPage is the unauthenticated tutor detail payload: everything a
// parent needs to decide and book, nothing private.
type PublicTutorPage struct {
	Tutor        model.Tutor                      `json:"tutor"`
	Profile      model.TutorProfile               `json:"profile"`
	LessonTypes  []model.LessonType               `json:"lesson_types"`
	Pricing      map[string][]model.LessonPricing `json:"pricing"`
	Availability []model.AvailabilitySlot         `json:"availability"`
	Policy       model.CancellationPolicy         `json:"policy"`
	Summary      model.RatingSummary              `json:"rating_summary"`
	Ratings      []model.Rating                   `json:"ratings"`
}

// RatingSummaryFor returns the tutor's aggregate rating.
func (r *TutorRepo) RatingSummaryFor(ctx context.Context, tutorID string) (*model.RatingSummary, error) {
	const q = `SELECT tutor_id, avg_stars, rating_count FROM tutor_rating_summary WHERE tutor_id = ?`
	var s model.RatingSummary
	if err := r.db.QueryRowContext(ctx, q, tutorID).Scan(&s.TutorID, &s.AvgStars, &s.RatingCount); err != nil {
		return nil, err
	}
	return &s, nil
}
