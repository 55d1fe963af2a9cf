package repository

import (
	"strings"
	"testing"
)

func TestBuildSearchQueryDefaults(t *testing.T) {
	q, args := buildSearchQuery(SearchParams{})
	if !strings.Contains(q, "WHERE t.is_active = 1") {
		t.Fatal("query must filter inactive tutors")
	}
	if strings.Contains(q, "lt.category = ?") {
		t.Fatal("no category filter expected")
	}
	if !strings.Contains(q, "ORDER BY rs.avg_stars DESC, rs.rating_count DESC") {
		t.Fatal("default sort should be rating with count tiebreak")
	}
	if !strings.Contains(q, "LIMIT ?") {
		t.Fatal("query must be limited")
	}
	// Only the limit arg.
	if len(args) != 1 || args[0] != searchLimit {
		t.Fatalf("args = %v, want just the limit %d", args, searchLimit)
	}
}

func TestBuildSearchQueryAllFilters(t *testing.T) {
	lat, lng := 41.0, 29.0
	p := SearchParams{
		Category:       "music",
		Query:          "piano",
		DistrictID:     "d-12",
		MaxPrice:       500,
		MinRating:      4,
		AvailableToday: true,
		Lat:            &lat,
		Lng:            &lng,
		Sort:           "distance",
	}
	q, args := buildSearchQuery(p)

	for _, frag := range []string{
		"lt.category = ?",
		"lt.label LIKE ?",
		"sa.district_id = ?",
		"lp.price_amount <= ?",
		"rs.avg_stars >= ?",
		"DAYOFWEEK(UTC_DATE()) - 1",
		"distance_km",
		"ORDER BY distance_km IS NULL, distance_km ASC",
	} {
		if !strings.Contains(q, frag) {
			t.Fatalf("query missing %q:\n%s", frag, q)
		}
	}

	// 3 Haversine + category + 2 LIKE + district + price + rating + limit.
	if len(args) != 10 {
		t.Fatalf("args = %d values, want 10: %v", len(args), args)
	}
	if args[len(args)-1] != searchLimit {
		t.Fatalf("last arg should be the limit, got %v", args[len(args)-1])
	}
	like, ok := args[4].(string)
	if !ok || like != "%piano%" {
		t.Fatalf("LIKE arg = %v, want %%piano%%", args[4])
	}
}

func TestBuildSearchQuerySorts(t *testing.T) {
	cases := []struct {
		sort string
		want string
	}{
		{"price_asc", "ORDER BY MIN(lp.price_amount) ASC"},
		{"price_desc", "ORDER BY MIN(lp.price_amount) DESC"},
		{"rating", "ORDER BY rs.avg_stars DESC"},
		{"", "ORDER BY rs.avg_stars DESC"},
	}
	for _, tc := range cases {
		q, _ := buildSearchQuery(SearchParams{Sort: tc.sort})
		if !strings.Contains(q, tc.want) {
			t.Fatalf("sort %q: query missing %q", tc.sort, tc.want)
		}
	}
}

func TestBuildSearchQueryDistanceWithoutCoords(t *testing.T) {
	// Asking for distance sort with no coordinates must not inject the
	// Haversine args.
	q, args := buildSearchQuery(SearchParams{Sort: "distance"})
	if !strings.Contains(q, "NULL AS distance_km") {
		t.Fatal("distance column should be NULL without coordinates")
	}
	if len(args) != 1 {
		t.Fatalf("args = %v, want only the limit", args)
	}
}
