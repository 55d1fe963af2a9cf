package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/rizqapp/rizq-server/internal/model"
	"github.com/rizqapp/rizq-server/internal/repository"
)

// DiscoverHandler serves the unauthenticated browse surface: tutor search
// and the public tutor page.
type DiscoverHandler struct {
	tutors       *repository.TutorRepo
	ratings      *repository.RatingRepo
	availability *repository.AvailabilityRepo
}

// NewDiscoverHandler wires the public browse endpoints.
func NewDiscoverHandler(tutors *repository.TutorRepo, ratings *repository.RatingRepo, availability *repository.AvailabilityRepo) *DiscoverHandler {
	return &DiscoverHandler{tutors: tutors, ratings: ratings, availability: availability}
}

// Search runs the tutor discovery query.  Unknown filter values are
// ignored rather than rejected so stale client links keep working.
func (h *DiscoverHandler) Search(c echo.Context) error {
	p := repository.SearchParams{
		Query:      strings.TrimSpace(c.QueryParam("q")),
		DistrictID: c.QueryParam("district"),
		Sort:       c.QueryParam("sort"),
	}
	switch cat := model.LessonCategory(c.QueryParam("category")); cat {
	case model.CategoryAcademic, model.CategoryLanguage, model.CategoryMusic, model.CategoryFineArts:
		p.Category = cat
	}
	if v, err := strconv.ParseFloat(c.QueryParam("max_price"), 64); err == nil && v > 0 {
		p.MaxPrice = v
	}
	if v, err := strconv.ParseFloat(c.QueryParam("min_rating"), 64); err == nil && v > 0 {
		p.MinRating = v
	}
	if c.QueryParam("available_today") == "true" {
		p.AvailableToday = true
	}
	lat, latErr := strconv.ParseFloat(c.QueryParam("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.QueryParam("lng"), 64)
	if latErr == nil && lngErr == nil {
		p.Lat, p.Lng = &lat, &lng
	}

	results, err := h.tutors.Search(c.Request().Context(), p)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"results": results, "count": len(results)})
}

// TutorPage returns everything a parent needs to book: profile, subjects,
// pricing, availability template, cancellation policy and ratings.
func (h *DiscoverHandler) TutorPage(c echo.Context) error {
	ctx := c.Request().Context()
	tutor, err := h.tutors.GetBySlug(ctx, c.Param("slug"))
	if errors.Is(err, sql.ErrNoRows) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tutor not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	page := repository.PublicTutorPage{Tutor: *tutor}
	page.Tutor.Phone = "" // never expose the login phone publicly

	if profile, err := h.tutors.GetProfile(ctx, tutor.ID); err == nil {
		page.Profile = *profile
	}
	types, pricing, err := h.tutors.ListLessonTypes(ctx, tutor.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	page.LessonTypes = types
	page.Pricing = pricing

	if slots, err := h.availability.ListByTutor(ctx, tutor.ID); err == nil {
		page.Availability = slots
	}
	if policy, err := h.tutors.GetPolicy(ctx, tutor.ID); err == nil {
		page.Policy = *policy
	}
	if summary, err := h.tutors.RatingSummaryFor(ctx, tutor.ID); err == nil {
		page.Summary = *summary
	}
	if ratings, err := h.ratings.ListVisibleByTutor(ctx, tutor.ID, 20); err == nil {
		page.Ratings = ratings
	}
	return c.JSON(http.StatusOK, page)
}
