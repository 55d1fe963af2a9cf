package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/rizqapp/rizq-server/internal/model"
	"github.com/rizqapp/rizq-server/internal/repository"
)

// ProfileHandler serves tutor onboarding and settings: profile, pricing
// setup, cancellation policy, service areas and account erasure.
type ProfileHandler struct {
	tutors   *repository.TutorRepo
	sessions *repository.TokenRepo
	log      *zap.Logger
}

// NewProfileHandler wires the tutor settings endpoints.
func NewProfileHandler(tutors *repository.TutorRepo, sessions *repository.TokenRepo, log *zap.Logger) *ProfileHandler {
	return &ProfileHandler{tutors: tutors, sessions: sessions, log: log}
}

// Get returns the tutor's profile, policy and current catalogue.
func (h *ProfileHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	tutorID := currentTutorID(c)

	tutor, err := h.tutors.GetByID(ctx, tutorID)
	if errors.Is(err, sql.ErrNoRows) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tutor not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	profile, err := h.tutors.GetProfile(ctx, tutorID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	policy, err := h.tutors.GetPolicy(ctx, tutorID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	types, pricing, err := h.tutors.ListLessonTypes(ctx, tutorID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"tutor":        tutor,
		"profile":      profile,
		"policy":       policy,
		"lesson_types": types,
		"pricing":      pricing,
	})
}

type updateProfileReq struct {
	Name            string              `json:"name"`
	Bio             *string             `json:"bio,omitempty"`
	LessonFormats   []string            `json:"lesson_formats"`
	LevelsSupported []string            `json:"levels_supported"`
	Latitude        *float64            `json:"latitude,omitempty"`
	Longitude       *float64            `json:"longitude,omitempty"`
	ServiceAreas    []model.ServiceArea `json:"service_areas"`
}

// Update replaces the tutor's presentation fields, coordinates and
// districts.
func (h *ProfileHandler) Update(c echo.Context) error {
	var req updateProfileReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}

	ctx := c.Request().Context()
	tutorID := currentTutorID(c)

	profile := &model.TutorProfile{
		TutorID:         tutorID,
		Bio:             req.Bio,
		LessonFormats:   req.LessonFormats,
		LevelsSupported: req.LevelsSupported,
	}
	if err := h.tutors.UpdateProfile(ctx, tutorID, req.Name, profile); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	if req.Latitude != nil && req.Longitude != nil {
		if err := h.tutors.SetLocation(ctx, tutorID, *req.Latitude, *req.Longitude); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
		}
	}
	if req.ServiceAreas != nil {
		if err := h.tutors.ReplaceServiceAreas(ctx, tutorID, req.ServiceAreas); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"updated": true})
}

type pricingSetupReq struct {
	LessonTypes []struct {
		Category       string `json:"category"`
		Label          string `json:"label"`
		IsGroupAllowed bool   `json:"is_group_allowed"`
		Prices         []struct {
			DurationMinutes int     `json:"duration_minutes"`
			PriceAmount     float64 `json:"price_amount"`
			Currency        string  `json:"currency"`
		} `json:"prices"`
	} `json:"lesson_types"`
}

// SetupPricing replaces the tutor's catalogue: lesson types with their
// per-duration prices.  Durations outside 30/45/60 and non-positive
// amounts reject the whole submission.
func (h *ProfileHandler) SetupPricing(c echo.Context) error {
	var req pricingSetupReq
	if err := c.Bind(&req); err != nil || len(req.LessonTypes) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "lesson_types required"})
	}

	types := make([]model.LessonType, 0, len(req.LessonTypes))
	pricing := make(map[string][]model.LessonPricing)
	for _, lt := range req.LessonTypes {
		label := strings.TrimSpace(lt.Label)
		cat := model.LessonCategory(lt.Category)
		switch cat {
		case model.CategoryAcademic, model.CategoryLanguage, model.CategoryMusic, model.CategoryFineArts:
		default:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown category"})
		}
		if label == "" || len(lt.Prices) == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "label and prices required"})
		}
		types = append(types, model.LessonType{
			Category:       cat,
			Label:          label,
			IsGroupAllowed: lt.IsGroupAllowed,
		})
		for _, p := range lt.Prices {
			switch p.DurationMinutes {
			case 30, 45, 60:
			default:
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "duration must be 30, 45 or 60 minutes"})
			}
			if p.PriceAmount <= 0 {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "price must be positive"})
			}
			currency := p.Currency
			if currency == "" {
				currency = "USD"
			}
			pricing[label] = append(pricing[label], model.LessonPricing{
				DurationMinutes: p.DurationMinutes,
				PriceAmount:     p.PriceAmount,
				Currency:        currency,
			})
		}
	}

	if err := h.tutors.ReplacePricing(c.Request().Context(), currentTutorID(c), types, pricing); err != nil {
		h.log.Error("pricing setup failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"lesson_types": len(types)})
}

type policyReq struct {
	CutoffHours       int  `json:"cutoff_hours"`
	LateCancelPayable bool `json:"late_cancel_payable"`
}

// UpdatePolicy replaces the cancellation policy.  The cutoff only applies
// to cancellations after this update; past lessons keep their recorded
// lateness.
func (h *ProfileHandler) UpdatePolicy(c echo.Context) error {
	var req policyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.CutoffHours < 0 || req.CutoffHours > 168 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cutoff_hours must be 0-168"})
	}
	err := h.tutors.UpdatePolicy(c.Request().Context(), &model.CancellationPolicy{
		TutorID:           currentTutorID(c),
		CutoffHours:       req.CutoffHours,
		LateCancelPayable: req.LateCancelPayable,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"updated": true})
}

// DeleteAccount erases the tutor.  The tutor row cascades to every
// dependent table; refresh tokens are revoked separately since they are
// not foreign-keyed.
func (h *ProfileHandler) DeleteAccount(c echo.Context) error {
	ctx := c.Request().Context()
	tutorID := currentTutorID(c)

	if err := h.tutors.DeleteAccount(ctx, tutorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tutor not found"})
		}
		h.log.Error("account delete failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	if err := h.sessions.RevokeAllForUser(ctx, tutorID); err != nil {
		h.log.Warn("session revocation after delete failed", zap.Error(err))
	}
	return c.NoContent(http.StatusNoContent)
}
