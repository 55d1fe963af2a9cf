package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/rizqapp/rizq-server/internal/booking"
	"github.com/rizqapp/rizq-server/internal/middleware"
	"github.com/rizqapp/rizq-server/internal/repository"
)

// PublicBookingHandler serves the parent side of the lifecycle: creating a
// request on a tutor's page and redeeming action links.  Parents carry no
// session; the link token is the whole authorization.
type PublicBookingHandler struct {
	engine      *booking.Engine
	tutors      *repository.TutorRepo
	rateLimiter middleware.Limiter
	log         *zap.Logger
}

// NewPublicBookingHandler wires the parent-facing endpoints.
func NewPublicBookingHandler(engine *booking.Engine, tutors *repository.TutorRepo, rateLimiter middleware.Limiter, log *zap.Logger) *PublicBookingHandler {
	return &PublicBookingHandler{engine: engine, tutors: tutors, rateLimiter: rateLimiter, log: log}
}

type createLessonReq struct {
	LessonTypeID     string  `json:"lesson_type_id"`
	StudentName      string  `json:"student_name"`
	Level            *string `json:"level,omitempty"`
	Note             *string `json:"note,omitempty"`
	DurationMinutes  int     `json:"duration_minutes"`
	RequestedStartAt string  `json:"requested_start_at"`
}

// CreateLesson files a booking request against the tutor named by slug.
// The price is resolved server-side from the tutor's price list; 400 when
// the type/duration pair has no active price.
func (h *PublicBookingHandler) CreateLesson(c echo.Context) error {
	ctx := c.Request().Context()
	tutor, err := h.tutors.GetBySlug(ctx, c.Param("slug"))
	if errors.Is(err, sql.ErrNoRows) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tutor not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	var req createLessonReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.StudentName = strings.TrimSpace(req.StudentName)
	if req.LessonTypeID == "" || req.StudentName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "lesson_type_id and student_name required"})
	}
	switch req.DurationMinutes {
	case 30, 45, 60:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "duration must be 30, 45 or 60 minutes"})
	}
	startAt, err := time.Parse(time.RFC3339, req.RequestedStartAt)
	if err != nil || !startAt.After(time.Now()) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "requested_start_at must be a future RFC3339 time"})
	}

	lesson, err := h.engine.CreateRequest(ctx, booking.CreateRequestInput{
		TutorID:          tutor.ID,
		LessonTypeID:     req.LessonTypeID,
		StudentName:      req.StudentName,
		Level:            req.Level,
		Note:             req.Note,
		DurationMinutes:  req.DurationMinutes,
		RequestedStartAt: startAt,
	})
	if errors.Is(err, repository.ErrNoPrice) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no price for that lesson type and duration"})
	}
	if err != nil {
		h.log.Error("lesson create failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(http.StatusCreated, lesson)
}

type tokenActionReq struct {
	Token           string  `json:"token"`
	Note            *string `json:"note,omitempty"`
	ProposedStartAt *string `json:"proposed_start_at,omitempty"`
	Reason          *string `json:"reason,omitempty"`
	Stars           int     `json:"stars,omitempty"`
	Comment         *string `json:"comment,omitempty"`
}

// Cancel redeems a cancel link.  Any token failure is a generic 401; the
// response reports whether the cancellation was late under the tutor's
// policy and whether the lesson stays payable.
func (h *PublicBookingHandler) Cancel(c echo.Context) error {
	var req tokenActionReq
	if err := c.Bind(&req); err != nil || req.Token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token required"})
	}

	res, err := h.engine.ParentCancel(c.Request().Context(), req.Token, req.Note)
	if err != nil {
		return h.tokenError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"canceled": true,
		"is_late":  res.IsLate,
		"payable":  res.Payable,
	})
}

// Reschedule redeems a reschedule link, filing a proposal for the tutor.
// The proposed time is required; a reschedule without one is meaningless.
func (h *PublicBookingHandler) Reschedule(c echo.Context) error {
	var req tokenActionReq
	if err := c.Bind(&req); err != nil || req.Token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token required"})
	}
	if req.ProposedStartAt == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "proposed_start_at required"})
	}
	proposed, err := time.Parse(time.RFC3339, *req.ProposedStartAt)
	if err != nil || !proposed.After(time.Now()) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "proposed_start_at must be a future RFC3339 time"})
	}

	if err := h.engine.ParentReschedule(c.Request().Context(), req.Token, proposed, req.Reason); err != nil {
		return h.tokenError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reschedule_requested": true})
}

// Rate redeems a rate link.  The per-token budget is enforced here since
// the key arrives in the body.
func (h *PublicBookingHandler) Rate(c echo.Context) error {
	var req tokenActionReq
	if err := c.Bind(&req); err != nil || req.Token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token required"})
	}
	if req.Stars < 1 || req.Stars > 5 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "stars must be between 1 and 5"})
	}
	if req.Comment != nil && len(*req.Comment) > 140 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "comment must be 140 characters or fewer"})
	}

	ctx := c.Request().Context()
	ok, retry, err := h.rateLimiter.Allow(ctx, "rate:"+booking.HashToken(req.Token))
	if err == nil && !ok {
		secs := int(retry.Seconds()) + 1
		c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
		return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "too_many_requests", "retry_after": secs})
	}

	if err := h.engine.Rate(ctx, req.Token, req.Stars, req.Comment); err != nil {
		return h.tokenError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"rated": true})
}

// tokenError collapses every engine failure on a token path into a generic
// 401.  Anything that is not a token problem is a real server error.
func (h *PublicBookingHandler) tokenError(c echo.Context, err error) error {
	if errors.Is(err, repository.ErrInvalidToken) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired link"})
	}
	h.log.Error("token action failed", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
