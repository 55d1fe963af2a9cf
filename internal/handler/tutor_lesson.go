package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/rizqapp/rizq-server/internal/booking"
	"github.com/rizqapp/rizq-server/internal/model"
	"github.com/rizqapp/rizq-server/internal/repository"
)

// TutorLessonHandler serves the tutor side of the lifecycle: the inbox and
// the accept/reject/complete/reschedule decisions.
type TutorLessonHandler struct {
	engine  *booking.Engine
	lessons *repository.LessonRepo
	resched *repository.RescheduleRepo
	baseURL string
	log     *zap.Logger
}

// NewTutorLessonHandler wires the tutor lesson endpoints.  baseURL is used
// to render the parent action links that stand in for SMS delivery.
func NewTutorLessonHandler(engine *booking.Engine, lessons *repository.LessonRepo, resched *repository.RescheduleRepo, baseURL string, log *zap.Logger) *TutorLessonHandler {
	return &TutorLessonHandler{engine: engine, lessons: lessons, resched: resched, baseURL: baseURL, log: log}
}

// currentTutorID reads the authenticated tutor from the JWT context.
func currentTutorID(c echo.Context) string {
	id, _ := c.Get("user_id").(string)
	return id
}

// List returns the tutor's lessons, optionally filtered by ?status=.
func (h *TutorLessonHandler) List(c echo.Context) error {
	status := model.LessonStatus(c.QueryParam("status"))
	switch status {
	case "", model.StatusRequested, model.StatusConfirmed, model.StatusCompleted,
		model.StatusCanceled, model.StatusRescheduleRequested:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
	}
	lessons, err := h.lessons.ListByTutor(c.Request().Context(), currentTutorID(c), status)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"lessons": lessons, "count": len(lessons)})
}

// ListReschedules returns the pending reschedule proposals across the
// tutor's lessons.
func (h *TutorLessonHandler) ListReschedules(c echo.Context) error {
	pending, err := h.resched.PendingByTutor(c.Request().Context(), currentTutorID(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"reschedules": pending, "count": len(pending)})
}

// Accept confirms a requested lesson.  The parent's cancel and reschedule
// links are minted here and logged in place of SMS delivery; a lesson
// that is missing, someone else's, or already decided answers 404.
func (h *TutorLessonHandler) Accept(c echo.Context) error {
	res, err := h.engine.Accept(c.Request().Context(), c.Param("id"), currentTutorID(c))
	if err != nil {
		return h.lifecycleError(c, err)
	}
	h.logParentLinks(c.Param("id"), res)
	return c.JSON(http.StatusOK, echo.Map{
		"status":             model.StatusConfirmed,
		"confirmed_start_at": res.ConfirmedStartAt,
	})
}

// Reject declines a requested lesson.
func (h *TutorLessonHandler) Reject(c echo.Context) error {
	if err := h.engine.Reject(c.Request().Context(), c.Param("id"), currentTutorID(c)); err != nil {
		return h.lifecycleError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": model.StatusCanceled})
}

// Complete marks a confirmed lesson as held and mints the rate link.
func (h *TutorLessonHandler) Complete(c echo.Context) error {
	rateToken, err := h.engine.Complete(c.Request().Context(), c.Param("id"), currentTutorID(c))
	if err != nil {
		return h.lifecycleError(c, err)
	}
	// SMS delivery stand-in.
	h.log.Info("parent action link",
		zap.String("lesson_id", c.Param("id")),
		zap.String("rate", h.baseURL+"/rate?token="+rateToken))
	return c.JSON(http.StatusOK, echo.Map{"status": model.StatusCompleted})
}

type rescheduleDecisionReq struct {
	Approve bool `json:"approve"`
}

// DecideReschedule approves or declines the pending proposal.  Either way
// the lesson returns to confirmed; approval moves the start time and mints
// fresh parent links for the new schedule, a decline leaves the parent's
// existing links standing.
func (h *TutorLessonHandler) DecideReschedule(c echo.Context) error {
	var req rescheduleDecisionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	res, err := h.engine.DecideReschedule(c.Request().Context(), c.Param("id"), currentTutorID(c), req.Approve)
	if err != nil {
		return h.lifecycleError(c, err)
	}
	if res.CancelToken != "" {
		h.logParentLinks(c.Param("id"), res)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":             model.StatusConfirmed,
		"approved":           req.Approve,
		"confirmed_start_at": res.ConfirmedStartAt,
	})
}

func (h *TutorLessonHandler) logParentLinks(lessonID string, res *booking.AcceptResult) {
	// SMS delivery stand-in.
	h.log.Info("parent action links",
		zap.String("lesson_id", lessonID),
		zap.String("cancel", h.baseURL+"/cancel?token="+res.CancelToken),
		zap.String("reschedule", h.baseURL+"/reschedule?token="+res.RescheduleToken))
}

// lifecycleError maps engine failures to the tutor-facing contract: a
// conflict (wrong owner, wrong status, unknown lesson) is 404 so probing
// reveals nothing about other tutors' lessons.
func (h *TutorLessonHandler) lifecycleError(c echo.Context, err error) error {
	if errors.Is(err, repository.ErrConflict) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "lesson not found"})
	}
	h.log.Error("lesson transition failed", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
