package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rizqapp/rizq-server/internal/model"
	"github.com/rizqapp/rizq-server/internal/repository"
)

// AvailabilityHandler serves the tutor's weekly template grid.
type AvailabilityHandler struct {
	availability *repository.AvailabilityRepo
	lessons      *repository.LessonRepo
}

// NewAvailabilityHandler wires the availability endpoints.
func NewAvailabilityHandler(availability *repository.AvailabilityRepo, lessons *repository.LessonRepo) *AvailabilityHandler {
	return &AvailabilityHandler{availability: availability, lessons: lessons}
}

// Get returns the template as a map keyed "dow-HH:MM", the current week's
// requested and confirmed lessons overlaid, and counts for the header.
func (h *AvailabilityHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	tutorID := currentTutorID(c)

	slots, err := h.availability.ListByTutor(ctx, tutorID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	grid := make(map[string]model.AvailabilitySlot, len(slots))
	for _, s := range slots {
		grid[s.SlotKey()] = s
	}

	sessions, err := h.lessons.WeekSessions(ctx, tutorID, startOfWeek(time.Now().UTC()))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"slots":    grid,
		"sessions": sessions,
		"summary": echo.Map{
			"slot_count":    len(grid),
			"session_count": len(sessions),
		},
	})
}

type replaceAvailabilityReq struct {
	Slots []string `json:"slots"`
}

// Replace swaps the whole template for the submitted grid keys.  Any
// malformed key rejects the entire request; partial replacement would
// leave the grid in a state the editor never showed.
func (h *AvailabilityHandler) Replace(c echo.Context) error {
	var req replaceAvailabilityReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	seen := make(map[string]bool, len(req.Slots))
	slots := make([]model.AvailabilitySlot, 0, len(req.Slots))
	for _, key := range req.Slots {
		slot, err := model.ParseSlotKey(key)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		if seen[slot.SlotKey()] {
			continue
		}
		seen[slot.SlotKey()] = true
		slots = append(slots, slot)
	}

	if err := h.availability.ReplaceAll(c.Request().Context(), currentTutorID(c), slots); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"slot_count": len(slots)})
}

// startOfWeek returns midnight on the Sunday at or before t.
func startOfWeek(t time.Time) time.Time {
	t = t.Truncate(24 * time.Hour)
	return t.AddDate(0, 0, -int(t.Weekday()))
}
