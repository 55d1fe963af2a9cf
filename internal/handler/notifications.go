package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rizqapp/rizq-server/internal/repository"
)

// NotificationHandler serves the tutor's in-app notification feed.
type NotificationHandler struct {
	notes *repository.NotificationRepo
}

// NewNotificationHandler wires the notification endpoints.
func NewNotificationHandler(notes *repository.NotificationRepo) *NotificationHandler {
	return &NotificationHandler{notes: notes}
}

// List returns the newest 50 notifications plus the unread count.
func (h *NotificationHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	tutorID := currentTutorID(c)

	all, err := h.notes.ListByTutor(ctx, tutorID, false, 50)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	unread := 0
	for _, n := range all {
		if !n.Read {
			unread++
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"notifications": all, "unread": unread})
}

type markReadReq struct {
	IDs []string `json:"ids"`
	All bool     `json:"all"`
}

// MarkRead flags notifications as read, either a listed set or everything.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	var req markReadReq
	if err := c.Bind(&req); err != nil || (!req.All && len(req.IDs) == 0) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ids or all required"})
	}

	ctx := c.Request().Context()
	tutorID := currentTutorID(c)

	if req.All {
		unread, err := h.notes.ListByTutor(ctx, tutorID, true, 50)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
		}
		req.IDs = req.IDs[:0]
		for _, n := range unread {
			req.IDs = append(req.IDs, n.ID)
		}
	}

	marked := 0
	for _, id := range req.IDs {
		err := h.notes.MarkRead(ctx, id, tutorID)
		if errors.Is(err, repository.ErrForbidden) {
			continue
		}
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
		}
		marked++
	}
	return c.JSON(http.StatusOK, echo.Map{"marked": marked})
}
