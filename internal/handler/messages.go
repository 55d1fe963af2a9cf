package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/rizqapp/rizq-server/internal/model"
	"github.com/rizqapp/rizq-server/internal/repository"
)

// MessageHandler serves the append-only note thread attached to a lesson.
// Not a chat: no realtime transport, just a shared log the tutor writes to
// from the lesson view.
type MessageHandler struct {
	messages *repository.MessageRepo
}

// NewMessageHandler wires the lesson message endpoints.
func NewMessageHandler(messages *repository.MessageRepo) *MessageHandler {
	return &MessageHandler{messages: messages}
}

// authorize resolves the lesson owner and checks it is the caller.  ok is
// false when the rejection response has already been written.
func (h *MessageHandler) authorize(c echo.Context, lessonID string) (bool, error) {
	owner, err := h.messages.LessonOwner(c.Request().Context(), lessonID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, c.JSON(http.StatusNotFound, echo.Map{"error": "lesson not found"})
	}
	if err != nil {
		return false, c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	if owner != currentTutorID(c) {
		return false, c.JSON(http.StatusNotFound, echo.Map{"error": "lesson not found"})
	}
	return true, nil
}

// List returns the thread oldest first.
func (h *MessageHandler) List(c echo.Context) error {
	lessonID := c.Param("lessonId")
	if ok, err := h.authorize(c, lessonID); !ok {
		return err
	}
	msgs, err := h.messages.ListByLesson(c.Request().Context(), lessonID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"messages": msgs, "count": len(msgs)})
}

type postMessageReq struct {
	Body string `json:"body"`
}

// Post appends a tutor message to the thread.
func (h *MessageHandler) Post(c echo.Context) error {
	lessonID := c.Param("lessonId")
	if ok, err := h.authorize(c, lessonID); !ok {
		return err
	}
	var req postMessageReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Body = strings.TrimSpace(req.Body)
	if req.Body == "" || len(req.Body) > 2000 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "body must be 1-2000 characters"})
	}

	msg := &model.LessonMessage{
		ID:       uuid.NewString(),
		LessonID: lessonID,
		Sender:   model.ActorTutor,
		Body:     req.Body,
	}
	if err := h.messages.Insert(c.Request().Context(), msg); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(http.StatusCreated, msg)
}
