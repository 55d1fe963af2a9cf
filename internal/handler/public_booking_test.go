package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func postJSON(t *testing.T, h func(echo.Context) error, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if err := h(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error = %v", err)
	}
	return rec
}

func TestRescheduleRejectsMissingProposedStart(t *testing.T) {
	h := NewPublicBookingHandler(nil, nil, nil, zap.NewNop())
	rec := postJSON(t, h.Reschedule, `{"token":"abc"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestRescheduleRejectsPastProposedStart(t *testing.T) {
	h := NewPublicBookingHandler(nil, nil, nil, zap.NewNop())
	rec := postJSON(t, h.Reschedule, `{"token":"abc","proposed_start_at":"2020-01-01T10:00:00Z"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestRescheduleRejectsMissingToken(t *testing.T) {
	h := NewPublicBookingHandler(nil, nil, nil, zap.NewNop())
	rec := postJSON(t, h.Reschedule, `{"proposed_start_at":"2030-01-01T10:00:00Z"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
