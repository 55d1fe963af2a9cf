package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/rizqapp/rizq-server/internal/config"
	"github.com/rizqapp/rizq-server/internal/middleware"
	"github.com/rizqapp/rizq-server/internal/model"
	"github.com/rizqapp/rizq-server/internal/otp"
	"github.com/rizqapp/rizq-server/internal/repository"
	"github.com/rizqapp/rizq-server/internal/utils"
)

var phoneRe = regexp.MustCompile(`^\+?[0-9]{8,15}$`)

// AuthHandler implements phone/OTP login and session management.  Tutors
// are provisioned on first contact; parents get sessions keyed by phone
// with no database row.
type AuthHandler struct {
	cfg        config.Config
	tutors     *repository.TutorRepo
	sessions   *repository.TokenRepo
	codes      *otp.Store
	otpLimiter middleware.Limiter
	log        *zap.Logger
}

// NewAuthHandler wires the auth endpoints.  codes may be nil when Redis is
// down; OTP login then answers 503.
func NewAuthHandler(cfg config.Config, tutors *repository.TutorRepo, sessions *repository.TokenRepo, codes *otp.Store, otpLimiter middleware.Limiter, log *zap.Logger) *AuthHandler {
	return &AuthHandler{cfg: cfg, tutors: tutors, sessions: sessions, codes: codes, otpLimiter: otpLimiter, log: log}
}

type otpSendReq struct {
	Phone string `json:"phone"`
	Role  string `json:"role"`
}

// OTPSend issues a login code for a phone.  Per-phone budget enforced
// here rather than in middleware because the key lives in the body.
// The code is logged as a stand-in for SMS delivery.
func (h *AuthHandler) OTPSend(c echo.Context) error {
	var req otpSendReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Phone = strings.TrimSpace(req.Phone)
	if !phoneRe.MatchString(req.Phone) || !validRole(req.Role) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid phone or role"})
	}
	if h.codes == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "login temporarily unavailable"})
	}

	ctx := c.Request().Context()
	ok, retry, err := h.otpLimiter.Allow(ctx, "otp:"+req.Phone)
	if err == nil && !ok {
		secs := int(retry.Seconds()) + 1
		c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
		return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "too_many_requests", "retry_after": secs})
	}

	code, err := h.codes.Issue(ctx, req.Phone, req.Role)
	if err != nil {
		h.log.Error("otp issue failed", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "login temporarily unavailable"})
	}

	// SMS delivery stand-in.
	h.log.Info("otp code issued",
		zap.String("phone", req.Phone),
		zap.String("role", req.Role),
		zap.String("code", code))

	return c.JSON(http.StatusOK, echo.Map{"sent": true})
}

type otpVerifyReq struct {
	Phone  string `json:"phone"`
	Code   string `json:"code"`
	Role   string `json:"role"`
	Locale string `json:"locale"`
}

// OTPVerify exchanges a valid code for an access/refresh token pair.  A
// TUTOR phone seen for the first time gets a tutor row with default
// profile, policy and rating summary.
func (h *AuthHandler) OTPVerify(c echo.Context) error {
	var req otpVerifyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Phone = strings.TrimSpace(req.Phone)
	if !phoneRe.MatchString(req.Phone) || !validRole(req.Role) || req.Code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid phone, code or role"})
	}
	if h.codes == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "login temporarily unavailable"})
	}
	if req.Locale == "" {
		req.Locale = "en"
	}

	ctx := c.Request().Context()
	if err := h.codes.Verify(ctx, req.Phone, req.Role, req.Code); err != nil {
		switch {
		case errors.Is(err, otp.ErrCodeMismatch),
			errors.Is(err, otp.ErrCodeExpired),
			errors.Is(err, otp.ErrTooManyTries):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid code"})
		default:
			h.log.Error("otp verify failed", zap.Error(err))
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "login temporarily unavailable"})
		}
	}

	// Tutors are identified by UUID, parents by phone.
	userID := req.Phone
	if req.Role == utils.RoleTutor {
		t, err := h.tutors.GetByPhone(ctx, req.Phone)
		if errors.Is(err, sql.ErrNoRows) {
			t = &model.Tutor{
				ID:    uuid.NewString(),
				Phone: req.Phone,
				Name:  "New tutor",
				Slug:  "tutor-" + uuid.NewString()[:8],
			}
			if err := h.tutors.CreateWithDefaults(ctx, t); err != nil {
				h.log.Error("tutor provisioning failed", zap.Error(err))
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
			}
		} else if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
		}
		userID = t.ID
	}

	return h.issueSession(c, userID, req.Role, req.Locale)
}

func (h *AuthHandler) issueSession(c echo.Context, userID, role, locale string) error {
	access, err := utils.NewAccessToken(h.cfg.JWTSecret, userID, role, locale, h.cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	refresh, err := utils.NewRefreshToken(h.cfg.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	if err := h.sessions.Store(c.Request().Context(), userID, role, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		h.log.Error("refresh token store failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access_token":       access.Token,
		"access_expires_at":  access.Exp,
		"refresh_token":      refresh.Raw,
		"refresh_expires_at": refresh.Exp,
		"role":               role,
	})
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
	Locale       string `json:"locale"`
}

// Refresh rotates a refresh token: the presented token is revoked and a
// new pair is issued, so a replayed old token stops working.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	if req.Locale == "" {
		req.Locale = "en"
	}

	ctx := c.Request().Context()
	hash := utils.HashRefreshRaw(req.RefreshToken)
	userID, role, err := h.sessions.Find(ctx, hash)
	if errors.Is(err, sql.ErrNoRows) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	if err := h.sessions.Revoke(ctx, hash); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return h.issueSession(c, userID, role, req.Locale)
}

// Logout revokes the presented refresh token.  Idempotent: revoking an
// already-revoked token still answers 204.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	if err := h.sessions.Revoke(c.Request().Context(), utils.HashRefreshRaw(req.RefreshToken)); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated identity from the access token claims.
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"user_id": c.Get("user_id"),
		"role":    c.Get("role"),
		"locale":  c.Get("locale"),
	})
}

func validRole(role string) bool {
	return role == utils.RoleTutor || role == utils.RoleParent
}
