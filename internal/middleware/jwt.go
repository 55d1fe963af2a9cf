package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/rizqapp/rizq-server/internal/utils"
)

// JWTAuth validates a Bearer access token and injects the subject, role and
// locale claims into the request context under "user_id", "role" and
// "locale".  Wrap protected route groups with it; handlers then read the
// identity via c.Get.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			userID, role, locale, err := utils.ParseAccessToken(secret, raw)
			if err != nil || userID == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			c.Set("user_id", userID)
			c.Set("role", role)
			c.Set("locale", locale)
			return next(c)
		}
	}
}
