package router

import (
	"github.com/labstack/echo/v4"

	"github.com/rizqapp/rizq-server/internal/handler"
	"github.com/rizqapp/rizq-server/internal/middleware"
)

// RegisterAuth registers the phone/OTP session endpoints plus /v1/me.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/otp/send", a.OTPSend)
	g.POST("/otp/verify", a.OTPVerify)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	me := e.Group("/v1")
	me.Use(middleware.JWTAuth(jwtSecret))
	me.GET("/me", a.Me)
}

// RegisterPublic registers the unauthenticated browse and booking surface.
// Discovery responses go through the Redis cache; booking creation spends
// the per-tutor budget keyed by the slug in the path.
func RegisterPublic(e *echo.Echo, d *handler.DiscoverHandler, b *handler.PublicBookingHandler,
	cache echo.MiddlewareFunc, bookingLimiter middleware.Limiter) {

	e.GET("/v1/search/tutors", d.Search, cache)
	e.GET("/v1/tutors/:slug", d.TutorPage)

	e.POST("/v1/tutors/:slug/lessons", b.CreateLesson,
		middleware.RateLimit(bookingLimiter, "booking", func(c echo.Context) string {
			return c.Param("slug")
		}))

	// Parent action links.  The token in the body is the authorization;
	// failures collapse to a generic 401.
	actions := e.Group("/v1/lessons/actions")
	actions.POST("/cancel", b.Cancel)
	actions.POST("/reschedule", b.Reschedule)
	actions.POST("/rate", b.Rate)
}
