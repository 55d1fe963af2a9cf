package router

import (
	"github.com/labstack/echo/v4"

	"github.com/rizqapp/rizq-server/internal/handler"
	"github.com/rizqapp/rizq-server/internal/middleware"
	"github.com/rizqapp/rizq-server/internal/utils"
)

// RegisterTutor registers every authenticated tutor endpoint under
// /v1/tutor.
func RegisterTutor(e *echo.Echo, jwtSecret string,
	lessons *handler.TutorLessonHandler,
	availability *handler.AvailabilityHandler,
	notifications *handler.NotificationHandler,
	messages *handler.MessageHandler,
	profile *handler.ProfileHandler) {

	g := e.Group("/v1/tutor")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(utils.RoleTutor))

	g.GET("/lessons", lessons.List)
	g.POST("/lessons/:id/accept", lessons.Accept)
	g.POST("/lessons/:id/reject", lessons.Reject)
	g.POST("/lessons/:id/complete", lessons.Complete)
	g.POST("/lessons/:id/reschedule-decision", lessons.DecideReschedule)
	g.GET("/reschedules", lessons.ListReschedules)

	g.GET("/availability", availability.Get)
	g.POST("/availability", availability.Replace)

	g.GET("/notifications", notifications.List)
	g.PATCH("/notifications/read", notifications.MarkRead)

	g.GET("/messages/:lessonId", messages.List)
	g.POST("/messages/:lessonId", messages.Post)

	g.GET("/profile", profile.Get)
	g.PUT("/profile", profile.Update)
	g.POST("/setup/pricing", profile.SetupPricing)
	g.PUT("/policy", profile.UpdatePolicy)
	g.DELETE("/account", profile.DeleteAccount)
}
