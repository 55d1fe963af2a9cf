// Package router wires handlers, middleware and route groups onto the Echo
// instance.  Public routes carry no auth; tutor routes sit behind JWTAuth
// plus RequireRole.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/rizqapp/rizq-server/internal/handler"
)

// RegisterRoutes registers routes that need neither authentication nor any
// other dependency.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}
