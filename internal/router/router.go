package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/table-reservation/internal/handler"    // HTTP handlers
	"github.com/iliyamo/table-reservation/internal/middleware" // staff auth and role enforcement
	"github.com/iliyamo/table-reservation/internal/model"      // staff roles
)

// RegisterRoutes registers the health endpoints.  db may be nil, in which case only
// liveness is exposed.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health)
	if db != nil {
		e.GET("/readyz", handler.Ready(db))
	}
}

// RegisterAuth registers the staff auth routes.  Login, refresh and
// logout work without an access token; /v1/staff/me needs one.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh) // rotates the refresh token
	g.POST("/logout", a.Logout)

	staff := e.Group("/v1/staff",
		middleware.StaffAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin, model.RoleHost),
	)
	staff.GET("/me", a.Me)
}
