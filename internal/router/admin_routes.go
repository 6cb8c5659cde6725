package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/table-reservation/internal/handler"
	"github.com/iliyamo/table-reservation/internal/middleware"
	"github.com/iliyamo/table-reservation/internal/model"
)

// RegisterAdmin registers the staff dashboard under /v1/admin.  Hosts
// can read and cancel; the floor plan routes need the ADMIN role.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string) {
	g := e.Group("/v1/admin",
		middleware.StaffAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin, model.RoleHost),
	)
	g.GET("/reservations", h.Reservations)
	g.GET("/reservations.csv", h.ExportCSV)
	g.DELETE("/reservations/:reference", h.Cancel)
	g.GET("/customers", h.Customers)
	g.GET("/stats", h.Stats)
	g.GET("/sections", h.Sections)

	admin := g.Group("", middleware.RequireRole(model.RoleAdmin))
	admin.POST("/tables", h.AddTable)
	admin.PATCH("/tables/:id", h.SetTableActive)
	admin.POST("/sections/purge", h.Purge)
}
