package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/table-reservation/internal/handler"
)

// Guest bundles what the unauthenticated API needs.
type Guest struct {
	Reservations *handler.ReservationHandler
	Chat         *handler.ChatHandler
	Sections     echo.HandlerFunc
	FAQ          echo.HandlerFunc
	// Limit throttles the endpoints that write or call out.
	Limit echo.MiddlewareFunc
}

// RegisterGuest registers the public booking, chat and FAQ endpoints
// under /v1.
func RegisterGuest(e *echo.Echo, g Guest) {
	limit := g.Limit
	if limit == nil {
		limit = func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	v1 := e.Group("/v1")

	r := g.Reservations
	v1.GET("/availability", r.Availability)
	v1.GET("/options", r.Options)
	v1.GET("/available-times", r.AvailableTimes)
	v1.GET("/menu", r.Menu)
	v1.POST("/reservations", r.Book, limit)
	v1.POST("/reservations/commit", r.Commit, limit)
	v1.GET("/reservations/:reference", r.Get)
	v1.PATCH("/reservations/:reference", r.Reschedule, limit)
	v1.DELETE("/reservations/:reference", r.Cancel, limit)
	v1.POST("/reservations/:reference/items", r.AddItems, limit)

	if g.Sections != nil {
		v1.GET("/sections", g.Sections)
	}
	if g.Chat != nil {
		v1.POST("/chat", g.Chat.Message, limit)
		v1.DELETE("/chat/:session", g.Chat.Reset)
	}
	if g.FAQ != nil {
		v1.POST("/faq", g.FAQ, limit)
	}
}
