package handler // handler holds the echo handlers for the public, staff and admin APIs

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/table-reservation/internal/service"
)

// dbTimeout bounds a single request's store work.
const dbTimeout = 5 * time.Second

func withTimeout(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// fail maps service errors onto HTTP statuses.  Store failures are not
// described to the caller.
func fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": message(err, service.ErrInvalidRequest)})
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": message(err, service.ErrNotFound)})
	case errors.Is(err, service.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": message(err, service.ErrConflict)})
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, service.ErrStoreUnavailable):
		c.Logger().Errorf("store unavailable: %v", err)
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "reservations are temporarily unavailable"})
	case errors.Is(err, context.Canceled):
		return c.NoContent(499)
	}
	c.Logger().Errorf("unexpected error: %v", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// message strips the sentinel prefix so the detail reads on its own.
func message(err, sentinel error) string {
	s := err.Error()
	if d := strings.TrimPrefix(s, sentinel.Error()+": "); d != s {
		return d
	}
	return s
}

func badBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
}
