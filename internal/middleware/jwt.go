package middleware // middleware holds the Echo middleware shared by the route groups

import (
	"net/http" // HTTP status codes for responses
	"strings"  // prefix checks on the Authorization header

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/iliyamo/table-reservation/internal/utils" // access token verification
)

// Context keys set by StaffAuth.
const (
	KeyStaffID = "staff_id"
	KeyRole    = "role"
)

// StaffAuth returns an Echo middleware that validates a Bearer access
// token issued to a staff member and stores the staff ID (uint64) and role
// (string) in the context under KeyStaffID and KeyRole.
func StaffAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

			// Signature, algorithm, issuer and expiry are all checked here.
			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			id, err := claims.StaffID()
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}

			c.Set(KeyStaffID, id)
			c.Set(KeyRole, claims.Role)
			return next(c)
		}
	}
}

// StaffID returns the authenticated staff member, if any.
func StaffID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(KeyStaffID).(uint64)
	return id, ok && id != 0
}
