package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// RequireRole returns middleware that admits only actors holding one of the
// given roles.
func RequireRole(roles ...Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, ok := ActorFromContext(c.Request().Context())
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "no authenticated actor")
			}
			for _, required := range roles {
				if actor.Role == required {
					return next(c)
				}
			}
			names := make([]string, len(roles))
			for i, r := range roles {
				names[i] = string(r)
			}
			return echo.NewHTTPError(http.StatusForbidden,
				"required role: "+strings.Join(names, " or "))
		}
	}
}

// CanAccessPatient reports whether the actor may touch the given patient's
// data: clinicians may touch anyone, patients only themselves.
func CanAccessPatient(actor Actor, patientID string) bool {
	if actor.Role == RoleClinician {
		return true
	}
	return actor.PatientID == patientID
}
