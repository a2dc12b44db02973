package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type contextKey string

// ActorKey carries the resolved actor through the request context.
const ActorKey contextKey = "actor"

// Role is the actor's access level. Clinicians may rewrite any history
// field; patients may only add to what is already recorded.
type Role string

const (
	RoleClinician Role = "clinician"
	RolePatient   Role = "patient"
)

// Valid reports whether the role is one the system knows.
func (r Role) Valid() bool {
	return r == RoleClinician || r == RolePatient
}

// Actor is the resolved identity behind a request.
type Actor struct {
	Subject   string // token subject, typically an email
	PatientID string // set on patient-role tokens; the patient the actor is
	Role      Role
}

// Claims is the JWT payload the server issues and accepts.
type Claims struct {
	jwt.RegisteredClaims
	Role      string `json:"role"`
	PatientID string `json:"patient_id,omitempty"`
}

// JWTMiddleware authenticates requests with an HS256 bearer token and places
// the resolved actor in the request context. Requests without a valid token
// are rejected before any handler runs.
func JWTMiddleware(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "authorization header must be a bearer token")
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
				}
				return secret, nil
			})
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			role := Role(claims.Role)
			if !role.Valid() {
				return echo.NewHTTPError(http.StatusUnauthorized, fmt.Sprintf("unknown role %q", claims.Role))
			}

			actor := Actor{Subject: claims.Subject, PatientID: claims.PatientID, Role: role}
			ctx := context.WithValue(c.Request().Context(), ActorKey, actor)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// SignToken issues a token for the given actor. Used by tests and by the dev
// tooling; production deployments are expected to point AUTH_SECRET at the
// same secret their identity provider signs with.
func SignToken(secret []byte, actor Actor, ttl time.Duration) (string, error) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.Subject,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
		Role:      string(actor.Role),
		PatientID: actor.PatientID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// DevAuthMiddleware resolves the actor from headers instead of a token. Any
// request without headers gets clinician access. Development only.
func DevAuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor := Actor{Subject: "dev-user", Role: RoleClinician}
			if r := c.Request().Header.Get("X-Dev-Role"); r != "" {
				actor.Role = Role(r)
			}
			if s := c.Request().Header.Get("X-Dev-Subject"); s != "" {
				actor.Subject = s
			}
			if p := c.Request().Header.Get("X-Dev-Patient-ID"); p != "" {
				actor.PatientID = p
			}
			if !actor.Role.Valid() {
				return echo.NewHTTPError(http.StatusUnauthorized, fmt.Sprintf("unknown role %q", actor.Role))
			}
			ctx := context.WithValue(c.Request().Context(), ActorKey, actor)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// ActorFromContext retrieves the resolved actor, if any.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(ActorKey).(Actor)
	return actor, ok
}
