package middleware

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/histcore/histcore/internal/platform/auth"
)

// AuditEntry captures who touched which patient's clinical data, when, from
// where, and with what outcome.
type AuditEntry struct {
	Subject    string
	Role       string
	PatientID  string
	Action     string // read, write
	Path       string
	Method     string
	IPAddress  string
	RequestID  string
	StatusCode int
	Timestamp  time.Time
}

// AuditRecorder persists audit entries. Decoupled from the concrete sink so
// tests can supply a mock.
type AuditRecorder interface {
	RecordAccess(entry AuditEntry) error
}

// LogRecorder writes audit entries to the structured log.
type LogRecorder struct {
	Logger zerolog.Logger
}

func (r *LogRecorder) RecordAccess(e AuditEntry) error {
	r.Logger.Info().
		Str("subject", e.Subject).
		Str("role", e.Role).
		Str("patient_id", e.PatientID).
		Str("action", e.Action).
		Str("method", e.Method).
		Str("path", e.Path).
		Str("remote_ip", e.IPAddress).
		Str("request_id", e.RequestID).
		Int("status", e.StatusCode).
		Time("at", e.Timestamp).
		Msg("audit")
	return nil
}

// Audit records every access to patient-scoped routes. Entries are recorded
// after the handler runs so the outcome status is known; recording failures
// never fail the request.
func Audit(recorder AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)

			path := c.Request().URL.Path
			if !strings.Contains(path, "/patients") {
				return err
			}

			action := "read"
			switch c.Request().Method {
			case "POST", "PUT", "PATCH", "DELETE":
				action = "write"
			}

			entry := AuditEntry{
				PatientID:  c.Param("id"),
				Action:     action,
				Path:       path,
				Method:     c.Request().Method,
				IPAddress:  c.RealIP(),
				StatusCode: c.Response().Status,
				Timestamp:  time.Now().UTC(),
			}
			if rid, ok := c.Get("request_id").(string); ok {
				entry.RequestID = rid
			}
			if actor, ok := auth.ActorFromContext(c.Request().Context()); ok {
				entry.Subject = actor.Subject
				entry.Role = string(actor.Role)
			}

			_ = recorder.RecordAccess(entry)
			return err
		}
	}
}
