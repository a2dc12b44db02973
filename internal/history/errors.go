package history

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrNoRecord is returned by the repository when no record exists yet for a
// (patient, category) pair. On the write path this is not an error: a first
// submission has nothing to protect.
var ErrNoRecord = errors.New("no history record")

// InputError marks a malformed request envelope (missing patient id, unknown
// category, undecodable fields). Detected before any transaction is opened.
type InputError struct {
	Msg string
}

func (e *InputError) Error() string { return e.Msg }

// AuthorizationError marks a request whose actor could not be resolved.
// Detected before any transaction is opened.
type AuthorizationError struct {
	Msg string
}

func (e *AuthorizationError) Error() string { return e.Msg }

// UnknownSubjectError marks a patient id with no underlying identity record,
// distinct from a patient who simply has no history yet.
type UnknownSubjectError struct {
	PatientID uuid.UUID
}

func (e *UnknownSubjectError) Error() string {
	return fmt.Sprintf("unknown patient %s", e.PatientID)
}

// DestructiveUpdateError marks a field where the request would remove or
// alter previously persisted data. The transaction is rolled back and
// nothing is written.
type DestructiveUpdateError struct {
	Category string
	Field    string
}

func (e *DestructiveUpdateError) Error() string {
	return fmt.Sprintf("update would modify persisted data in %s.%s", e.Category, e.Field)
}
