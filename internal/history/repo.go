package history

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the store operations of the history engine. Both
// operations must honor a transaction carried in the context so that
// load-compare-write runs as one atomic unit.
type Repository interface {
	// Get returns the record for a (patient, category) pair, or ErrNoRecord.
	Get(ctx context.Context, patientID uuid.UUID, category string) (*Record, error)
	// ListByPatient returns every category record on file for the patient.
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Record, error)
	// Upsert inserts the record, or replaces all fields of the existing row
	// for the same (patient, category) pair in a single statement.
	Upsert(ctx context.Context, rec *Record) error
}
