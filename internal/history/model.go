package history

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Field is one named slot of a category record. Version is a schema tag for
// the slot's format; it is not a concurrency token. Data holds the decoded
// JSON payload and its kind depends on the field's declared shape.
type Field struct {
	Version int `json:"version"`
	Data    any `json:"data"`
}

// Record maps to the clinical_history table: the full field set persisted for
// one (patient, category) pair. The fields column is JSONB.
type Record struct {
	ID        uuid.UUID        `db:"id" json:"id"`
	PatientID uuid.UUID        `db:"patient_id" json:"patient_id"`
	Category  string           `db:"category" json:"category"`
	Fields    map[string]Field `db:"fields" json:"fields"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// NormalizeFields round-trips a proposed field set through JSON so the
// payload kinds match what comes back from the store (numbers as float64,
// objects as map[string]any, lists as []any). Comparisons rely on both sides
// having the same representation.
func NormalizeFields(fields map[string]Field) (map[string]Field, error) {
	if fields == nil {
		return map[string]Field{}, nil
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}
	out := make(map[string]Field, len(fields))
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	return out, nil
}
