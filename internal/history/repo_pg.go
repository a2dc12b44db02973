package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/histcore/histcore/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type recordRepoPG struct{ pool *pgxpool.Pool }

func NewRecordRepoPG(pool *pgxpool.Pool) Repository {
	return &recordRepoPG{pool: pool}
}

func (r *recordRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const recordCols = `id, patient_id, category, fields, created_at, updated_at`

func (r *recordRepoPG) scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	var raw []byte
	err := row.Scan(&rec.ID, &rec.PatientID, &rec.Category, &raw,
		&rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoRecord
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &rec.Fields); err != nil {
		return nil, fmt.Errorf("decode fields for %s/%s: %w", rec.PatientID, rec.Category, err)
	}
	return &rec, nil
}

func (r *recordRepoPG) Get(ctx context.Context, patientID uuid.UUID, category string) (*Record, error) {
	return r.scanRecord(r.conn(ctx).QueryRow(ctx,
		`SELECT `+recordCols+` FROM clinical_history WHERE patient_id = $1 AND category = $2`,
		patientID, category))
}

func (r *recordRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Record, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+recordCols+` FROM clinical_history WHERE patient_id = $1 ORDER BY category`,
		patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Record
	for rows.Next() {
		rec, err := r.scanRecord(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rec)
	}
	return items, rows.Err()
}

// Upsert replaces the whole field set in one statement, keyed by the unique
// (patient_id, category) constraint. There is no per-field patch path.
func (r *recordRepoPG) Upsert(ctx context.Context, rec *Record) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	raw, err := json.Marshal(rec.Fields)
	if err != nil {
		return fmt.Errorf("encode fields: %w", err)
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO clinical_history (id, patient_id, category, fields)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (patient_id, category)
		DO UPDATE SET fields = EXCLUDED.fields, updated_at = NOW()
		RETURNING id, created_at, updated_at`,
		rec.ID, rec.PatientID, rec.Category, raw).
		Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
}
