package identity

import (
	"context"

	"github.com/google/uuid"
)

// PatientRepository defines the data operations of the patient directory.
type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
}
