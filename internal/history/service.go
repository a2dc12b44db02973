package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/histcore/histcore/internal/platform/auth"
	"github.com/histcore/histcore/internal/platform/db"
)

// PatientDirectory answers whether an identity record exists for a patient
// id. Implemented by the identity service.
type PatientDirectory interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Service is the update-authorization and merge engine. Submit runs the
// load-compare-merge-write sequence inside one transaction; clinicians
// bypass the comparison, everyone else may only add to what is persisted.
type Service struct {
	records  Repository
	patients PatientDirectory
	tx       db.TxRunner
	log      zerolog.Logger
}

func NewService(records Repository, patients PatientDirectory, tx db.TxRunner, log zerolog.Logger) *Service {
	return &Service{records: records, patients: patients, tx: tx, log: log}
}

// UpdateRequest is the envelope the HTTP layer hands to the engine.
type UpdateRequest struct {
	PatientID uuid.UUID
	Category  string
	Actor     auth.Actor
	Fields    map[string]Field
}

// Submit validates the envelope, then runs the gate: load the persisted
// record, compare every persisted field unless the actor is a clinician,
// merge accepted fields with category defaults, and write the result. Any
// rejection or store failure rolls the transaction back; nothing is ever
// partially committed.
func (s *Service) Submit(ctx context.Context, req UpdateRequest) (*Record, error) {
	if req.PatientID == uuid.Nil {
		return nil, &InputError{Msg: "patient id is required"}
	}
	spec, ok := LookupCategory(req.Category)
	if !ok {
		return nil, &InputError{Msg: fmt.Sprintf("unknown category %q", req.Category)}
	}
	if !req.Actor.Role.Valid() {
		return nil, &AuthorizationError{Msg: "actor role could not be resolved"}
	}
	proposed, err := NormalizeFields(req.Fields)
	if err != nil {
		return nil, &InputError{Msg: err.Error()}
	}
	for name := range proposed {
		if _, ok := spec.Field(name); !ok {
			return nil, &InputError{Msg: fmt.Sprintf("unknown field %q in category %q", name, req.Category)}
		}
	}

	var rec *Record
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		exists, err := s.patients.Exists(ctx, req.PatientID)
		if err != nil {
			return fmt.Errorf("look up patient: %w", err)
		}
		if !exists {
			return &UnknownSubjectError{PatientID: req.PatientID}
		}

		saved, err := s.records.Get(ctx, req.PatientID, req.Category)
		if err != nil && !errors.Is(err, ErrNoRecord) {
			return fmt.Errorf("load record: %w", err)
		}

		if saved != nil && req.Actor.Role != auth.RoleClinician {
			if field, bad := RecordModifies(spec, saved.Fields, proposed); bad {
				return &DestructiveUpdateError{Category: req.Category, Field: field}
			}
		}

		rec = &Record{
			PatientID: req.PatientID,
			Category:  req.Category,
			Fields:    BuildFields(spec, proposed),
		}
		if saved != nil {
			rec.ID = saved.ID
		}
		if err := s.records.Upsert(ctx, rec); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
		return nil
	})
	if err != nil {
		var destructive *DestructiveUpdateError
		if errors.As(err, &destructive) {
			s.log.Warn().
				Str("patient_id", req.PatientID.String()).
				Str("category", req.Category).
				Str("field", destructive.Field).
				Str("actor", req.Actor.Subject).
				Str("role", string(req.Actor.Role)).
				Msg("destructive update rejected")
		}
		return nil, err
	}

	s.log.Info().
		Str("patient_id", req.PatientID.String()).
		Str("category", req.Category).
		Str("actor", req.Actor.Subject).
		Str("role", string(req.Actor.Role)).
		Msg("history update accepted")
	return rec, nil
}

// Get returns the persisted record for one category, or ErrNoRecord.
func (s *Service) Get(ctx context.Context, patientID uuid.UUID, category string) (*Record, error) {
	if _, ok := LookupCategory(category); !ok {
		return nil, &InputError{Msg: fmt.Sprintf("unknown category %q", category)}
	}
	return s.records.Get(ctx, patientID, category)
}

// List returns every category record on file for the patient.
func (s *Service) List(ctx context.Context, patientID uuid.UUID) ([]*Record, error) {
	return s.records.ListByPatient(ctx, patientID)
}
