package clinic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type CreatePatientParams struct {
	Name      string
	Gender    string
	Birthdate time.Time
	NoKTP     string
	Address   string
}

// CreatePatient registers a patient interactively. Unlike the reconciliation
// insert path, every field is required here.
func (s *Service) CreatePatient(ctx context.Context, params CreatePatientParams) (*Patient, error) {
	switch {
	case params.Name == "":
		return nil, fmt.Errorf("%w: name", ErrMissingField)
	case params.Gender == "":
		return nil, fmt.Errorf("%w: gender", ErrMissingField)
	case params.Birthdate.IsZero():
		return nil, fmt.Errorf("%w: birthdate", ErrMissingField)
	case params.NoKTP == "":
		return nil, fmt.Errorf("%w: no_ktp", ErrMissingField)
	case params.Address == "":
		return nil, fmt.Errorf("%w: address", ErrMissingField)
	}

	if !ValidKTP(params.NoKTP) {
		return nil, ErrInvalidKTP
	}

	if _, err := s.repo.FindPatientByKTP(ctx, params.NoKTP); err == nil {
		return nil, ErrDuplicateKTP
	} else if !errors.Is(err, ErrPatientNotFound) {
		return nil, fmt.Errorf("check ktp uniqueness: %w", err)
	}

	return s.repo.CreatePatient(ctx, &Patient{
		Name:      params.Name,
		Gender:    &params.Gender,
		Birthdate: params.Birthdate,
		NoKTP:     params.NoKTP,
		Address:   &params.Address,
	})
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetPatientByID(ctx, id)
}

func (s *Service) ListPatients(ctx context.Context) ([]Patient, error) {
	return s.repo.ListPatients(ctx)
}

// PatientPatch is a partial update: nil fields are left untouched.
type PatientPatch struct {
	Name      *string
	Gender    *string
	Birthdate *time.Time
	NoKTP     *string
	Address   *string
}

func (s *Service) UpdatePatient(ctx context.Context, id uuid.UUID, patch PatientPatch) (*Patient, error) {
	patient, err := s.repo.GetPatientByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}

	if patch.NoKTP != nil && *patch.NoKTP != patient.NoKTP {
		if !ValidKTP(*patch.NoKTP) {
			return nil, ErrInvalidKTP
		}
		if _, err := s.repo.FindPatientByKTP(ctx, *patch.NoKTP); err == nil {
			return nil, ErrDuplicateKTP
		} else if !errors.Is(err, ErrPatientNotFound) {
			return nil, fmt.Errorf("check ktp uniqueness: %w", err)
		}
		patient.NoKTP = *patch.NoKTP
	}

	if patch.Name != nil {
		patient.Name = *patch.Name
	}
	if patch.Gender != nil {
		patient.Gender = patch.Gender
	}
	if patch.Birthdate != nil {
		patient.Birthdate = *patch.Birthdate
	}
	if patch.Address != nil {
		patient.Address = patch.Address
	}

	if err := s.repo.UpdatePatient(ctx, patient); err != nil {
		return nil, err
	}
	return patient, nil
}

func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeletePatient(ctx, id)
}
