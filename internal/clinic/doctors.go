package clinic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type CreateDoctorParams struct {
	Name      string
	Username  string
	Password  string
	Gender    string
	Birthdate time.Time
	WorkStart TimeOfDay
	WorkEnd   TimeOfDay
}

func (s *Service) CreateDoctor(ctx context.Context, params CreateDoctorParams) (*Doctor, error) {
	switch {
	case params.Name == "":
		return nil, fmt.Errorf("%w: name", ErrMissingField)
	case params.Username == "":
		return nil, fmt.Errorf("%w: username", ErrMissingField)
	case params.Password == "":
		return nil, fmt.Errorf("%w: password", ErrMissingField)
	case params.Gender == "":
		return nil, fmt.Errorf("%w: gender", ErrMissingField)
	case params.Birthdate.IsZero():
		return nil, fmt.Errorf("%w: birthdate", ErrMissingField)
	}

	if _, err := s.repo.FindDoctorByUsername(ctx, params.Username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, ErrDoctorNotFound) {
		return nil, fmt.Errorf("check username uniqueness: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	return s.repo.CreateDoctor(ctx, &Doctor{
		Name:         params.Name,
		Username:     params.Username,
		PasswordHash: string(hash),
		Gender:       params.Gender,
		Birthdate:    params.Birthdate,
		WorkStart:    params.WorkStart,
		WorkEnd:      params.WorkEnd,
	})
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.repo.GetDoctorByID(ctx, id)
}

func (s *Service) ListDoctors(ctx context.Context) ([]Doctor, error) {
	return s.repo.ListDoctors(ctx)
}

// DoctorPatch is a partial update: nil fields are left untouched. A present
// Password is re-hashed; the stored hash is never exposed.
type DoctorPatch struct {
	Name      *string
	Username  *string
	Password  *string
	Gender    *string
	Birthdate *time.Time
	WorkStart *TimeOfDay
	WorkEnd   *TimeOfDay
}

func (s *Service) UpdateDoctor(ctx context.Context, id uuid.UUID, patch DoctorPatch) (*Doctor, error) {
	doctor, err := s.repo.GetDoctorByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load doctor: %w", err)
	}

	if patch.Username != nil && *patch.Username != doctor.Username {
		if _, err := s.repo.FindDoctorByUsername(ctx, *patch.Username); err == nil {
			return nil, ErrUsernameTaken
		} else if !errors.Is(err, ErrDoctorNotFound) {
			return nil, fmt.Errorf("check username uniqueness: %w", err)
		}
		doctor.Username = *patch.Username
	}

	if patch.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*patch.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		doctor.PasswordHash = string(hash)
	}

	if patch.Name != nil {
		doctor.Name = *patch.Name
	}
	if patch.Gender != nil {
		doctor.Gender = *patch.Gender
	}
	if patch.Birthdate != nil {
		doctor.Birthdate = *patch.Birthdate
	}
	if patch.WorkStart != nil {
		doctor.WorkStart = *patch.WorkStart
	}
	if patch.WorkEnd != nil {
		doctor.WorkEnd = *patch.WorkEnd
	}

	if err := s.repo.UpdateDoctor(ctx, doctor); err != nil {
		return nil, err
	}
	return doctor, nil
}

func (s *Service) DeleteDoctor(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteDoctor(ctx, id)
}
