package clinic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type CreateEmployeeParams struct {
	Name      string
	Username  string
	Password  string
	Gender    string
	Birthdate time.Time
}

func (s *Service) CreateEmployee(ctx context.Context, params CreateEmployeeParams) (*Employee, error) {
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

	if _, err := s.repo.FindEmployeeByUsername(ctx, params.Username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, ErrEmployeeNotFound) {
		return nil, fmt.Errorf("check username uniqueness: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	return s.repo.CreateEmployee(ctx, &Employee{
		Name:         params.Name,
		Username:     params.Username,
		PasswordHash: string(hash),
		Gender:       params.Gender,
		Birthdate:    params.Birthdate,
	})
}

func (s *Service) GetEmployee(ctx context.Context, id uuid.UUID) (*Employee, error) {
	return s.repo.GetEmployeeByID(ctx, id)
}

func (s *Service) ListEmployees(ctx context.Context) ([]Employee, error) {
	return s.repo.ListEmployees(ctx)
}

type EmployeePatch struct {
	Name      *string
	Username  *string
	Password  *string
	Gender    *string
	Birthdate *time.Time
}

func (s *Service) UpdateEmployee(ctx context.Context, id uuid.UUID, patch EmployeePatch) (*Employee, error) {
	employee, err := s.repo.GetEmployeeByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrEmployeeNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load employee: %w", err)
	}

	if patch.Username != nil && *patch.Username != employee.Username {
		if _, err := s.repo.FindEmployeeByUsername(ctx, *patch.Username); err == nil {
			return nil, ErrUsernameTaken
		} else if !errors.Is(err, ErrEmployeeNotFound) {
			return nil, fmt.Errorf("check username uniqueness: %w", err)
		}
		employee.Username = *patch.Username
	}

	if patch.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*patch.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		employee.PasswordHash = string(hash)
	}

	if patch.Name != nil {
		employee.Name = *patch.Name
	}
	if patch.Gender != nil {
		employee.Gender = *patch.Gender
	}
	if patch.Birthdate != nil {
		employee.Birthdate = *patch.Birthdate
	}

	if err := s.repo.UpdateEmployee(ctx, employee); err != nil {
		return nil, err
	}
	return employee, nil
}

func (s *Service) DeleteEmployee(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteEmployee(ctx, id)
}
