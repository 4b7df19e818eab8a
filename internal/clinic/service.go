package clinic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	redisclient "github.com/clinicops/clinic-backend/internal/redis"
)

var (
	ErrMissingField        = errors.New("missing required field")
	ErrInvalidStatus       = errors.New("invalid status value")
	ErrInvalidKTP          = errors.New("no_ktp must be exactly 16 numeric characters")
	ErrDuplicateKTP        = errors.New("patient with this ktp already exists")
	ErrUsernameTaken       = errors.New("username already exists")
	ErrDoctorBooked        = errors.New("doctor is already booked around this time")
	ErrOutsideWorkingHours = errors.New("appointment time is outside of doctor's working hours")
	ErrDoctorBusy          = errors.New("doctor's schedule is being booked, please retry")
)

type Service struct {
	repo   Repository
	locker redisclient.Locker
	avail  *Availability
	log    zerolog.Logger
}

func NewService(repo Repository, locker redisclient.Locker, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
		avail:  NewAvailability(repo),
		log:    log.With().Str("component", "clinic").Logger(),
	}
}

type CreateAppointmentParams struct {
	PatientID   uuid.UUID
	DoctorID    uuid.UUID
	ScheduledAt time.Time
	Status      AppointmentStatus // optional, defaults to IN_QUEUE
}

// CreateAppointment books a doctor for a patient. Every check that can fail
// runs before the write, and the availability check plus the insert run under
// a per-doctor lock so two concurrent requests cannot both pass the check.
func (s *Service) CreateAppointment(ctx context.Context, params CreateAppointmentParams) (*Appointment, error) {
	switch {
	case params.PatientID == uuid.Nil:
		return nil, fmt.Errorf("%w: patient_id", ErrMissingField)
	case params.DoctorID == uuid.Nil:
		return nil, fmt.Errorf("%w: doctor_id", ErrMissingField)
	case params.ScheduledAt.IsZero():
		return nil, fmt.Errorf("%w: datetime", ErrMissingField)
	}

	status := params.Status
	if status == "" {
		status = StatusInQueue
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	if _, err := s.repo.GetPatientByID(ctx, params.PatientID); err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}

	doctor, err := s.repo.GetDoctorByID(ctx, params.DoctorID)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load doctor: %w", err)
	}

	if !doctor.WorkingHoursContain(params.ScheduledAt) {
		return nil, ErrOutsideWorkingHours
	}

	var created *Appointment

	err = s.locker.WithDoctorLock(ctx, params.DoctorID, func(lockCtx context.Context) error {
		ok, err := s.avail.IsAvailable(lockCtx, params.DoctorID, params.ScheduledAt, uuid.Nil)
		if err != nil {
			return fmt.Errorf("check availability: %w", err)
		}
		if !ok {
			return ErrDoctorBooked
		}

		created, err = s.repo.CreateAppointment(lockCtx, &Appointment{
			PatientID:   params.PatientID,
			DoctorID:    params.DoctorID,
			ScheduledAt: params.ScheduledAt,
			Status:      status,
		})
		if err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrDoctorBusy
		}
		return nil, err
	}

	s.log.Info().
		Str("appointment_id", created.ID.String()).
		Str("doctor_id", created.DoctorID.String()).
		Time("scheduled_at", created.ScheduledAt).
		Msg("appointment created")

	return created, nil
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetAppointmentByID(ctx, id)
}

func (s *Service) ListAppointments(ctx context.Context) ([]Appointment, error) {
	return s.repo.ListAppointments(ctx)
}

// AppointmentPatch is a partial update: nil fields are left untouched. A
// present empty Diagnosis/Notes clears the field.
type AppointmentPatch struct {
	ScheduledAt *time.Time
	Status      *AppointmentStatus
	Diagnosis   *string
	Notes       *string
}

// UpdateAppointment applies patch to an existing appointment. A reschedule
// re-runs the availability and working-hours checks exactly as on create,
// excluding the appointment's own id so it cannot conflict with itself.
func (s *Service) UpdateAppointment(ctx context.Context, id uuid.UUID, patch AppointmentPatch) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if patch.Status != nil && !patch.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	if patch.ScheduledAt == nil {
		applyAppointmentPatch(appt, patch)
		if err := s.repo.UpdateAppointment(ctx, appt); err != nil {
			return nil, err
		}
		return appt, nil
	}

	doctor, err := s.repo.GetDoctorByID(ctx, appt.DoctorID)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load doctor: %w", err)
	}

	if !doctor.WorkingHoursContain(*patch.ScheduledAt) {
		return nil, ErrOutsideWorkingHours
	}

	err = s.locker.WithDoctorLock(ctx, appt.DoctorID, func(lockCtx context.Context) error {
		ok, err := s.avail.IsAvailable(lockCtx, appt.DoctorID, *patch.ScheduledAt, appt.ID)
		if err != nil {
			return fmt.Errorf("check availability: %w", err)
		}
		if !ok {
			return ErrDoctorBooked
		}

		applyAppointmentPatch(appt, patch)
		return s.repo.UpdateAppointment(lockCtx, appt)
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrDoctorBusy
		}
		return nil, err
	}

	s.log.Info().
		Str("appointment_id", appt.ID.String()).
		Time("scheduled_at", appt.ScheduledAt).
		Msg("appointment rescheduled")

	return appt, nil
}

func applyAppointmentPatch(a *Appointment, patch AppointmentPatch) {
	if patch.ScheduledAt != nil {
		a.ScheduledAt = *patch.ScheduledAt
	}
	if patch.Status != nil {
		a.Status = *patch.Status
	}
	if patch.Diagnosis != nil {
		a.Diagnosis = *patch.Diagnosis
	}
	if patch.Notes != nil {
		a.Notes = *patch.Notes
	}
}

func (s *Service) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteAppointment(ctx, id)
}
