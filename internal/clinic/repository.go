package clinic

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrPatientNotFound     = errors.New("patient not found")
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrEmployeeNotFound    = errors.New("employee not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
)

// Repository contains all DB interactions needed by the services.
type Repository interface {
	// Patients
	CreatePatient(ctx context.Context, p *Patient) (*Patient, error)
	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	FindPatientByKTP(ctx context.Context, noKTP string) (*Patient, error)
	ListPatients(ctx context.Context) ([]Patient, error)
	UpdatePatient(ctx context.Context, p *Patient) error
	DeletePatient(ctx context.Context, id uuid.UUID) error

	// Reconciliation. The existence check and the write run inside one
	// transaction holding a row lock on the matching no_ktp, so a
	// concurrent interactive edit cannot interleave with the merge.
	UpsertVaccineRecord(ctx context.Context, rec VaccineRecord) (inserted bool, err error)

	// Doctors
	CreateDoctor(ctx context.Context, d *Doctor) (*Doctor, error)
	GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	FindDoctorByUsername(ctx context.Context, username string) (*Doctor, error)
	ListDoctors(ctx context.Context) ([]Doctor, error)
	UpdateDoctor(ctx context.Context, d *Doctor) error
	DeleteDoctor(ctx context.Context, id uuid.UUID) error

	// Employees
	CreateEmployee(ctx context.Context, e *Employee) (*Employee, error)
	GetEmployeeByID(ctx context.Context, id uuid.UUID) (*Employee, error)
	FindEmployeeByUsername(ctx context.Context, username string) (*Employee, error)
	ListEmployees(ctx context.Context) ([]Employee, error)
	UpdateEmployee(ctx context.Context, e *Employee) error
	DeleteEmployee(ctx context.Context, id uuid.UUID) error

	// Appointments
	CreateAppointment(ctx context.Context, a *Appointment) (*Appointment, error)
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ListAppointments(ctx context.Context) ([]Appointment, error)
	UpdateAppointment(ctx context.Context, a *Appointment) error
	DeleteAppointment(ctx context.Context, id uuid.UUID) error

	// Conflict checks: nearest non-cancelled appointment for the doctor at
	// or before/after the given instant, compared at minute granularity.
	// exclude (uuid.Nil for none) drops one appointment from consideration
	// so a reschedule does not conflict with itself.
	NearestBefore(ctx context.Context, doctorID uuid.UUID, at time.Time, exclude uuid.UUID) (*Appointment, error)
	NearestAfter(ctx context.Context, doctorID uuid.UUID, at time.Time, exclude uuid.UUID) (*Appointment, error)
}
