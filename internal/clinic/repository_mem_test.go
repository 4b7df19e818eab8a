package clinic

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memRepo is an in-memory Repository used by the service tests. It mirrors
// the Postgres semantics the services rely on: minute-granularity neighbor
// lookups, cancelled rows excluded from conflicts, and the reconciliation
// upsert keyed by no_ktp.
type memRepo struct {
	mu           sync.Mutex
	patients     map[uuid.UUID]*Patient
	doctors      map[uuid.UUID]*Doctor
	employees    map[uuid.UUID]*Employee
	appointments map[uuid.UUID]*Appointment
}

func newMemRepo() *memRepo {
	return &memRepo{
		patients:     make(map[uuid.UUID]*Patient),
		doctors:      make(map[uuid.UUID]*Doctor),
		employees:    make(map[uuid.UUID]*Employee),
		appointments: make(map[uuid.UUID]*Appointment),
	}
}

func (r *memRepo) CreatePatient(_ context.Context, p *Patient) (*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	cp.ID = uuid.New()
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	r.patients[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *memRepo) GetPatientByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memRepo) FindPatientByKTP(_ context.Context, noKTP string) (*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.patients {
		if p.NoKTP == noKTP {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrPatientNotFound
}

func (r *memRepo) ListPatients(_ context.Context) ([]Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Patient, 0, len(r.patients))
	for _, p := range r.patients {
		out = append(out, *p)
	}
	return out, nil
}

func (r *memRepo) UpdatePatient(_ context.Context, p *Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.patients[p.ID]; !ok {
		return ErrPatientNotFound
	}
	cp := *p
	cp.UpdatedAt = time.Now()
	r.patients[p.ID] = &cp
	return nil
}

func (r *memRepo) DeletePatient(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.patients[id]; !ok {
		return ErrPatientNotFound
	}
	delete(r.patients, id)
	return nil
}

func (r *memRepo) UpsertVaccineRecord(_ context.Context, rec VaccineRecord) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	vaccineType := rec.VaccineType
	vaccineCount := rec.VaccineCount

	for _, p := range r.patients {
		if p.NoKTP == rec.NoKTP {
			p.Name = rec.Name
			p.Birthdate = rec.Birthdate
			p.VaccineType = &vaccineType
			p.VaccineCount = &vaccineCount
			p.UpdatedAt = time.Now()
			return false, nil
		}
	}

	now := time.Now()
	p := &Patient{
		ID:           uuid.New(),
		Name:         rec.Name,
		Birthdate:    rec.Birthdate,
		NoKTP:        rec.NoKTP,
		VaccineType:  &vaccineType,
		VaccineCount: &vaccineCount,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.patients[p.ID] = p
	return true, nil
}

func (r *memRepo) CreateDoctor(_ context.Context, d *Doctor) (*Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *d
	cp.ID = uuid.New()
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	r.doctors[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *memRepo) GetDoctorByID(_ context.Context, id uuid.UUID) (*Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.doctors[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *memRepo) FindDoctorByUsername(_ context.Context, username string) (*Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.doctors {
		if d.Username == username {
			cp := *d
			return &cp, nil
		}
	}
	return nil, ErrDoctorNotFound
}

func (r *memRepo) ListDoctors(_ context.Context) ([]Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Doctor, 0, len(r.doctors))
	for _, d := range r.doctors {
		out = append(out, *d)
	}
	return out, nil
}

func (r *memRepo) UpdateDoctor(_ context.Context, d *Doctor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.doctors[d.ID]; !ok {
		return ErrDoctorNotFound
	}
	cp := *d
	r.doctors[d.ID] = &cp
	return nil
}

func (r *memRepo) DeleteDoctor(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.doctors[id]; !ok {
		return ErrDoctorNotFound
	}
	delete(r.doctors, id)
	return nil
}

func (r *memRepo) CreateEmployee(_ context.Context, e *Employee) (*Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *e
	cp.ID = uuid.New()
	r.employees[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *memRepo) GetEmployeeByID(_ context.Context, id uuid.UUID) (*Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.employees[id]
	if !ok {
		return nil, ErrEmployeeNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *memRepo) FindEmployeeByUsername(_ context.Context, username string) (*Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.employees {
		if e.Username == username {
			cp := *e
			return &cp, nil
		}
	}
	return nil, ErrEmployeeNotFound
}

func (r *memRepo) ListEmployees(_ context.Context) ([]Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Employee, 0, len(r.employees))
	for _, e := range r.employees {
		out = append(out, *e)
	}
	return out, nil
}

func (r *memRepo) UpdateEmployee(_ context.Context, e *Employee) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.employees[e.ID]; !ok {
		return ErrEmployeeNotFound
	}
	cp := *e
	r.employees[e.ID] = &cp
	return nil
}

func (r *memRepo) DeleteEmployee(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.employees[id]; !ok {
		return ErrEmployeeNotFound
	}
	delete(r.employees, id)
	return nil
}

func (r *memRepo) CreateAppointment(_ context.Context, a *Appointment) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *a
	cp.ID = uuid.New()
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	r.appointments[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *memRepo) GetAppointmentByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *memRepo) ListAppointments(_ context.Context) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Appointment, 0, len(r.appointments))
	for _, a := range r.appointments {
		out = append(out, *a)
	}
	return out, nil
}

func (r *memRepo) UpdateAppointment(_ context.Context, a *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.appointments[a.ID]; !ok {
		return ErrAppointmentNotFound
	}
	cp := *a
	cp.UpdatedAt = time.Now()
	r.appointments[a.ID] = &cp
	return nil
}

func (r *memRepo) DeleteAppointment(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.appointments[id]; !ok {
		return ErrAppointmentNotFound
	}
	delete(r.appointments, id)
	return nil
}

func (r *memRepo) NearestBefore(_ context.Context, doctorID uuid.UUID, at time.Time, exclude uuid.UUID) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	proposed := at.Truncate(time.Minute)
	var best *Appointment
	for _, a := range r.appointments {
		if a.DoctorID != doctorID || a.Status == StatusCancelled || a.ID == exclude {
			continue
		}
		scheduled := a.ScheduledAt.Truncate(time.Minute)
		if scheduled.After(proposed) {
			continue
		}
		if best == nil || scheduled.After(best.ScheduledAt.Truncate(time.Minute)) {
			cp := *a
			best = &cp
		}
	}
	if best == nil {
		return nil, ErrAppointmentNotFound
	}
	return best, nil
}

func (r *memRepo) NearestAfter(_ context.Context, doctorID uuid.UUID, at time.Time, exclude uuid.UUID) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	proposed := at.Truncate(time.Minute)
	var best *Appointment
	for _, a := range r.appointments {
		if a.DoctorID != doctorID || a.Status == StatusCancelled || a.ID == exclude {
			continue
		}
		scheduled := a.ScheduledAt.Truncate(time.Minute)
		if scheduled.Before(proposed) {
			continue
		}
		if best == nil || scheduled.Before(best.ScheduledAt.Truncate(time.Minute)) {
			cp := *a
			best = &cp
		}
	}
	if best == nil {
		return nil, ErrAppointmentNotFound
	}
	return best, nil
}
