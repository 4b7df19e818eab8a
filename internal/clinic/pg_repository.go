package clinic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func pgTimeOfDay(t TimeOfDay) pgtype.Time {
	return pgtype.Time{Microseconds: int64(t.Seconds()) * 1_000_000, Valid: true}
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Gender,
		&p.Birthdate,
		&p.NoKTP,
		&p.Address,
		&p.VaccineType,
		&p.VaccineCount,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	return &p, nil
}

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	var workStart, workEnd pgtype.Time

	err := row.Scan(
		&d.ID,
		&d.Name,
		&d.Username,
		&d.PasswordHash,
		&d.Gender,
		&d.Birthdate,
		&workStart,
		&workEnd,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	d.WorkStart = TimeOfDayFromSeconds(int(workStart.Microseconds / 1_000_000))
	d.WorkEnd = TimeOfDayFromSeconds(int(workEnd.Microseconds / 1_000_000))
	return &d, nil
}

func scanEmployee(row pgx.Row) (*Employee, error) {
	var e Employee

	err := row.Scan(
		&e.ID,
		&e.Name,
		&e.Username,
		&e.PasswordHash,
		&e.Gender,
		&e.Birthdate,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEmployeeNotFound
		}
		return nil, err
	}

	return &e, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.DoctorID,
		&a.ScheduledAt,
		&a.Status,
		&a.Diagnosis,
		&a.Notes,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &a, nil
}

// Patients

func (r *PgRepository) CreatePatient(ctx context.Context, p *Patient) (*Patient, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO patients (id, name, gender, birthdate, no_ktp, address, vaccine_type, vaccine_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING id, name, gender, birthdate, no_ktp, address, vaccine_type, vaccine_count, created_at, updated_at
	`, id, p.Name, p.Gender, p.Birthdate, p.NoKTP, p.Address, p.VaccineType, p.VaccineCount)

	return scanPatient(row)
}

func (r *PgRepository) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, gender, birthdate, no_ktp, address, vaccine_type, vaccine_count, created_at, updated_at
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (r *PgRepository) FindPatientByKTP(ctx context.Context, noKTP string) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, gender, birthdate, no_ktp, address, vaccine_type, vaccine_count, created_at, updated_at
		FROM patients
		WHERE no_ktp = $1
	`, noKTP)
	return scanPatient(row)
}

func (r *PgRepository) ListPatients(ctx context.Context) ([]Patient, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, gender, birthdate, no_ktp, address, vaccine_type, vaccine_count, created_at, updated_at
		FROM patients
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}

	return result, rows.Err()
}

func (r *PgRepository) UpdatePatient(ctx context.Context, p *Patient) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE patients
		SET name = $2,
		    gender = $3,
		    birthdate = $4,
		    no_ktp = $5,
		    address = $6,
		    updated_at = now()
		WHERE id = $1
	`, p.ID, p.Name, p.Gender, p.Birthdate, p.NoKTP, p.Address)
	if err != nil {
		return fmt.Errorf("update patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPatientNotFound
	}
	return nil
}

func (r *PgRepository) DeletePatient(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPatientNotFound
	}
	return nil
}

// UpsertVaccineRecord merges one warehouse row into the patient store.
// The row lock taken by SELECT ... FOR UPDATE is held across the existence
// check and the write, so a concurrent interactive update to the same
// patient cannot interleave.
func (r *PgRepository) UpsertVaccineRecord(ctx context.Context, rec VaccineRecord) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin reconcile tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var id uuid.UUID
	err = tx.QueryRow(ctx, `
		SELECT id FROM patients WHERE no_ktp = $1 FOR UPDATE
	`, rec.NoKTP).Scan(&id)

	inserted := false
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		// Seed only warehouse-supplied fields. gender/address stay NULL;
		// the interactive registration path is the one that requires them.
		_, err = tx.Exec(ctx, `
			INSERT INTO patients (id, name, birthdate, no_ktp, vaccine_type, vaccine_count, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		`, uuid.New(), rec.Name, rec.Birthdate, rec.NoKTP, rec.VaccineType, rec.VaccineCount)
		if err != nil {
			return false, fmt.Errorf("insert reconciled patient: %w", err)
		}
		inserted = true
	case err != nil:
		return false, fmt.Errorf("lock patient row: %w", err)
	default:
		_, err = tx.Exec(ctx, `
			UPDATE patients
			SET name = $2,
			    birthdate = $3,
			    vaccine_type = $4,
			    vaccine_count = $5,
			    updated_at = now()
			WHERE id = $1
		`, id, rec.Name, rec.Birthdate, rec.VaccineType, rec.VaccineCount)
		if err != nil {
			return false, fmt.Errorf("update reconciled patient: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit reconcile tx: %w", err)
	}
	return inserted, nil
}

// Doctors

func (r *PgRepository) CreateDoctor(ctx context.Context, d *Doctor) (*Doctor, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO doctors (id, name, username, password_hash, gender, birthdate, work_start_time, work_end_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING id, name, username, password_hash, gender, birthdate, work_start_time, work_end_time, created_at, updated_at
	`, id, d.Name, d.Username, d.PasswordHash, d.Gender, d.Birthdate, pgTimeOfDay(d.WorkStart), pgTimeOfDay(d.WorkEnd))

	return scanDoctor(row)
}

func (r *PgRepository) GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, username, password_hash, gender, birthdate, work_start_time, work_end_time, created_at, updated_at
		FROM doctors
		WHERE id = $1
	`, id)
	return scanDoctor(row)
}

func (r *PgRepository) FindDoctorByUsername(ctx context.Context, username string) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, username, password_hash, gender, birthdate, work_start_time, work_end_time, created_at, updated_at
		FROM doctors
		WHERE username = $1
	`, username)
	return scanDoctor(row)
}

func (r *PgRepository) ListDoctors(ctx context.Context) ([]Doctor, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, username, password_hash, gender, birthdate, work_start_time, work_end_time, created_at, updated_at
		FROM doctors
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}

	return result, rows.Err()
}

func (r *PgRepository) UpdateDoctor(ctx context.Context, d *Doctor) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE doctors
		SET name = $2,
		    username = $3,
		    password_hash = $4,
		    gender = $5,
		    birthdate = $6,
		    work_start_time = $7,
		    work_end_time = $8,
		    updated_at = now()
		WHERE id = $1
	`, d.ID, d.Name, d.Username, d.PasswordHash, d.Gender, d.Birthdate, pgTimeOfDay(d.WorkStart), pgTimeOfDay(d.WorkEnd))
	if err != nil {
		return fmt.Errorf("update doctor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDoctorNotFound
	}
	return nil
}

func (r *PgRepository) DeleteDoctor(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete doctor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDoctorNotFound
	}
	return nil
}

// Employees

func (r *PgRepository) CreateEmployee(ctx context.Context, e *Employee) (*Employee, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO employees (id, name, username, password_hash, gender, birthdate, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING id, name, username, password_hash, gender, birthdate, created_at, updated_at
	`, id, e.Name, e.Username, e.PasswordHash, e.Gender, e.Birthdate)

	return scanEmployee(row)
}

func (r *PgRepository) GetEmployeeByID(ctx context.Context, id uuid.UUID) (*Employee, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, username, password_hash, gender, birthdate, created_at, updated_at
		FROM employees
		WHERE id = $1
	`, id)
	return scanEmployee(row)
}

func (r *PgRepository) FindEmployeeByUsername(ctx context.Context, username string) (*Employee, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, username, password_hash, gender, birthdate, created_at, updated_at
		FROM employees
		WHERE username = $1
	`, username)
	return scanEmployee(row)
}

func (r *PgRepository) ListEmployees(ctx context.Context) ([]Employee, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, username, password_hash, gender, birthdate, created_at, updated_at
		FROM employees
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}

	return result, rows.Err()
}

func (r *PgRepository) UpdateEmployee(ctx context.Context, e *Employee) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE employees
		SET name = $2,
		    username = $3,
		    password_hash = $4,
		    gender = $5,
		    birthdate = $6,
		    updated_at = now()
		WHERE id = $1
	`, e.ID, e.Name, e.Username, e.PasswordHash, e.Gender, e.Birthdate)
	if err != nil {
		return fmt.Errorf("update employee: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEmployeeNotFound
	}
	return nil
}

func (r *PgRepository) DeleteEmployee(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete employee: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEmployeeNotFound
	}
	return nil
}

// Appointments

func (r *PgRepository) CreateAppointment(ctx context.Context, a *Appointment) (*Appointment, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (id, patient_id, doctor_id, scheduled_at, status, diagnosis, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		RETURNING id, patient_id, doctor_id, scheduled_at, status, diagnosis, notes, created_at, updated_at
	`, id, a.PatientID, a.DoctorID, a.ScheduledAt, a.Status, a.Diagnosis, a.Notes)

	return scanAppointment(row)
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, patient_id, doctor_id, scheduled_at, status, diagnosis, notes, created_at, updated_at
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) ListAppointments(ctx context.Context) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, patient_id, doctor_id, scheduled_at, status, diagnosis, notes, created_at, updated_at
		FROM appointments
		ORDER BY scheduled_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	return result, rows.Err()
}

func (r *PgRepository) UpdateAppointment(ctx context.Context, a *Appointment) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments
		SET scheduled_at = $2,
		    status = $3,
		    diagnosis = $4,
		    notes = $5,
		    updated_at = now()
		WHERE id = $1
	`, a.ID, a.ScheduledAt, a.Status, a.Diagnosis, a.Notes)
	if err != nil {
		return fmt.Errorf("update appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *PgRepository) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func excludeParam(exclude uuid.UUID) *uuid.UUID {
	if exclude == uuid.Nil {
		return nil
	}
	return &exclude
}

func (r *PgRepository) NearestBefore(ctx context.Context, doctorID uuid.UUID, at time.Time, exclude uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, patient_id, doctor_id, scheduled_at, status, diagnosis, notes, created_at, updated_at
		FROM appointments
		WHERE doctor_id = $1
		  AND status <> 'CANCELLED'
		  AND date_trunc('minute', scheduled_at) <= date_trunc('minute', $2::timestamptz)
		  AND ($3::uuid IS NULL OR id <> $3)
		ORDER BY scheduled_at DESC
		LIMIT 1
	`, doctorID, at, excludeParam(exclude))
	return scanAppointment(row)
}

func (r *PgRepository) NearestAfter(ctx context.Context, doctorID uuid.UUID, at time.Time, exclude uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, patient_id, doctor_id, scheduled_at, status, diagnosis, notes, created_at, updated_at
		FROM appointments
		WHERE doctor_id = $1
		  AND status <> 'CANCELLED'
		  AND date_trunc('minute', scheduled_at) >= date_trunc('minute', $2::timestamptz)
		  AND ($3::uuid IS NULL OR id <> $3)
		ORDER BY scheduled_at ASC
		LIMIT 1
	`, doctorID, at, excludeParam(exclude))
	return scanAppointment(row)
}
