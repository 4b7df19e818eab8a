package api

import (
	"github.com/google/uuid"

	"github.com/clinicops/clinic-backend/internal/clinic"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Appointments

type CreateAppointmentRequest struct {
	PatientID string `json:"patient_id"`
	DoctorID  string `json:"doctor_id"`
	Datetime  string `json:"datetime"`
	Status    string `json:"status,omitempty"`
}

// UpdateAppointmentRequest is a partial patch: absent fields are left
// untouched, present fields overwrite.
type UpdateAppointmentRequest struct {
	Datetime  *string `json:"datetime"`
	Status    *string `json:"status"`
	Diagnosis *string `json:"diagnosis"`
	Notes     *string `json:"notes"`
}

type AppointmentResponse struct {
	ID        uuid.UUID `json:"id"`
	PatientID uuid.UUID `json:"patient_id"`
	DoctorID  uuid.UUID `json:"doctor_id"`
	Datetime  string    `json:"datetime"`
	Status    string    `json:"status"`
	Diagnosis string    `json:"diagnosis"`
	Notes     string    `json:"notes"`
}

func newAppointmentResponse(a *clinic.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:        a.ID,
		PatientID: a.PatientID,
		DoctorID:  a.DoctorID,
		Datetime:  a.ScheduledAt.Format(clinic.DateTimeLayout),
		Status:    string(a.Status),
		Diagnosis: a.Diagnosis,
		Notes:     a.Notes,
	}
}

// Patients

type CreatePatientRequest struct {
	Name      string `json:"name"`
	Gender    string `json:"gender"`
	Birthdate string `json:"birthdate"`
	NoKTP     string `json:"no_ktp"`
	Address   string `json:"address"`
}

type UpdatePatientRequest struct {
	Name      *string `json:"name"`
	Gender    *string `json:"gender"`
	Birthdate *string `json:"birthdate"`
	NoKTP     *string `json:"no_ktp"`
	Address   *string `json:"address"`
}

type PatientResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Gender       *string   `json:"gender"`
	Birthdate    string    `json:"birthdate"`
	NoKTP        string    `json:"no_ktp"`
	Address      *string   `json:"address"`
	VaccineType  *string   `json:"vaccine_type"`
	VaccineCount *int      `json:"vaccine_count"`
}

func newPatientResponse(p *clinic.Patient) PatientResponse {
	return PatientResponse{
		ID:           p.ID,
		Name:         p.Name,
		Gender:       p.Gender,
		Birthdate:    p.Birthdate.Format(clinic.DateLayout),
		NoKTP:        p.NoKTP,
		Address:      p.Address,
		VaccineType:  p.VaccineType,
		VaccineCount: p.VaccineCount,
	}
}

// Doctors

type CreateDoctorRequest struct {
	Name          string `json:"name"`
	Username      string `json:"username"`
	Password      string `json:"password"`
	Gender        string `json:"gender"`
	Birthdate     string `json:"birthdate"`
	WorkStartTime string `json:"work_start_time"`
	WorkEndTime   string `json:"work_end_time"`
}

type UpdateDoctorRequest struct {
	Name          *string `json:"name"`
	Username      *string `json:"username"`
	Password      *string `json:"password"`
	Gender        *string `json:"gender"`
	Birthdate     *string `json:"birthdate"`
	WorkStartTime *string `json:"work_start_time"`
	WorkEndTime   *string `json:"work_end_time"`
}

// DoctorResponse never carries the password hash.
type DoctorResponse struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Username      string    `json:"username"`
	Gender        string    `json:"gender"`
	Birthdate     string    `json:"birthdate"`
	WorkStartTime string    `json:"work_start_time"`
	WorkEndTime   string    `json:"work_end_time"`
}

func newDoctorResponse(d *clinic.Doctor) DoctorResponse {
	return DoctorResponse{
		ID:            d.ID,
		Name:          d.Name,
		Username:      d.Username,
		Gender:        d.Gender,
		Birthdate:     d.Birthdate.Format(clinic.DateLayout),
		WorkStartTime: d.WorkStart.String(),
		WorkEndTime:   d.WorkEnd.String(),
	}
}

// Employees

type CreateEmployeeRequest struct {
	Name      string `json:"name"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	Gender    string `json:"gender"`
	Birthdate string `json:"birthdate"`
}

type UpdateEmployeeRequest struct {
	Name      *string `json:"name"`
	Username  *string `json:"username"`
	Password  *string `json:"password"`
	Gender    *string `json:"gender"`
	Birthdate *string `json:"birthdate"`
}

type EmployeeResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	Gender    string    `json:"gender"`
	Birthdate string    `json:"birthdate"`
}

func newEmployeeResponse(e *clinic.Employee) EmployeeResponse {
	return EmployeeResponse{
		ID:        e.ID,
		Name:      e.Name,
		Username:  e.Username,
		Gender:    e.Gender,
		Birthdate: e.Birthdate.Format(clinic.DateLayout),
	}
}
