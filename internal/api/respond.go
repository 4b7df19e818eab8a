package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clinicops/clinic-backend/internal/clinic"
	redisclient "github.com/clinicops/clinic-backend/internal/redis"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

// urlID parses the {id} path parameter, writing a 400 on failure.
func urlID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

// handleServiceError maps service errors onto HTTP responses: validation
// failures to 400, missing references to 404, booking/uniqueness conflicts
// to 409, everything else to 500.
func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, clinic.ErrMissingField):
		writeError(w, http.StatusBadRequest, "missing_data", err.Error())
	case errors.Is(err, clinic.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "invalid_status", err.Error())
	case errors.Is(err, clinic.ErrInvalidKTP):
		writeError(w, http.StatusBadRequest, "invalid_no_ktp", err.Error())
	case errors.Is(err, clinic.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, clinic.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, clinic.ErrEmployeeNotFound):
		writeError(w, http.StatusNotFound, "employee_not_found", err.Error())
	case errors.Is(err, clinic.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, clinic.ErrDuplicateKTP):
		writeError(w, http.StatusConflict, "duplicate_no_ktp", err.Error())
	case errors.Is(err, clinic.ErrUsernameTaken):
		writeError(w, http.StatusConflict, "username_taken", err.Error())
	case errors.Is(err, clinic.ErrDoctorBooked):
		writeError(w, http.StatusConflict, "doctor_booked", err.Error())
	case errors.Is(err, clinic.ErrOutsideWorkingHours):
		writeError(w, http.StatusConflict, "outside_working_hours", err.Error())
	case errors.Is(err, clinic.ErrDoctorBusy),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "doctor_busy", "doctor's schedule is being booked, please retry shortly")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
