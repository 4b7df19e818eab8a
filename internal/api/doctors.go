package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/clinicops/clinic-backend/internal/clinic"
)

func createDoctorHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateDoctorRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		if req.WorkStartTime == "" || req.WorkEndTime == "" {
			writeError(w, http.StatusBadRequest, "missing_data", "work_start_time and work_end_time are required")
			return
		}

		params := clinic.CreateDoctorParams{
			Name:     req.Name,
			Username: req.Username,
			Password: req.Password,
			Gender:   req.Gender,
		}

		if req.Birthdate != "" {
			d, err := time.Parse(clinic.DateLayout, req.Birthdate)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_birthdate", "birthdate must be formatted as YYYY-MM-DD")
				return
			}
			params.Birthdate = d
		}

		workStart, err := clinic.ParseTimeOfDay(req.WorkStartTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_work_start_time", "work_start_time must be formatted as HH:MM:SS")
			return
		}
		workEnd, err := clinic.ParseTimeOfDay(req.WorkEndTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_work_end_time", "work_end_time must be formatted as HH:MM:SS")
			return
		}
		params.WorkStart = workStart
		params.WorkEnd = workEnd

		doctor, err := svc.CreateDoctor(r.Context(), params)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, newDoctorResponse(doctor))
	}
}

func getDoctorHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(w, r)
		if !ok {
			return
		}

		doctor, err := svc.GetDoctor(r.Context(), id)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, newDoctorResponse(doctor))
	}
}

func listDoctorsHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctors, err := svc.ListDoctors(r.Context())
		if err != nil {
			handleServiceError(w, err)
			return
		}

		resp := make([]DoctorResponse, 0, len(doctors))
		for i := range doctors {
			resp = append(resp, newDoctorResponse(&doctors[i]))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func updateDoctorHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(w, r)
		if !ok {
			return
		}

		var req UpdateDoctorRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		patch := clinic.DoctorPatch{
			Name:     req.Name,
			Username: req.Username,
			Password: req.Password,
			Gender:   req.Gender,
		}

		if req.Birthdate != nil {
			d, err := time.Parse(clinic.DateLayout, *req.Birthdate)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_birthdate", "birthdate must be formatted as YYYY-MM-DD")
				return
			}
			patch.Birthdate = &d
		}

		if req.WorkStartTime != nil {
			t, err := clinic.ParseTimeOfDay(*req.WorkStartTime)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_work_start_time", "work_start_time must be formatted as HH:MM:SS")
				return
			}
			patch.WorkStart = &t
		}

		if req.WorkEndTime != nil {
			t, err := clinic.ParseTimeOfDay(*req.WorkEndTime)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_work_end_time", "work_end_time must be formatted as HH:MM:SS")
				return
			}
			patch.WorkEnd = &t
		}

		doctor, err := svc.UpdateDoctor(r.Context(), id, patch)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, newDoctorResponse(doctor))
	}
}

func deleteDoctorHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(w, r)
		if !ok {
			return
		}

		if err := svc.DeleteDoctor(r.Context(), id); err != nil {
			handleServiceError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
