package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/clinicops/clinic-backend/internal/clinic"
)

func createPatientHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreatePatientRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		params := clinic.CreatePatientParams{
			Name:    req.Name,
			Gender:  req.Gender,
			NoKTP:   req.NoKTP,
			Address: req.Address,
		}

		if req.Birthdate != "" {
			d, err := time.Parse(clinic.DateLayout, req.Birthdate)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_birthdate", "birthdate must be formatted as YYYY-MM-DD")
				return
			}
			params.Birthdate = d
		}

		patient, err := svc.CreatePatient(r.Context(), params)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, newPatientResponse(patient))
	}
}

func getPatientHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(w, r)
		if !ok {
			return
		}

		patient, err := svc.GetPatient(r.Context(), id)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, newPatientResponse(patient))
	}
}

func listPatientsHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patients, err := svc.ListPatients(r.Context())
		if err != nil {
			handleServiceError(w, err)
			return
		}

		resp := make([]PatientResponse, 0, len(patients))
		for i := range patients {
			resp = append(resp, newPatientResponse(&patients[i]))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func updatePatientHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(w, r)
		if !ok {
			return
		}

		var req UpdatePatientRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		patch := clinic.PatientPatch{
			Name:    req.Name,
			Gender:  req.Gender,
			NoKTP:   req.NoKTP,
			Address: req.Address,
		}

		if req.Birthdate != nil {
			d, err := time.Parse(clinic.DateLayout, *req.Birthdate)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_birthdate", "birthdate must be formatted as YYYY-MM-DD")
				return
			}
			patch.Birthdate = &d
		}

		patient, err := svc.UpdatePatient(r.Context(), id, patch)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, newPatientResponse(patient))
	}
}

func deletePatientHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(w, r)
		if !ok {
			return
		}

		if err := svc.DeletePatient(r.Context(), id); err != nil {
			handleServiceError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
