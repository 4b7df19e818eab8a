package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/clinicops/clinic-backend/internal/clinic"
)

func createEmployeeHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateEmployeeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		params := clinic.CreateEmployeeParams{
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

		employee, err := svc.CreateEmployee(r.Context(), params)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, newEmployeeResponse(employee))
	}
}

func getEmployeeHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(w, r)
		if !ok {
			return
		}

		employee, err := svc.GetEmployee(r.Context(), id)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, newEmployeeResponse(employee))
	}
}

func listEmployeesHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		employees, err := svc.ListEmployees(r.Context())
		if err != nil {
			handleServiceError(w, err)
			return
		}

		resp := make([]EmployeeResponse, 0, len(employees))
		for i := range employees {
			resp = append(resp, newEmployeeResponse(&employees[i]))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func updateEmployeeHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(w, r)
		if !ok {
			return
		}

		var req UpdateEmployeeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		patch := clinic.EmployeePatch{
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

		employee, err := svc.UpdateEmployee(r.Context(), id, patch)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, newEmployeeResponse(employee))
	}
}

func deleteEmployeeHandler(svc *clinic.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(w, r)
		if !ok {
			return
		}

		if err := svc.DeleteEmployee(r.Context(), id); err != nil {
			handleServiceError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
