package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/clinicops/clinic-backend/internal/clinic"
)

type RouterConfig struct {
	Service *clinic.Service
	PgPool  *pgxpool.Pool
	Redis   *redis.Client
	Logger  zerolog.Logger
	Env     string
	Version string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Route("/appointments", func(r chi.Router) {
		r.Post("/", createAppointmentHandler(cfg.Service))
		r.Get("/", listAppointmentsHandler(cfg.Service))
		r.Get("/{id}", getAppointmentHandler(cfg.Service))
		r.Put("/{id}", updateAppointmentHandler(cfg.Service))
		r.Delete("/{id}", deleteAppointmentHandler(cfg.Service))
	})

	r.Route("/patients", func(r chi.Router) {
		r.Post("/", createPatientHandler(cfg.Service))
		r.Get("/", listPatientsHandler(cfg.Service))
		r.Get("/{id}", getPatientHandler(cfg.Service))
		r.Put("/{id}", updatePatientHandler(cfg.Service))
		r.Delete("/{id}", deletePatientHandler(cfg.Service))
	})

	r.Route("/doctors", func(r chi.Router) {
		r.Post("/", createDoctorHandler(cfg.Service))
		r.Get("/", listDoctorsHandler(cfg.Service))
		r.Get("/{id}", getDoctorHandler(cfg.Service))
		r.Put("/{id}", updateDoctorHandler(cfg.Service))
		r.Delete("/{id}", deleteDoctorHandler(cfg.Service))
	})

	r.Route("/employees", func(r chi.Router) {
		r.Post("/", createEmployeeHandler(cfg.Service))
		r.Get("/", listEmployeesHandler(cfg.Service))
		r.Get("/{id}", getEmployeeHandler(cfg.Service))
		r.Put("/{id}", updateEmployeeHandler(cfg.Service))
		r.Delete("/{id}", deleteEmployeeHandler(cfg.Service))
	})

	return r
}
