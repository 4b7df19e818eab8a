package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/clinicops/clinic-backend/internal/clinic"
	"github.com/clinicops/clinic-backend/internal/config"
	"github.com/clinicops/clinic-backend/internal/db"
	"github.com/clinicops/clinic-backend/internal/reconcile"
	"github.com/clinicops/clinic-backend/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := config.NewLogger("dev", "reconcile-worker")
		l.Fatal().Err(err).Msg("config load error")
	}

	logger := config.NewLogger(cfg.Env, "reconcile-worker")
	logger.Info().
		Str("env", cfg.Env).
		Dur("interval", cfg.ReconcileEvery).
		Msg("reconcile-worker starting up")

	if cfg.BigQueryProject == "" {
		logger.Fatal().Msg("BIGQUERY_PROJECT is required")
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	logger.Info().Msg("connected to Postgres")

	source, err := reconcile.NewBigQuerySource(rootCtx, cfg.BigQueryProject, cfg.BigQueryTable)
	if err != nil {
		logger.Fatal().Err(err).Msg("bigquery client error")
	}
	defer func() {
		if err := source.Close(); err != nil {
			logger.Warn().Err(err).Msg("error closing bigquery client")
		}
	}()

	repo := clinic.NewPgRepository(pgPool)
	job := reconcile.NewJob(source, repo, cfg.ReconcileTimeout, logger)

	sched := scheduler.New(cfg.ReconcileEvery, logger)
	sched.Start(rootCtx, func(ctx context.Context) error {
		_, err := job.Run(ctx)
		return err
	})

	<-rootCtx.Done()
	logger.Info().Msg("shutdown signal received, stopping reconcile worker")
	sched.Stop()
}
