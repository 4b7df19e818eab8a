package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinicops/clinic-backend/internal/config"
	"github.com/clinicops/clinic-backend/internal/db"
)

func main() {
	logger := config.NewLogger("dev", "seed")
	logger.Info().Msg("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		logger.Fatal().Msg("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	doctorIDs, err := seedDoctors(context.Background(), pool, 20)
	if err != nil {
		logger.Fatal().Err(err).Msg("seed doctors")
	}
	logger.Info().Int("count", len(doctorIDs)).Msg("doctors seeded")

	patientIDs, err := seedPatients(context.Background(), pool, 500)
	if err != nil {
		logger.Fatal().Err(err).Msg("seed patients")
	}
	logger.Info().Int("count", len(patientIDs)).Msg("patients seeded")

	if err := seedEmployees(context.Background(), pool, 10); err != nil {
		logger.Fatal().Err(err).Msg("seed employees")
	}
	logger.Info().Msg("employees seeded")

	count, err := seedAppointments(context.Background(), pool, doctorIDs, patientIDs)
	if err != nil {
		logger.Fatal().Err(err).Msg("seed appointments")
	}
	logger.Info().Int("count", count).Msg("appointments seeded")

	logger.Info().Msg("seed complete")
}

func clockTime(hour, minute int) pgtype.Time {
	return pgtype.Time{
		Microseconds: int64(hour*3600+minute*60) * 1_000_000,
		Valid:        true,
	}
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Same throwaway password for every seeded account.
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		startHour := gofakeit.Number(7, 10)
		endHour := gofakeit.Number(15, 18)

		_, err := tx.Exec(ctx, `
			INSERT INTO doctors (id, name, username, password_hash, gender, birthdate, work_start_time, work_end_time, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		`, id,
			gofakeit.Name(),
			fmt.Sprintf("%s%d", gofakeit.Username(), i),
			string(hash),
			gofakeit.Gender(),
			gofakeit.DateRange(time.Date(1960, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(1995, 12, 31, 0, 0, 0, 0, time.UTC)),
			clockTime(startHour, 0),
			clockTime(endHour, 0),
		)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, tx.Commit(ctx)
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	const batchSize = 100

	var ids []uuid.UUID
	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return nil, err
		}

		for i := offset; i < end; i++ {
			id := uuid.New()

			_, err := tx.Exec(ctx, `
				INSERT INTO patients (id, name, gender, birthdate, no_ktp, address, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, now(), now())
			`, id,
				gofakeit.Name(),
				gofakeit.Gender(),
				gofakeit.DateRange(time.Date(1940, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC)),
				gofakeit.DigitN(16),
				gofakeit.Address().Address,
			)
			if err != nil {
				_ = tx.Rollback(ctx)
				return nil, err
			}
			ids = append(ids, id)
		}

		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}
	}

	return ids, nil
}

func seedEmployees(ctx context.Context, pool *pgxpool.Pool, count int) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	for i := 0; i < count; i++ {
		_, err := tx.Exec(ctx, `
			INSERT INTO employees (id, name, username, password_hash, gender, birthdate, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		`, uuid.New(),
			gofakeit.Name(),
			fmt.Sprintf("%s%d", gofakeit.Username(), i),
			string(hash),
			gofakeit.Gender(),
			gofakeit.DateRange(time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2000, 12, 31, 0, 0, 0, 0, time.UTC)),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// seedAppointments gives each doctor a handful of future slots an hour apart,
// comfortably clear of the 30-minute spacing rule.
func seedAppointments(ctx context.Context, pool *pgxpool.Pool, doctorIDs, patientIDs []uuid.UUID) (int, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	tomorrow := time.Now().AddDate(0, 0, 1)
	base := time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 10, 0, 0, 0, time.Local)

	count := 0
	for _, doctorID := range doctorIDs {
		perDoctor := gofakeit.Number(2, 5)
		for slot := 0; slot < perDoctor; slot++ {
			patientID := patientIDs[gofakeit.Number(0, len(patientIDs)-1)]

			_, err := tx.Exec(ctx, `
				INSERT INTO appointments (id, patient_id, doctor_id, scheduled_at, status, created_at, updated_at)
				VALUES ($1, $2, $3, $4, 'IN_QUEUE', now(), now())
			`, uuid.New(), patientID, doctorID, base.Add(time.Duration(slot)*time.Hour))
			if err != nil {
				return 0, err
			}
			count++
		}
	}

	return count, tx.Commit(ctx)
}
