// Command simulate drives concurrent booking traffic at the API and then
// checks, straight against Postgres, that no doctor ended up with two
// non-cancelled appointments closer than the minimum spacing.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicops/clinic-backend/internal/clinic"
	"github.com/clinicops/clinic-backend/internal/config"
	"github.com/clinicops/clinic-backend/internal/db"
)

type metrics struct {
	total    int64
	created  int64
	conflict int64
	errored  int64

	mu        sync.Mutex
	latencies []time.Duration
}

func (m *metrics) record(latency time.Duration, status int) {
	atomic.AddInt64(&m.total, 1)
	switch {
	case status == http.StatusCreated:
		atomic.AddInt64(&m.created, 1)
	case status == http.StatusConflict:
		atomic.AddInt64(&m.conflict, 1)
	default:
		atomic.AddInt64(&m.errored, 1)
	}

	m.mu.Lock()
	m.latencies = append(m.latencies, latency)
	m.mu.Unlock()
}

func (m *metrics) avgLatency() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.latencies) == 0 {
		return 0
	}
	var sum time.Duration
	for _, l := range m.latencies {
		sum += l
	}
	return sum / time.Duration(len(m.latencies))
}

func main() {
	baseURL := flag.String("base-url", "http://127.0.0.1:8080", "api-server base URL")
	workers := flag.Int("workers", 16, "concurrent booking workers")
	requests := flag.Int("requests", 200, "total booking attempts")
	flag.Parse()

	logger := config.NewLogger("dev", "simulate")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config load error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	doctorIDs, err := loadIDs(ctx, pool, `SELECT id FROM doctors LIMIT 5`)
	if err != nil || len(doctorIDs) == 0 {
		logger.Fatal().Err(err).Msg("no doctors to book against, run cmd/seed first")
	}
	patientIDs, err := loadIDs(ctx, pool, `SELECT id FROM patients LIMIT 100`)
	if err != nil || len(patientIDs) == 0 {
		logger.Fatal().Err(err).Msg("no patients to book with, run cmd/seed first")
	}

	// Deliberately cram attempts into a narrow window per doctor so most
	// requests contend for the same or nearby minutes.
	dayAfterTomorrow := time.Now().AddDate(0, 0, 2)
	windowStart := time.Date(dayAfterTomorrow.Year(), dayAfterTomorrow.Month(), dayAfterTomorrow.Day(), 11, 0, 0, 0, time.Local)

	logger.Info().
		Int("workers", *workers).
		Int("requests", *requests).
		Int("doctors", len(doctorIDs)).
		Msg("starting booking simulation")

	var m metrics
	jobs := make(chan int)
	var wg sync.WaitGroup

	client := &http.Client{Timeout: 10 * time.Second}

	for w := 0; w < *workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range jobs {
				doctorID := doctorIDs[rand.Intn(len(doctorIDs))]
				patientID := patientIDs[rand.Intn(len(patientIDs))]
				slot := windowStart.Add(time.Duration(rand.Intn(24)) * 10 * time.Minute)

				status, latency := book(ctx, client, *baseURL, doctorID, patientID, slot)
				m.record(latency, status)
			}
		}()
	}

	start := time.Now()
	for i := 0; i < *requests; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	elapsed := time.Since(start)

	logger.Info().
		Int64("total", m.total).
		Int64("created", m.created).
		Int64("conflict", m.conflict).
		Int64("errored", m.errored).
		Dur("elapsed", elapsed).
		Dur("avg_latency", m.avgLatency()).
		Msg("simulation finished")

	violations, err := spacingViolations(ctx, pool)
	if err != nil {
		logger.Fatal().Err(err).Msg("violation check failed")
	}
	if violations > 0 {
		logger.Fatal().Int("violations", violations).Msg("spacing invariant BROKEN")
	}
	logger.Info().Msg("spacing invariant held under concurrent load")
}

func book(ctx context.Context, client *http.Client, baseURL string, doctorID, patientID uuid.UUID, slot time.Time) (int, time.Duration) {
	body, _ := json.Marshal(map[string]string{
		"patient_id": patientID.String(),
		"doctor_id":  doctorID.String(),
		"datetime":   slot.Format(clinic.DateTimeLayout),
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/appointments", bytes.NewReader(body))
	if err != nil {
		return 0, 0
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return 0, latency
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, latency
}

func loadIDs(ctx context.Context, pool *pgxpool.Pool, query string) ([]uuid.UUID, error) {
	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// spacingViolations counts pairs of non-cancelled appointments for the same
// doctor closer than the minimum spacing, at minute granularity.
func spacingViolations(ctx context.Context, pool *pgxpool.Pool) (int, error) {
	var count int
	err := pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT COUNT(*)
		FROM appointments a
		JOIN appointments b
		  ON a.doctor_id = b.doctor_id AND a.id < b.id
		WHERE a.status <> 'CANCELLED'
		  AND b.status <> 'CANCELLED'
		  AND abs(extract(epoch FROM date_trunc('minute', a.scheduled_at) - date_trunc('minute', b.scheduled_at))) < %d
	`, int(clinic.MinSpacing.Seconds()))).Scan(&count)
	return count, err
}
