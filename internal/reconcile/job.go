package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinicops/clinic-backend/internal/clinic"
)

// PatientStore is the slice of the clinic repository the job writes through.
type PatientStore interface {
	UpsertVaccineRecord(ctx context.Context, rec clinic.VaccineRecord) (inserted bool, err error)
}

// Summary reports the outcome of one reconciliation run.
type Summary struct {
	Processed int
	Inserted  int
	Updated   int
	Failed    int
}

// Job merges warehouse vaccine aggregates into the patient store. It is
// invoked by the scheduler on an interval and is safe to invoke on demand:
// re-running with unchanged warehouse data overwrites rows with the same
// values and inserts nothing.
type Job struct {
	source  Source
	store   PatientStore
	timeout time.Duration
	log     zerolog.Logger
}

func NewJob(source Source, store PatientStore, timeout time.Duration, log zerolog.Logger) *Job {
	return &Job{
		source:  source,
		store:   store,
		timeout: timeout,
		log:     log.With().Str("component", "reconcile").Logger(),
	}
}

// Run executes one reconciliation pass. Each row commits independently; a
// failed row is counted in the Summary and skipped, never aborting the run.
func (j *Job) Run(ctx context.Context) (Summary, error) {
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	records, err := j.source.Aggregates(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("fetch warehouse aggregates: %w", err)
	}

	var sum Summary
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			// Deadline hit: stop issuing new row operations. Rows already
			// committed stay committed; the next run redoes the remainder.
			j.log.Warn().
				Int("processed", sum.Processed).
				Int("remaining", len(records)-sum.Processed).
				Msg("reconciliation stopped before completion")
			return sum, err
		}

		inserted, err := j.store.UpsertVaccineRecord(ctx, rec)
		sum.Processed++
		if err != nil {
			sum.Failed++
			j.log.Error().Err(err).Str("no_ktp", rec.NoKTP).Msg("reconcile row failed")
			continue
		}
		if inserted {
			sum.Inserted++
		} else {
			sum.Updated++
		}
	}

	j.log.Info().
		Int("processed", sum.Processed).
		Int("inserted", sum.Inserted).
		Int("updated", sum.Updated).
		Int("failed", sum.Failed).
		Msg("reconciliation run complete")

	return sum, nil
}
