package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicops/clinic-backend/internal/clinic"
)

type fakeSource struct {
	records []clinic.VaccineRecord
	err     error
}

func (s *fakeSource) Aggregates(context.Context) ([]clinic.VaccineRecord, error) {
	return s.records, s.err
}

// fakeStore tracks known KTPs so repeated runs distinguish insert from update.
type fakeStore struct {
	mu      sync.Mutex
	known   map[string]clinic.VaccineRecord
	failFor map[string]error
	delay   time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{known: make(map[string]clinic.VaccineRecord), failFor: make(map[string]error)}
}

func (s *fakeStore) UpsertVaccineRecord(_ context.Context, rec clinic.VaccineRecord) (bool, error) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failFor[rec.NoKTP]; ok {
		return false, err
	}
	_, exists := s.known[rec.NoKTP]
	s.known[rec.NoKTP] = rec
	return !exists, nil
}

func sampleRecords() []clinic.VaccineRecord {
	bd := time.Date(1990, 6, 1, 0, 0, 0, 0, time.UTC)
	return []clinic.VaccineRecord{
		{NoKTP: "3173014403920001", Name: "Budi", Birthdate: bd, VaccineType: "sinovac", VaccineCount: 2},
		{NoKTP: "3173014403920002", Name: "Sari", Birthdate: bd, VaccineType: "moderna", VaccineCount: 1},
		{NoKTP: "3173014403920003", Name: "Andi", Birthdate: bd, VaccineType: "pfizer", VaccineCount: 3},
	}
}

func TestJobRun(t *testing.T) {
	source := &fakeSource{records: sampleRecords()}
	store := newFakeStore()
	job := NewJob(source, store, 0, zerolog.Nop())

	sum, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{Processed: 3, Inserted: 3}, sum)
}

func TestJobRun_Idempotent(t *testing.T) {
	source := &fakeSource{records: sampleRecords()}
	store := newFakeStore()
	job := NewJob(source, store, 0, zerolog.Nop())

	_, err := job.Run(context.Background())
	require.NoError(t, err)

	// Unchanged warehouse data: everything resolves as an update.
	sum, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{Processed: 3, Updated: 3}, sum)
}

func TestJobRun_RowFailureDoesNotAbort(t *testing.T) {
	source := &fakeSource{records: sampleRecords()}
	store := newFakeStore()
	store.failFor["3173014403920002"] = errors.New("deadlock detected")
	job := NewJob(source, store, 0, zerolog.Nop())

	sum, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{Processed: 3, Inserted: 2, Failed: 1}, sum)

	// The rows around the failure landed.
	assert.Contains(t, store.known, "3173014403920001")
	assert.Contains(t, store.known, "3173014403920003")
	assert.NotContains(t, store.known, "3173014403920002")
}

func TestJobRun_SourceError(t *testing.T) {
	source := &fakeSource{err: errors.New("bigquery: permission denied")}
	job := NewJob(source, newFakeStore(), 0, zerolog.Nop())

	_, err := job.Run(context.Background())
	assert.ErrorContains(t, err, "fetch warehouse aggregates")
}

func TestJobRun_DeadlineStopsEarly(t *testing.T) {
	source := &fakeSource{records: sampleRecords()}
	store := newFakeStore()
	store.delay = 30 * time.Millisecond
	job := NewJob(source, store, 40*time.Millisecond, zerolog.Nop())

	sum, err := job.Run(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, sum.Processed, 3, "remaining rows are left for the next run")
	assert.GreaterOrEqual(t, sum.Processed, 1)
}

func TestJobRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	source := &fakeSource{records: sampleRecords()}
	store := newFakeStore()
	job := NewJob(source, store, 0, zerolog.Nop())

	sum, err := job.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, sum.Processed)
	assert.Empty(t, store.known)
}
