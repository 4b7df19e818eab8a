package clinic

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisclient "github.com/clinicops/clinic-backend/internal/redis"
)

// noopLocker runs the critical section directly.
type noopLocker struct{}

func (noopLocker) WithDoctorLock(ctx context.Context, _ uuid.UUID, fn func(context.Context) error) error {
	return fn(ctx)
}

// busyLocker simulates a contended lock.
type busyLocker struct{}

func (busyLocker) WithDoctorLock(context.Context, uuid.UUID, func(context.Context) error) error {
	return redisclient.ErrLockNotAcquired
}

// mutexLocker serializes critical sections per doctor in-process, standing in
// for the Redis locker in concurrency tests.
type mutexLocker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func newMutexLocker() *mutexLocker {
	return &mutexLocker{locks: make(map[uuid.UUID]*sync.Mutex)}
}

func (l *mutexLocker) WithDoctorLock(ctx context.Context, doctorID uuid.UUID, fn func(context.Context) error) error {
	l.mu.Lock()
	m, ok := l.locks[doctorID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[doctorID] = m
	}
	l.mu.Unlock()

	m.Lock()
	defer m.Unlock()
	return fn(ctx)
}

func newTestService(t *testing.T) (*Service, *memRepo) {
	t.Helper()
	repo := newMemRepo()
	return NewService(repo, noopLocker{}, zerolog.Nop()), repo
}

func seedDoctor(t *testing.T, repo *memRepo, start, end string) *Doctor {
	t.Helper()
	ws, err := ParseTimeOfDay(start)
	require.NoError(t, err)
	we, err := ParseTimeOfDay(end)
	require.NoError(t, err)

	d, err := repo.CreateDoctor(context.Background(), &Doctor{
		Name:      "Dr. Test",
		Username:  "drtest-" + uuid.NewString()[:8],
		Gender:    "female",
		Birthdate: time.Date(1980, 5, 4, 0, 0, 0, 0, time.UTC),
		WorkStart: ws,
		WorkEnd:   we,
	})
	require.NoError(t, err)
	return d
}

func seedPatient(t *testing.T, repo *memRepo) *Patient {
	t.Helper()
	gender, address := "male", "Jl. Test 1"
	p, err := repo.CreatePatient(context.Background(), &Patient{
		Name:      "Test Patient",
		Gender:    &gender,
		Birthdate: time.Date(1990, 1, 2, 0, 0, 0, 0, time.UTC),
		NoKTP:     uuid.NewString()[:8], // tests bypass validation at the repo level
		Address:   &address,
	})
	require.NoError(t, err)
	return p
}

func at(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(DateTimeLayout, s)
	require.NoError(t, err)
	return ts
}

func TestCreateAppointment_SpacingAndWorkingHours(t *testing.T) {
	svc, repo := newTestService(t)
	doctor := seedDoctor(t, repo, "09:00:00", "17:00:00")
	patient := seedPatient(t, repo)
	ctx := context.Background()

	// Existing appointment at 14:00.
	_, err := svc.CreateAppointment(ctx, CreateAppointmentParams{
		PatientID:   patient.ID,
		DoctorID:    doctor.ID,
		ScheduledAt: at(t, "2026-09-01 14:00:00"),
	})
	require.NoError(t, err)

	cases := []struct {
		name    string
		when    string
		wantErr error
	}{
		{"too close after", "2026-09-01 14:20:00", ErrDoctorBooked},
		{"too close before", "2026-09-01 13:45:00", ErrDoctorBooked},
		{"exact duplicate", "2026-09-01 14:00:00", ErrDoctorBooked},
		{"exactly at boundary", "2026-09-01 14:30:00", nil},
		{"comfortably after", "2026-09-01 15:31:00", nil},
		{"before working hours", "2026-09-01 08:00:00", ErrOutsideWorkingHours},
		{"after working hours", "2026-09-01 17:30:00", ErrOutsideWorkingHours},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateAppointment(ctx, CreateAppointmentParams{
				PatientID:   patient.ID,
				DoctorID:    doctor.ID,
				ScheduledAt: at(t, tc.when),
			})
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCreateAppointment_WorkingHoursInclusive(t *testing.T) {
	svc, repo := newTestService(t)
	doctor := seedDoctor(t, repo, "09:00:00", "17:00:00")
	patient := seedPatient(t, repo)
	ctx := context.Background()

	// Both bounds are bookable.
	_, err := svc.CreateAppointment(ctx, CreateAppointmentParams{
		PatientID: patient.ID, DoctorID: doctor.ID, ScheduledAt: at(t, "2026-09-01 09:00:00"),
	})
	assert.NoError(t, err)

	_, err = svc.CreateAppointment(ctx, CreateAppointmentParams{
		PatientID: patient.ID, DoctorID: doctor.ID, ScheduledAt: at(t, "2026-09-01 17:00:00"),
	})
	assert.NoError(t, err)
}

func TestCreateAppointment_MinuteGranularity(t *testing.T) {
	svc, repo := newTestService(t)
	doctor := seedDoctor(t, repo, "09:00:00", "17:00:00")
	patient := seedPatient(t, repo)
	ctx := context.Background()

	// Seconds are accepted on input but ignored for conflict purposes.
	_, err := svc.CreateAppointment(ctx, CreateAppointmentParams{
		PatientID: patient.ID, DoctorID: doctor.ID, ScheduledAt: at(t, "2026-09-01 14:00:45"),
	})
	require.NoError(t, err)

	// 14:30:10 vs 14:00:45 is a 30-minute gap at minute granularity.
	_, err = svc.CreateAppointment(ctx, CreateAppointmentParams{
		PatientID: patient.ID, DoctorID: doctor.ID, ScheduledAt: at(t, "2026-09-01 14:30:10"),
	})
	assert.NoError(t, err)

	// 14:29:59 is a 29-minute gap.
	_, err = svc.CreateAppointment(ctx, CreateAppointmentParams{
		PatientID: patient.ID, DoctorID: doctor.ID, ScheduledAt: at(t, "2026-09-01 14:29:59"),
	})
	assert.ErrorIs(t, err, ErrDoctorBooked)
}

func TestCreateAppointment_CancelledNeverConflicts(t *testing.T) {
	svc, repo := newTestService(t)
	doctor := seedDoctor(t, repo, "09:00:00", "17:00:00")
	patient := seedPatient(t, repo)
	ctx := context.Background()

	created, err := svc.CreateAppointment(ctx, CreateAppointmentParams{
		PatientID: patient.ID, DoctorID: doctor.ID, ScheduledAt: at(t, "2026-09-01 14:00:00"),
	})
	require.NoError(t, err)

	cancelled := StatusCancelled
	_, err = svc.UpdateAppointment(ctx, created.ID, AppointmentPatch{Status: &cancelled})
	require.NoError(t, err)

	_, err = svc.CreateAppointment(ctx, CreateAppointmentParams{
		PatientID: patient.ID, DoctorID: doctor.ID, ScheduledAt: at(t, "2026-09-01 14:10:00"),
	})
	assert.NoError(t, err)
}

func TestCreateAppointment_Validation(t *testing.T) {
	svc, repo := newTestService(t)
	doctor := seedDoctor(t, repo, "09:00:00", "17:00:00")
	patient := seedPatient(t, repo)
	ctx := context.Background()
	when := at(t, "2026-09-01 10:00:00")

	_, err := svc.CreateAppointment(ctx, CreateAppointmentParams{DoctorID: doctor.ID, ScheduledAt: when})
	assert.ErrorIs(t, err, ErrMissingField)

	_, err = svc.CreateAppointment(ctx, CreateAppointmentParams{PatientID: patient.ID, ScheduledAt: when})
	assert.ErrorIs(t, err, ErrMissingField)

	_, err = svc.CreateAppointment(ctx, CreateAppointmentParams{PatientID: patient.ID, DoctorID: doctor.ID})
	assert.ErrorIs(t, err, ErrMissingField)

	_, err = svc.CreateAppointment(ctx, CreateAppointmentParams{
		PatientID: patient.ID, DoctorID: doctor.ID, ScheduledAt: when, Status: "DELAYED",
	})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.CreateAppointment(ctx, CreateAppointmentParams{
		PatientID: uuid.New(), DoctorID: doctor.ID, ScheduledAt: when,
	})
	assert.ErrorIs(t, err, ErrPatientNotFound)

	_, err = svc.CreateAppointment(ctx, CreateAppointmentParams{
		PatientID: patient.ID, DoctorID: uuid.New(), ScheduledAt: when,
	})
	assert.ErrorIs(t, err, ErrDoctorNotFound)

	// No writes should have happened.
	appts, err := repo.ListAppointments(ctx)
	require.NoError(t, err)
	assert.Empty(t, appts)
}

func TestCreateAppointment_DefaultStatus(t *testing.T) {
	svc, repo := newTestService(t)
	doctor := seedDoctor(t, repo, "09:00:00", "17:00:00")
	patient := seedPatient(t, repo)

	appt, err := svc.CreateAppointment(context.Background(), CreateAppointmentParams{
		PatientID: patient.ID, DoctorID: doctor.ID, ScheduledAt: at(t, "2026-09-01 10:00:00"),
	})
	require.NoError(t, err)
	assert.Equal(t, StatusInQueue, appt.Status)
}

func TestCreateAppointment_LockContention(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, busyLocker{}, zerolog.Nop())
	doctor := seedDoctor(t, repo, "09:00:00", "17:00:00")
	patient := seedPatient(t, repo)

	_, err := svc.CreateAppointment(context.Background(), CreateAppointmentParams{
		PatientID: patient.ID, DoctorID: doctor.ID, ScheduledAt: at(t, "2026-09-01 10:00:00"),
	})
	assert.ErrorIs(t, err, ErrDoctorBusy)
}

func TestCreateAppointment_ConcurrentSameSlot(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, newMutexLocker(), zerolog.Nop())
	doctor := seedDoctor(t, repo, "09:00:00", "17:00:00")
	patient := seedPatient(t, repo)
	when := at(t, "2026-09-01 11:00:00")

	const attempts = 16
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateAppointment(context.Background(), CreateAppointmentParams{
				PatientID: patient.ID, DoctorID: doctor.ID, ScheduledAt: when,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrDoctorBooked)
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one concurrent booking for the same slot may win")
}

func TestUpdateAppointment_ExcludesItself(t *testing.T) {
	svc, repo := newTestService(t)
	doctor := seedDoctor(t, repo, "09:00:00", "17:00:00")
	patient := seedPatient(t, repo)
	ctx := context.Background()

	appt, err := svc.CreateAppointment(ctx, CreateAppointmentParams{
		PatientID: patient.ID, DoctorID: doctor.ID, ScheduledAt: at(t, "2026-09-01 14:00:00"),
	})
	require.NoError(t, err)

	// Nudging by 10 minutes conflicts only with itself, which must not count.
	when := at(t, "2026-09-01 14:10:00")
	updated, err := svc.UpdateAppointment(ctx, appt.ID, AppointmentPatch{ScheduledAt: &when})
	require.NoError(t, err)
	assert.True(t, updated.ScheduledAt.Equal(when))

	// Re-submitting the identical time must also succeed.
	_, err = svc.UpdateAppointment(ctx, appt.ID, AppointmentPatch{ScheduledAt: &when})
	assert.NoError(t, err)
}

func TestUpdateAppointment_ConflictsWithOthers(t *testing.T) {
	svc, repo := newTestService(t)
	doctor := seedDoctor(t, repo, "09:00:00", "17:00:00")
	patient := seedPatient(t, repo)
	ctx := context.Background()

	first, err := svc.CreateAppointment(ctx, CreateAppointmentParams{
		PatientID: patient.ID, DoctorID: doctor.ID, ScheduledAt: at(t, "2026-09-01 14:00:00"),
	})
	require.NoError(t, err)

	_, err = svc.CreateAppointment(ctx, CreateAppointmentParams{
		PatientID: patient.ID, DoctorID: doctor.ID, ScheduledAt: at(t, "2026-09-01 15:00:00"),
	})
	require.NoError(t, err)

	when := at(t, "2026-09-01 15:10:00")
	_, err = svc.UpdateAppointment(ctx, first.ID, AppointmentPatch{ScheduledAt: &when})
	assert.ErrorIs(t, err, ErrDoctorBooked)

	outside := at(t, "2026-09-01 18:00:00")
	_, err = svc.UpdateAppointment(ctx, first.ID, AppointmentPatch{ScheduledAt: &outside})
	assert.ErrorIs(t, err, ErrOutsideWorkingHours)
}

func TestUpdateAppointment_PartialPatch(t *testing.T) {
	svc, repo := newTestService(t)
	doctor := seedDoctor(t, repo, "09:00:00", "17:00:00")
	patient := seedPatient(t, repo)
	ctx := context.Background()

	appt, err := svc.CreateAppointment(ctx, CreateAppointmentParams{
		PatientID: patient.ID, DoctorID: doctor.ID, ScheduledAt: at(t, "2026-09-01 14:00:00"),
	})
	require.NoError(t, err)

	notes := "follow-up in two weeks"
	updated, err := svc.UpdateAppointment(ctx, appt.ID, AppointmentPatch{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, notes, updated.Notes)
	assert.True(t, updated.ScheduledAt.Equal(appt.ScheduledAt), "untouched fields keep their values")
	assert.Equal(t, StatusInQueue, updated.Status)

	// A present empty string clears the field; an absent one leaves it alone.
	empty := ""
	updated, err = svc.UpdateAppointment(ctx, appt.ID, AppointmentPatch{Notes: &empty})
	require.NoError(t, err)
	assert.Equal(t, "", updated.Notes)
}

func TestUpdateAppointment_StatusSet(t *testing.T) {
	svc, repo := newTestService(t)
	doctor := seedDoctor(t, repo, "09:00:00", "17:00:00")
	patient := seedPatient(t, repo)
	ctx := context.Background()

	appt, err := svc.CreateAppointment(ctx, CreateAppointmentParams{
		PatientID: patient.ID, DoctorID: doctor.ID, ScheduledAt: at(t, "2026-09-01 14:00:00"),
	})
	require.NoError(t, err)

	bad := AppointmentStatus("DELAYED")
	_, err = svc.UpdateAppointment(ctx, appt.ID, AppointmentPatch{Status: &bad})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	// All members of the set are reachable from any prior state.
	for _, status := range []AppointmentStatus{StatusDone, StatusCancelled, StatusInQueue} {
		s := status
		updated, err := svc.UpdateAppointment(ctx, appt.ID, AppointmentPatch{Status: &s})
		require.NoError(t, err)
		assert.Equal(t, s, updated.Status)
	}
}

func TestUpdateAppointment_StatusOnlyPatchSkipsAvailability(t *testing.T) {
	svc, repo := newTestService(t)
	doctor := seedDoctor(t, repo, "09:00:00", "17:00:00")
	patient := seedPatient(t, repo)
	ctx := context.Background()

	first, err := svc.CreateAppointment(ctx, CreateAppointmentParams{
		PatientID: patient.ID, DoctorID: doctor.ID, ScheduledAt: at(t, "2026-09-01 14:00:00"),
	})
	require.NoError(t, err)

	cancelled := StatusCancelled
	_, err = svc.UpdateAppointment(ctx, first.ID, AppointmentPatch{Status: &cancelled})
	require.NoError(t, err)

	// The freed slot gets taken.
	_, err = svc.CreateAppointment(ctx, CreateAppointmentParams{
		PatientID: patient.ID, DoctorID: doctor.ID, ScheduledAt: at(t, "2026-09-01 14:10:00"),
	})
	require.NoError(t, err)

	// Status is membership-only: reinstating the cancelled appointment does
	// not re-run the spacing check, even though 14:00 now sits 10 minutes
	// from the 14:10 booking. Only a datetime change triggers the check.
	inQueue := StatusInQueue
	updated, err := svc.UpdateAppointment(ctx, first.ID, AppointmentPatch{Status: &inQueue})
	require.NoError(t, err)
	assert.Equal(t, StatusInQueue, updated.Status)
}

func TestUpdateAppointment_NotFound(t *testing.T) {
	svc, _ := newTestService(t)

	notes := "x"
	_, err := svc.UpdateAppointment(context.Background(), uuid.New(), AppointmentPatch{Notes: &notes})
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestDeleteAppointment(t *testing.T) {
	svc, repo := newTestService(t)
	doctor := seedDoctor(t, repo, "09:00:00", "17:00:00")
	patient := seedPatient(t, repo)
	ctx := context.Background()

	appt, err := svc.CreateAppointment(ctx, CreateAppointmentParams{
		PatientID: patient.ID, DoctorID: doctor.ID, ScheduledAt: at(t, "2026-09-01 14:00:00"),
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteAppointment(ctx, appt.ID))

	_, err = svc.GetAppointment(ctx, appt.ID)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)

	assert.ErrorIs(t, svc.DeleteAppointment(ctx, appt.ID), ErrAppointmentNotFound)
}
