package clinic

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Wire formats accepted on input and produced on output.
const (
	DateTimeLayout = "2006-01-02 15:04:05"
	DateLayout     = "2006-01-02"
	TimeLayout     = "15:04:05"
)

// MinSpacing is the minimum gap required between two non-cancelled
// appointments for the same doctor. Instants are compared at minute
// granularity; a gap of exactly MinSpacing is allowed.
const MinSpacing = 30 * time.Minute

type AppointmentStatus string

const (
	StatusInQueue   AppointmentStatus = "IN_QUEUE"
	StatusDone      AppointmentStatus = "DONE"
	StatusCancelled AppointmentStatus = "CANCELLED"
)

// Valid reports whether s is a member of the status set. Any status can
// follow any other; there is no transition graph.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusInQueue, StatusDone, StatusCancelled:
		return true
	}
	return false
}

// TimeOfDay is a clock time with no date attached, at second precision.
type TimeOfDay struct {
	secs int
}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	return TimeOfDay{secs: t.Hour()*3600 + t.Minute()*60 + t.Second()}, nil
}

// ClockOf extracts the time-of-day component of t.
func ClockOf(t time.Time) TimeOfDay {
	return TimeOfDay{secs: t.Hour()*3600 + t.Minute()*60 + t.Second()}
}

// TimeOfDayFromSeconds builds a TimeOfDay from seconds since midnight.
func TimeOfDayFromSeconds(secs int) TimeOfDay {
	return TimeOfDay{secs: secs}
}

func (t TimeOfDay) Seconds() int { return t.secs }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.secs/3600, (t.secs/60)%60, t.secs%60)
}

type Patient struct {
	ID           uuid.UUID
	Name         string
	Gender       *string
	Birthdate    time.Time
	NoKTP        string
	Address      *string
	VaccineType  *string
	VaccineCount *int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Doctor struct {
	ID           uuid.UUID
	Name         string
	Username     string
	PasswordHash string
	Gender       string
	Birthdate    time.Time
	WorkStart    TimeOfDay
	WorkEnd      TimeOfDay
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// WorkingHoursContain reports whether the time-of-day component of t falls
// within the doctor's bookable window. Both bounds are inclusive.
func (d *Doctor) WorkingHoursContain(t time.Time) bool {
	clock := ClockOf(t).Seconds()
	return d.WorkStart.Seconds() <= clock && clock <= d.WorkEnd.Seconds()
}

type Employee struct {
	ID           uuid.UUID
	Name         string
	Username     string
	PasswordHash string
	Gender       string
	Birthdate    time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Appointment struct {
	ID          uuid.UUID
	PatientID   uuid.UUID
	DoctorID    uuid.UUID
	ScheduledAt time.Time
	Status      AppointmentStatus
	Diagnosis   string
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// VaccineRecord is one aggregated row pulled from the analytics warehouse:
// occurrence count of a vaccine type per national identifier.
type VaccineRecord struct {
	NoKTP        string
	Name         string
	Birthdate    time.Time
	VaccineType  string
	VaccineCount int
}

// ValidKTP reports whether s is a well-formed national identifier:
// exactly 16 numeric characters.
func ValidKTP(s string) bool {
	if len(s) != 16 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
