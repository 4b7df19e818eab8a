package clinic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Availability decides whether a doctor can take an appointment at a given
// instant. It is a two-sided nearest-neighbor check: the proposed instant
// must be at least MinSpacing away from both the closest earlier and the
// closest later non-cancelled appointment. A missing neighbor on either side
// is not a conflict. exclude (uuid.Nil for none) drops one appointment from
// the check so a reschedule does not collide with itself.
type Availability struct {
	repo Repository
}

func NewAvailability(repo Repository) *Availability {
	return &Availability{repo: repo}
}

func (av *Availability) IsAvailable(ctx context.Context, doctorID uuid.UUID, at time.Time, exclude uuid.UUID) (bool, error) {
	proposed := at.Truncate(time.Minute)

	prev, err := av.repo.NearestBefore(ctx, doctorID, at, exclude)
	if err != nil && !errors.Is(err, ErrAppointmentNotFound) {
		return false, fmt.Errorf("find previous appointment: %w", err)
	}
	if prev != nil {
		if proposed.Sub(prev.ScheduledAt.Truncate(time.Minute)) < MinSpacing {
			return false, nil
		}
	}

	next, err := av.repo.NearestAfter(ctx, doctorID, at, exclude)
	if err != nil && !errors.Is(err, ErrAppointmentNotFound) {
		return false, fmt.Errorf("find next appointment: %w", err)
	}
	if next != nil {
		if next.ScheduledAt.Truncate(time.Minute).Sub(proposed) < MinSpacing {
			return false, nil
		}
	}

	return true, nil
}
