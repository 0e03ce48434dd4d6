package movement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wayfinder-labs/service-wayfinding/internal/domain/navigation"
	"github.com/wayfinder-labs/service-wayfinding/internal/platform/domain"
)

// Record is the normalized step sequence of one computed route, as stored for guidance devices.
type Record struct {
	RouteID     uuid.UUID         `json:"route_id"`
	Start       string            `json:"start"`
	Destination string            `json:"destination"`
	Steps       []navigation.Step `json:"steps"`
	CreatedAt   time.Time         `json:"created_at"`
}

// NewRecord validates steps and stamps a new route ID.
func NewRecord(start, destination string, steps []navigation.Step) (*Record, error) {
	for i, s := range steps {
		if !s.Action.IsValid() {
			return nil, domain.NewValidationError(fmt.Sprintf("step %d: unknown action %q", i, s.Action))
		}
		if s.Distance < 0 {
			return nil, domain.NewValidationError(fmt.Sprintf("step %d: negative distance", i))
		}
		if s.Action != navigation.StepStraight && s.Distance != 0 {
			return nil, domain.NewValidationError(fmt.Sprintf("step %d: %s must have zero distance", i, s.Action))
		}
	}
	return &Record{
		RouteID:     uuid.New(),
		Start:       start,
		Destination: destination,
		Steps:       steps,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// TotalDistance is the walking distance of the record.
func (r *Record) TotalDistance() float64 {
	return navigation.TotalDistance(r.Steps)
}

// Sink is the movement store.
type Sink interface {
	// Write persists the full step sequence of one route.
	Write(ctx context.Context, rec *Record) error

	// Latest returns the most recently written route, or a not-found error.
	Latest(ctx context.Context) (*Record, error)
}
