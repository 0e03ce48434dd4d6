package destination

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wayfinder-labs/service-wayfinding/internal/platform/domain"
)

// Destination is a location name recorded by the dialogue engine for a session.
type Destination struct {
	id        uuid.UUID
	name      string
	sessionID string
	createdAt time.Time
}

// NewDestination validates and creates a destination record.
func NewDestination(name, sessionID string, createdAt time.Time) (*Destination, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewValidationError("destination name is required")
	}
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	return &Destination{
		id:        uuid.New(),
		name:      name,
		sessionID: sessionID,
		createdAt: createdAt.UTC(),
	}, nil
}

// ReconstructDestination rebuilds a Destination from persistence data (no validation).
func ReconstructDestination(id uuid.UUID, name, sessionID string, createdAt time.Time) *Destination {
	return &Destination{id: id, name: name, sessionID: sessionID, createdAt: createdAt}
}

func (d *Destination) ID() uuid.UUID        { return d.id }
func (d *Destination) Name() string         { return d.name }
func (d *Destination) SessionID() string    { return d.sessionID }
func (d *Destination) CreatedAt() time.Time { return d.createdAt }

// Repository is the destination store. Writes come only from dialogue engine events.
type Repository interface {
	// Latest returns the most recently created destination, or a not-found error.
	Latest(ctx context.Context) (*Destination, error)

	// Save records a destination.
	Save(ctx context.Context, d *Destination) error
}
