package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	destinationDomain "github.com/wayfinder-labs/service-wayfinding/internal/domain/destination"
	"go.uber.org/zap"
)

// DestinationDTO is the response representation of a destination.
type DestinationDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	SessionID string    `json:"session_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DestinationService reads the latest destination and records new ones from dialogue events.
type DestinationService struct {
	repo   destinationDomain.Repository
	logger *zap.Logger
}

// NewDestinationService creates a new DestinationService.
func NewDestinationService(repo destinationDomain.Repository, logger *zap.Logger) *DestinationService {
	return &DestinationService{repo: repo, logger: logger}
}

// Latest returns the most recently recorded destination.
func (s *DestinationService) Latest(ctx context.Context) (*DestinationDTO, error) {
	d, err := s.repo.Latest(ctx)
	if err != nil {
		return nil, err
	}
	result := toDestinationDTO(d)
	return &result, nil
}

// Record stores a destination resolved by the dialogue engine.
func (s *DestinationService) Record(ctx context.Context, name, sessionID string, at time.Time) (*DestinationDTO, error) {
	d, err := destinationDomain.NewDestination(name, sessionID, at)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to record destination: %w", err)
	}

	s.logger.Info("destination recorded",
		zap.String("destination", d.Name()),
		zap.String("session_id", d.SessionID()),
	)
	result := toDestinationDTO(d)
	return &result, nil
}

func toDestinationDTO(d *destinationDomain.Destination) DestinationDTO {
	return DestinationDTO{
		ID:        d.ID(),
		Name:      d.Name(),
		SessionID: d.SessionID(),
		CreatedAt: d.CreatedAt(),
	}
}
