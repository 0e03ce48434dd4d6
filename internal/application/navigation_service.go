package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wayfinder-labs/service-wayfinding/internal/domain/movement"
	"github.com/wayfinder-labs/service-wayfinding/internal/domain/navigation"
	"github.com/wayfinder-labs/service-wayfinding/internal/domain/venue"
	"github.com/wayfinder-labs/service-wayfinding/internal/platform/domain"
	"github.com/wayfinder-labs/service-wayfinding/internal/platform/kafka"
	"github.com/wayfinder-labs/service-wayfinding/internal/platform/metrics"
	"github.com/wayfinder-labs/service-wayfinding/internal/proto/events"
	"go.uber.org/zap"
)

const serviceSource = "service-wayfinding"

// EventPublisher publishes CloudEvents. *kafka.Producer satisfies it.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, ce kafka.CloudEvent) error
}

// NavigateRequest asks for a route between two named locations.
type NavigateRequest struct {
	Start       string `json:"start"`
	Destination string `json:"destination" binding:"required"`
	Accessible  *bool  `json:"accessible"`
}

// NormalizeRequest runs the normalizer over a caller-supplied route.
type NormalizeRequest struct {
	Instructions []navigation.RawInstruction `json:"instructions"`
	Round        *bool                       `json:"round"`
}

// RouteDTO is the response representation of a computed route.
type RouteDTO struct {
	RouteID       uuid.UUID         `json:"route_id"`
	Start         string            `json:"start"`
	Destination   string            `json:"destination"`
	Accessible    bool              `json:"accessible"`
	Steps         []navigation.Step `json:"steps"`
	TotalDistance float64           `json:"total_distance"`
	CreatedAt     time.Time         `json:"created_at"`
}

// NavigationOptions holds route defaults.
type NavigationOptions struct {
	DefaultStart   string
	Accessible     bool
	RoundDistances bool
}

// NavigationService resolves named locations to map entities, requests a route and
// stores its normalized steps.
type NavigationService struct {
	engine     venue.Engine
	sink       movement.Sink
	publisher  EventPublisher
	normalizer navigation.Normalizer
	opts       NavigationOptions
	logger     *zap.Logger
}

// NewNavigationService creates a new NavigationService. publisher may be nil.
func NewNavigationService(
	engine venue.Engine,
	sink movement.Sink,
	publisher EventPublisher,
	opts NavigationOptions,
	logger *zap.Logger,
) *NavigationService {
	return &NavigationService{
		engine:     engine,
		sink:       sink,
		publisher:  publisher,
		normalizer: navigation.Normalizer{RoundDistances: opts.RoundDistances},
		opts:       opts,
		logger:     logger,
	}
}

// Navigate computes and stores the route for req.
// An unknown start or destination, or a missing path, returns a not-found error
// without calling the engine's directions or writing movements.
func (s *NavigationService) Navigate(ctx context.Context, req NavigateRequest) (*RouteDTO, error) {
	start := strings.TrimSpace(req.Start)
	if start == "" {
		start = s.opts.DefaultStart
	}
	dest := strings.TrimSpace(req.Destination)
	if dest == "" {
		return nil, domain.NewValidationError("destination is required")
	}
	accessible := s.opts.Accessible
	if req.Accessible != nil {
		accessible = *req.Accessible
	}

	began := time.Now()
	entities, err := s.engine.Entities(ctx)
	observe("mapping", "entities", began)
	if err != nil {
		return nil, domain.NewUpstreamError("mapping", err)
	}

	from, ok := venue.MatchName(entities, start)
	if !ok {
		return nil, s.unresolved(ctx, start, dest, "start not found", domain.NewNotFoundError("Location", start))
	}
	to, ok := venue.MatchName(entities, dest)
	if !ok {
		return nil, s.unresolved(ctx, start, dest, "destination not found", domain.NewNotFoundError("Location", dest))
	}

	began = time.Now()
	directions, err := s.engine.Directions(ctx, from, to, venue.DirectionsOptions{Accessible: accessible})
	observe("mapping", "directions", began)
	if err != nil {
		return nil, domain.NewUpstreamError("mapping", err)
	}
	if directions == nil {
		return nil, s.unresolved(ctx, start, dest, "no route", domain.NewNotFoundError("Route", from.Name+" -> "+to.Name))
	}

	steps := s.normalizer.Normalize(directions.Instructions)
	rec, err := movement.NewRecord(from.Name, to.Name, steps)
	if err != nil {
		return nil, err
	}
	if err := s.sink.Write(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to write movements: %w", err)
	}
	metrics.RouteSteps.Observe(float64(len(steps)))

	s.logger.Info("route computed",
		zap.String("route_id", rec.RouteID.String()),
		zap.String("start", from.Name),
		zap.String("destination", to.Name),
		zap.Int("instructions", len(directions.Instructions)),
		zap.Int("steps", len(steps)),
	)

	result := RouteDTO{
		RouteID:       rec.RouteID,
		Start:         rec.Start,
		Destination:   rec.Destination,
		Accessible:    accessible,
		Steps:         rec.Steps,
		TotalDistance: rec.TotalDistance(),
		CreatedAt:     rec.CreatedAt,
	}
	s.publishEvent(ctx, events.NavigationRouteComputed, events.RouteComputedEvent{
		RouteID:       result.RouteID,
		Start:         result.Start,
		Destination:   result.Destination,
		Accessible:    result.Accessible,
		Steps:         result.Steps,
		TotalDistance: result.TotalDistance,
		OccurredAt:    time.Now().UTC(),
	})
	return &result, nil
}

// Normalize runs the normalizer without touching the engine or the store.
func (s *NavigationService) Normalize(req NormalizeRequest) []navigation.Step {
	n := s.normalizer
	if req.Round != nil {
		n.RoundDistances = *req.Round
	}
	return n.Normalize(req.Instructions)
}

// LatestMovement returns the most recently stored route for guidance devices.
func (s *NavigationService) LatestMovement(ctx context.Context) (*movement.Record, error) {
	return s.sink.Latest(ctx)
}

func (s *NavigationService) unresolved(ctx context.Context, start, dest, reason string, err error) error {
	s.logger.Info("route not resolved",
		zap.String("start", start),
		zap.String("destination", dest),
		zap.String("reason", reason),
	)
	s.publishEvent(ctx, events.NavigationRouteUnresolved, events.RouteUnresolvedEvent{
		Start:       start,
		Destination: dest,
		Reason:      reason,
		OccurredAt:  time.Now().UTC(),
	})
	return err
}

func (s *NavigationService) publishEvent(ctx context.Context, eventType string, data any) {
	if s.publisher == nil {
		return
	}
	ce, err := kafka.NewCloudEvent(serviceSource, eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event", zap.String("type", eventType), zap.Error(err))
		return
	}
	if err := s.publisher.PublishEvent(ctx, events.TopicNavigationEvents, ce); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("failed to publish event", zap.String("type", eventType), zap.Error(err))
	}
}

func observe(collaborator, operation string, began time.Time) {
	metrics.UpstreamLatency.WithLabelValues(collaborator, operation).Observe(time.Since(began).Seconds())
}
