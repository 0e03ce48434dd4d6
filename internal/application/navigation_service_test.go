package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wayfinder-labs/service-wayfinding/internal/domain/navigation"
	"github.com/wayfinder-labs/service-wayfinding/internal/domain/venue"
	"github.com/wayfinder-labs/service-wayfinding/internal/platform/domain"
	"github.com/wayfinder-labs/service-wayfinding/internal/proto/events"
	"go.uber.org/zap"
)

func testEntities() []venue.Entity {
	return []venue.Entity{
		{ID: "s1", Name: "RBC Oasis Tent", Kind: venue.KindSpace},
		{ID: "s2", Name: "Food Court", Kind: venue.KindSpace},
		{ID: "p1", Name: "Info Desk", Kind: venue.KindPOI},
	}
}

func testDirections() *venue.Directions {
	return &venue.Directions{
		Distance: 10.4,
		Instructions: []navigation.RawInstruction{
			{Action: navigation.ActionDeparture, Distance: 5.2},
			{Action: navigation.ActionTurn, Bearing: navigation.BearingSlightRight, Distance: 3},
			{Action: navigation.ActionArrival, Distance: 2.2},
		},
	}
}

func newNavigationService(engine *fakeEngine, sink *fakeSink, pub EventPublisher, round bool) *NavigationService {
	return NewNavigationService(engine, sink, pub, NavigationOptions{
		DefaultStart:   "RBC Oasis Tent",
		Accessible:     true,
		RoundDistances: round,
	}, zap.NewNop())
}

func TestNavigate_Success(t *testing.T) {
	engine := &fakeEngine{entities: testEntities(), directions: testDirections()}
	sink := &fakeSink{}
	pub := &fakePublisher{}
	svc := newNavigationService(engine, sink, pub, true)

	route, err := svc.Navigate(context.Background(), NavigateRequest{Destination: "  food   court "})
	require.NoError(t, err)

	assert.Equal(t, "RBC Oasis Tent", route.Start)
	assert.Equal(t, "Food Court", route.Destination)
	assert.True(t, route.Accessible)
	assert.True(t, engine.lastOpts.Accessible)
	assert.Equal(t, []navigation.Step{
		{Action: navigation.StepStraight, Distance: 5},
		{Action: navigation.StepStraight, Distance: 3},
		{Action: navigation.StepRight},
		{Action: navigation.StepStraight, Distance: 2},
	}, route.Steps)
	assert.Equal(t, 10.0, route.TotalDistance)

	require.Equal(t, 1, sink.writes())
	assert.Equal(t, route.RouteID, sink.records[0].RouteID)
	assert.Equal(t, []string{events.NavigationRouteComputed}, pub.types())
}

func TestNavigate_AccessibleOverride(t *testing.T) {
	engine := &fakeEngine{entities: testEntities(), directions: testDirections()}
	svc := newNavigationService(engine, &fakeSink{}, nil, false)

	off := false
	route, err := svc.Navigate(context.Background(), NavigateRequest{Start: "Info Desk", Destination: "Food Court", Accessible: &off})
	require.NoError(t, err)
	assert.False(t, engine.lastOpts.Accessible)
	assert.Equal(t, "Info Desk", route.Start)
	assert.Equal(t, 5.2, route.Steps[0].Distance)
}

func TestNavigate_UnresolvedMakesNoCalls(t *testing.T) {
	tests := []struct {
		name string
		req  NavigateRequest
	}{
		{name: "unknown destination", req: NavigateRequest{Destination: "Rooftop Garden"}},
		{name: "unknown start", req: NavigateRequest{Start: "Parking P9", Destination: "Food Court"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &fakeEngine{entities: testEntities(), directions: testDirections()}
			sink := &fakeSink{}
			pub := &fakePublisher{}
			svc := newNavigationService(engine, sink, pub, true)

			route, err := svc.Navigate(context.Background(), tt.req)
			assert.Nil(t, route)
			assert.True(t, domain.IsNotFound(err))
			assert.Zero(t, engine.directionCalls)
			assert.Zero(t, sink.writes())
			assert.Equal(t, []string{events.NavigationRouteUnresolved}, pub.types())
		})
	}
}

func TestNavigate_NoRoute(t *testing.T) {
	engine := &fakeEngine{entities: testEntities()}
	sink := &fakeSink{}
	svc := newNavigationService(engine, sink, nil, true)

	_, err := svc.Navigate(context.Background(), NavigateRequest{Destination: "Food Court"})
	assert.True(t, domain.IsNotFound(err))
	assert.Equal(t, 1, engine.directionCalls)
	assert.Zero(t, sink.writes())
}

func TestNavigate_Errors(t *testing.T) {
	_, err := newNavigationService(&fakeEngine{}, &fakeSink{}, nil, true).
		Navigate(context.Background(), NavigateRequest{Destination: " "})
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, domain.CodeValidation, appErr.Code)

	engine := &fakeEngine{entitiesErr: errors.New("dial tcp: refused")}
	_, err = newNavigationService(engine, &fakeSink{}, nil, true).
		Navigate(context.Background(), NavigateRequest{Destination: "Food Court"})
	appErr, ok = domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, domain.CodeUpstream, appErr.Code)

	sinkErr := errors.New("db down")
	engine = &fakeEngine{entities: testEntities(), directions: testDirections()}
	_, err = newNavigationService(engine, &fakeSink{err: sinkErr}, nil, true).
		Navigate(context.Background(), NavigateRequest{Destination: "Food Court"})
	assert.ErrorIs(t, err, sinkErr)
}

func TestNormalize_RoundOverride(t *testing.T) {
	svc := newNavigationService(&fakeEngine{}, &fakeSink{}, nil, true)
	in := []navigation.RawInstruction{{Action: navigation.ActionDeparture, Distance: 1.6}}

	assert.Equal(t, 2.0, svc.Normalize(NormalizeRequest{Instructions: in})[0].Distance)

	off := false
	assert.Equal(t, 1.6, svc.Normalize(NormalizeRequest{Instructions: in, Round: &off})[0].Distance)
}

func TestLatestMovement(t *testing.T) {
	engine := &fakeEngine{entities: testEntities(), directions: testDirections()}
	svc := newNavigationService(engine, &fakeSink{}, nil, true)

	_, err := svc.LatestMovement(context.Background())
	assert.True(t, domain.IsNotFound(err))

	route, err := svc.Navigate(context.Background(), NavigateRequest{Destination: "Food Court"})
	require.NoError(t, err)

	rec, err := svc.LatestMovement(context.Background())
	require.NoError(t, err)
	assert.Equal(t, route.RouteID, rec.RouteID)
}
