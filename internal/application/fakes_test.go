package application

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/wayfinder-labs/service-wayfinding/internal/dialogue"
	destinationDomain "github.com/wayfinder-labs/service-wayfinding/internal/domain/destination"
	"github.com/wayfinder-labs/service-wayfinding/internal/domain/movement"
	"github.com/wayfinder-labs/service-wayfinding/internal/domain/venue"
	"github.com/wayfinder-labs/service-wayfinding/internal/platform/domain"
	"github.com/wayfinder-labs/service-wayfinding/internal/platform/kafka"
	"github.com/wayfinder-labs/service-wayfinding/internal/speech"
)

type fakeEngine struct {
	mu             sync.Mutex
	entities       []venue.Entity
	directions     *venue.Directions
	entitiesErr    error
	directionsErr  error
	directionCalls int
	lastOpts       venue.DirectionsOptions
}

func (e *fakeEngine) Entities(ctx context.Context) ([]venue.Entity, error) {
	return e.entities, e.entitiesErr
}

func (e *fakeEngine) Directions(ctx context.Context, from, to venue.Entity, opts venue.DirectionsOptions) (*venue.Directions, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.directionCalls++
	e.lastOpts = opts
	return e.directions, e.directionsErr
}

type fakeSink struct {
	mu      sync.Mutex
	records []*movement.Record
	err     error
}

func (s *fakeSink) Write(ctx context.Context, rec *movement.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, rec)
	return nil
}

func (s *fakeSink) Latest(ctx context.Context) (*movement.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.records) == 0 {
		return nil, domain.NewNotFoundError("Movement", "latest")
	}
	return s.records[len(s.records)-1], nil
}

func (s *fakeSink) writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []kafka.CloudEvent
}

func (p *fakePublisher) PublishEvent(ctx context.Context, topic string, ce kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ce)
	return nil
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type fakeDestinations struct {
	mu    sync.Mutex
	saved []*destinationDomain.Destination
	err   error
}

func (r *fakeDestinations) Latest(ctx context.Context) (*destinationDomain.Destination, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	if len(r.saved) == 0 {
		return nil, domain.NewNotFoundError("Destination", "latest")
	}
	return r.saved[len(r.saved)-1], nil
}

func (r *fakeDestinations) Save(ctx context.Context, d *destinationDomain.Destination) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, d)
	return nil
}

// fakeDialogue records the destination as the real engine would, via a side effect.
type fakeDialogue struct {
	reply       string
	destination string
	store       *fakeDestinations
	err         error
	// blockCalls holds the first n SendText calls until their context ends.
	blockCalls int
	started    chan struct{}
	calls      int
	mu         sync.Mutex
}

func textReplies(msg string) dialogue.Replies {
	payload, _ := json.Marshal(map[string]string{"message": msg})
	return dialogue.Replies{
		{Type: "path"},
		{Type: dialogue.ReplyText, Payload: payload},
	}
}

func (d *fakeDialogue) Launch(ctx context.Context, userID string) (dialogue.Replies, error) {
	if d.err != nil {
		return nil, d.err
	}
	return textReplies("Hi! Where would you like to go?"), nil
}

func (d *fakeDialogue) SendText(ctx context.Context, userID, text string) (dialogue.Replies, error) {
	d.mu.Lock()
	d.calls++
	block := d.calls <= d.blockCalls
	d.mu.Unlock()

	if block {
		if d.started != nil {
			d.started <- struct{}{}
		}
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if d.err != nil {
		return nil, d.err
	}
	if d.destination != "" && d.store != nil {
		dest, err := destinationDomain.NewDestination(d.destination, userID, time.Now())
		if err != nil {
			return nil, err
		}
		_ = d.store.Save(ctx, dest)
	}
	return textReplies(d.reply), nil
}

type fakeSynth struct {
	err error
}

func (s *fakeSynth) Synthesize(ctx context.Context, text string) (*speech.Audio, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &speech.Audio{ContentType: "audio/mpeg", Data: []byte(text)}, nil
}
