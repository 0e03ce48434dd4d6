package application

import (
	"context"
	"fmt"
	"sync"
)

// ErrTurnSuperseded cancels a turn when a newer utterance arrives for the same session.
var ErrTurnSuperseded = fmt.Errorf("turn superseded by a newer utterance: %w", context.Canceled)

type turn struct {
	id     uint64
	cancel context.CancelCauseFunc
	done   chan struct{}
}

// TurnCoordinator keeps at most one pipeline turn in flight per session.
// Beginning a turn cancels the previous one and waits for it to unwind, so turns of
// one session never overlap.
type TurnCoordinator struct {
	mu       sync.Mutex
	seq      uint64
	inflight map[string]*turn
}

// NewTurnCoordinator creates a TurnCoordinator.
func NewTurnCoordinator() *TurnCoordinator {
	return &TurnCoordinator{inflight: make(map[string]*turn)}
}

// Begin starts a turn for sessionID. The returned context is cancelled with ErrTurnSuperseded
// if a newer turn begins; end must be called when the turn finishes.
func (c *TurnCoordinator) Begin(ctx context.Context, sessionID string) (context.Context, func(), error) {
	turnCtx, cancel := context.WithCancelCause(ctx)

	c.mu.Lock()
	c.seq++
	t := &turn{id: c.seq, cancel: cancel, done: make(chan struct{})}
	prev := c.inflight[sessionID]
	c.inflight[sessionID] = t
	c.mu.Unlock()

	end := func() {
		c.mu.Lock()
		if cur, ok := c.inflight[sessionID]; ok && cur.id == t.id {
			delete(c.inflight, sessionID)
		}
		c.mu.Unlock()
		cancel(nil)
		close(t.done)
	}

	if prev != nil {
		prev.cancel(ErrTurnSuperseded)
		<-prev.done
		if turnCtx.Err() != nil {
			end()
			return nil, func() {}, context.Cause(turnCtx)
		}
	}
	return turnCtx, end, nil
}

// InFlight reports whether sessionID has an unfinished turn.
func (c *TurnCoordinator) InFlight(sessionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inflight[sessionID]
	return ok
}
