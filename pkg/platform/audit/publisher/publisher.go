// Package publisher emits audit events to a store, synchronously by default
// or through a buffered background worker when configured.
package publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"clubgate/pkg/platform/audit"
)

// Publisher writes events to its store. In async mode Emit never blocks the
// request path: a full buffer drops the event rather than stalling a
// navigation.
type Publisher struct {
	store  audit.Store
	logger *slog.Logger

	inbox chan audit.Event
	wg    sync.WaitGroup

	closeOnce sync.Once
}

type Option func(*Publisher)

// WithAsyncBuffer switches the publisher to asynchronous mode with the given
// buffer capacity.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.inbox = make(chan audit.Event, size)
	}
}

// WithLogger sets the logger used for drop and persistence warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit records an event, filling in ID and timestamp when unset. In async
// mode a full buffer drops the event; audit must never block a navigation.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	if p.inbox == nil {
		return p.store.Append(ctx, event)
	}

	select {
	case p.inbox <- event:
	default:
		p.logger.Warn("audit buffer full, dropping event",
			"action", event.Action,
			"session_id", event.SessionID,
		)
	}
	return nil
}

// List returns the recorded events for one session.
func (p *Publisher) List(ctx context.Context, sessionID string) ([]audit.Event, error) {
	return p.store.ListBySession(ctx, sessionID)
}

// Close stops the background worker after draining buffered events. Safe to
// call multiple times; a no-op in sync mode.
func (p *Publisher) Close() {
	p.closeOnce.Do(func() {
		if p.inbox == nil {
			return
		}
		close(p.inbox)
		p.wg.Wait()
	})
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.inbox {
		if err := p.store.Append(context.Background(), event); err != nil {
			p.logger.Warn("audit append failed",
				"action", event.Action,
				"error", err,
			)
		}
	}
}
