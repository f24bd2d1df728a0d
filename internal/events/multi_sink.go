package events

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// MultiSink fans an event out to every sink and joins their errors.
type MultiSink []Sink

func (m MultiSink) Publish(ctx context.Context, event Event) error {
	var errs error
	for _, s := range m {
		errs = errors.Join(errs, s.Publish(ctx, event))
	}
	return errs
}

func (m MultiSink) Close() error {
	var errs error
	for _, s := range m {
		errs = errors.Join(errs, s.Close())
	}
	return errs
}

// Emitter publishes committed events. Failures are logged and never returned,
// so a broken bus cannot undo a committed change.
type Emitter struct {
	sink    Sink
	timeout time.Duration
	logger  zerolog.Logger
}

func NewEmitter(sink Sink, timeout time.Duration) *Emitter {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Emitter{
		sink:    sink,
		timeout: timeout,
		logger:  log.With().Str("component", "emitter").Logger(),
	}
}

// Emit publishes events in order. The request context's cancellation is ignored.
func (e *Emitter) Emit(ctx context.Context, evts ...Event) {
	if e == nil || e.sink == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
	defer cancel()

	for _, evt := range evts {
		if err := e.sink.Publish(ctx, evt); err != nil {
			e.logger.Warn().Err(err).
				Str("event_id", evt.ID).
				Str("event_type", string(evt.Type)).
				Msg("Failed to publish event")
		}
	}
}
