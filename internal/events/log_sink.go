package events

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogSink writes events to the structured log. It is the default sink.
type LogSink struct {
	logger zerolog.Logger
}

func NewLogSink() *LogSink {
	return &LogSink{logger: log.With().Str("component", "events").Logger()}
}

func (s *LogSink) Publish(_ context.Context, event Event) error {
	s.logger.Info().
		Str("event_id", event.ID).
		Str("event_type", string(event.Type)).
		Fields(event.Payload).
		Msg("Event published")
	return nil
}

func (s *LogSink) Close() error { return nil }
