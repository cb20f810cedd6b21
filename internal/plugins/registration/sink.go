package registration

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// DefaultRegistrationsKey is the Redis list registrations are pushed onto.
const DefaultRegistrationsKey = "eventhub:registrations"

// Sink receives one record per successful registration. Implementations
// must not block for long; Register waits on them.
type Sink interface {
	Registered(ctx context.Context, reg Registration) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, reg Registration) error

// Registered calls f.
func (f SinkFunc) Registered(ctx context.Context, reg Registration) error {
	return f(ctx, reg)
}

// LogSink writes registrations to the structured log. It is the fallback
// when Redis is not configured.
type LogSink struct{}

// Registered logs reg.
func (LogSink) Registered(ctx context.Context, reg Registration) error {
	slog.InfoContext(ctx, "event registration",
		slog.String("event_id", reg.EventID),
		slog.String("owner", reg.Owner),
		slog.Time("at", reg.At),
	)
	return nil
}

// RedisSink appends registrations as JSON to a Redis list for downstream
// consumers.
type RedisSink struct {
	client *redis.Client
	key    string
}

// NewRedisSink creates a sink pushing onto key (DefaultRegistrationsKey
// when empty).
func NewRedisSink(client *redis.Client, key string) *RedisSink {
	if key == "" {
		key = DefaultRegistrationsKey
	}
	return &RedisSink{client: client, key: key}
}

// Registered RPUSHes reg.
func (s *RedisSink) Registered(ctx context.Context, reg Registration) error {
	payload, err := json.Marshal(reg)
	if err != nil {
		return fmt.Errorf("encoding registration: %w", err)
	}
	if err := s.client.RPush(ctx, s.key, payload).Err(); err != nil {
		return fmt.Errorf("pushing registration: %w", err)
	}
	return nil
}
