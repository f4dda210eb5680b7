package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultMaxLen caps each stream at roughly this many entries.
const DefaultMaxLen = 10000

// StreamAdder is the part of the Redis client the publisher needs.
type StreamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// Publisher writes events to Redis Streams. Each entry carries the event
// type next to the JSON envelope so consumers can filter without decoding.
type Publisher struct {
	client StreamAdder
	maxLen int64
	now    func() time.Time
}

func NewPublisher(client StreamAdder) *Publisher {
	return &Publisher{client: client, maxLen: DefaultMaxLen, now: time.Now}
}

func (p *Publisher) Publish(ctx context.Context, stream, eventType string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	envelope, err := json.Marshal(Event{Type: eventType, Timestamp: p.now().UTC(), Data: payload})
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]any{"type": eventType, "event": envelope},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish %s to %s: %w", eventType, stream, err)
	}
	return nil
}
