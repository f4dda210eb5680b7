package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Handler func(ctx context.Context, event Event) error

// DeadLetterSuffix names the stream that keeps entries no handler can read:
// "org.events" entries that fail to parse go to "org.events.dead".
const DeadLetterSuffix = ".dead"

// StreamConsumer is the part of the Redis client a consumer group needs.
type StreamConsumer interface {
	XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd
	XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd
	XAutoClaim(ctx context.Context, a *redis.XAutoClaimArgs) *redis.XAutoClaimCmd
	XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// SubscriberConfig names the consumer group and the streams it reads.
// Messages pending longer than ClaimIdle, from a crashed consumer of the
// same group, are claimed on start.
type SubscriberConfig struct {
	Group         string
	Consumer      string
	Streams       []string
	Handler       Handler
	BatchSize     int64
	BlockDuration time.Duration
	ClaimIdle     time.Duration
}

// Subscriber consumes streams through a Redis consumer group. A message is
// acked only after its handler succeeds; failed messages stay pending.
// Entries that cannot be parsed are copied to the dead letter stream and
// acked.
type Subscriber struct {
	client StreamConsumer
	logger *zap.Logger
	cfg    SubscriberConfig
}

func NewSubscriber(client StreamConsumer, logger *zap.Logger, cfg SubscriberConfig) *Subscriber {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 10
	}
	if cfg.BlockDuration == 0 {
		cfg.BlockDuration = 5 * time.Second
	}
	if cfg.ClaimIdle == 0 {
		cfg.ClaimIdle = time.Minute
	}
	return &Subscriber{
		client: client,
		logger: logger.With(zap.String("group", cfg.Group), zap.String("consumer", cfg.Consumer)),
		cfg:    cfg,
	}
}

// Start blocks reading the configured streams until ctx is cancelled.
func (s *Subscriber) Start(ctx context.Context) error {
	for _, stream := range s.cfg.Streams {
		err := s.client.XGroupCreateMkStream(ctx, stream, s.cfg.Group, "0").Err()
		if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
			return fmt.Errorf("failed to create consumer group on %s: %w", stream, err)
		}
		s.claimStale(ctx, stream)
	}
	s.logger.Info("subscriber started", zap.Strings("streams", s.cfg.Streams))

	for ctx.Err() == nil {
		if err := s.read(ctx); err != nil && ctx.Err() == nil {
			s.logger.Warn("stream read failed", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
	}
	s.logger.Info("subscriber stopping")
	return ctx.Err()
}

func (s *Subscriber) read(ctx context.Context) error {
	// XREADGROUP takes every stream name followed by one id per stream.
	args := append([]string{}, s.cfg.Streams...)
	for range s.cfg.Streams {
		args = append(args, ">")
	}

	streams, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    s.cfg.Group,
		Consumer: s.cfg.Consumer,
		Streams:  args,
		Count:    s.cfg.BatchSize,
		Block:    s.cfg.BlockDuration,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read from streams: %w", err)
	}

	for _, stream := range streams {
		s.handle(ctx, stream.Stream, stream.Messages)
	}
	return nil
}

// claimStale takes over messages another consumer read but never acked,
// one batch at a time until the cursor wraps to 0-0.
func (s *Subscriber) claimStale(ctx context.Context, stream string) {
	start := "0-0"
	for ctx.Err() == nil {
		messages, next, err := s.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   stream,
			Group:    s.cfg.Group,
			Consumer: s.cfg.Consumer,
			MinIdle:  s.cfg.ClaimIdle,
			Start:    start,
			Count:    s.cfg.BatchSize,
		}).Result()
		if err != nil {
			s.logger.Warn("failed to claim pending messages", zap.String("stream", stream), zap.Error(err))
			return
		}
		if len(messages) > 0 {
			s.logger.Info("claimed pending messages", zap.String("stream", stream), zap.Int("count", len(messages)))
			s.handle(ctx, stream, messages)
		}
		if next == "" || next == "0-0" {
			return
		}
		start = next
	}
}

func (s *Subscriber) handle(ctx context.Context, stream string, messages []redis.XMessage) {
	for _, message := range messages {
		event, err := ParseMessage(message)
		if err != nil {
			s.deadLetter(ctx, stream, message, err)
			s.ack(ctx, stream, message.ID)
			continue
		}
		if err := s.cfg.Handler(ctx, event); err != nil {
			s.logger.Warn("failed to process message", zap.String("stream", stream), zap.String("id", message.ID), zap.Error(err))
			continue
		}
		s.ack(ctx, stream, message.ID)
	}
}

func (s *Subscriber) deadLetter(ctx context.Context, stream string, message redis.XMessage, cause error) {
	s.logger.Error("dropping unreadable message", zap.String("stream", stream), zap.String("id", message.ID), zap.Error(cause))
	values := make(map[string]any, len(message.Values)+2)
	for k, v := range message.Values {
		values[k] = v
	}
	values["source_id"] = message.ID
	values["error"] = cause.Error()
	err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream + DeadLetterSuffix,
		MaxLen: DefaultMaxLen,
		Approx: true,
		Values: values,
	}).Err()
	if err != nil {
		s.logger.Warn("failed to dead letter message", zap.String("stream", stream), zap.String("id", message.ID), zap.Error(err))
	}
}

func (s *Subscriber) ack(ctx context.Context, stream, id string) {
	if err := s.client.XAck(ctx, stream, s.cfg.Group, id).Err(); err != nil {
		s.logger.Warn("failed to ack message", zap.String("stream", stream), zap.String("id", id), zap.Error(err))
	}
}

// ParseMessage decodes the event stored in a stream entry.
func ParseMessage(message redis.XMessage) (Event, error) {
	raw, ok := message.Values["event"].(string)
	if !ok {
		return Event{}, fmt.Errorf("stream entry %s has no event field", message.ID)
	}
	var event Event
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		return Event{}, fmt.Errorf("failed to unmarshal event %s: %w", message.ID, err)
	}
	return event, nil
}
