package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type claimPage struct {
	messages []redis.XMessage
	next     string
}

type fakeConsumer struct {
	groupErr    error
	claimPages  map[string]claimPage
	claimStarts []string
	reads       int
	onRead      func()
	acked       []string
	deadLetters []*redis.XAddArgs
}

func (f *fakeConsumer) XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd {
	return redis.NewStatusResult("OK", f.groupErr)
}

func (f *fakeConsumer) XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd {
	f.reads++
	if f.onRead != nil {
		f.onRead()
	}
	return redis.NewXStreamSliceCmdResult(nil, redis.Nil)
}

func (f *fakeConsumer) XAutoClaim(ctx context.Context, a *redis.XAutoClaimArgs) *redis.XAutoClaimCmd {
	f.claimStarts = append(f.claimStarts, a.Start)
	cmd := redis.NewXAutoClaimCmd(ctx)
	page := f.claimPages[a.Start]
	next := page.next
	if next == "" {
		next = "0-0"
	}
	cmd.SetVal(page.messages, next)
	return cmd
}

func (f *fakeConsumer) XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd {
	f.acked = append(f.acked, ids...)
	return redis.NewIntResult(int64(len(ids)), nil)
}

func (f *fakeConsumer) XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd {
	f.deadLetters = append(f.deadLetters, a)
	return redis.NewStringResult("9-0", nil)
}

func eventMessage(t *testing.T, id, eventType string) redis.XMessage {
	t.Helper()
	raw, err := json.Marshal(Event{Type: eventType, Data: json.RawMessage(`{}`)})
	require.NoError(t, err)
	return redis.XMessage{ID: id, Values: map[string]interface{}{"type": eventType, "event": string(raw)}}
}

func TestHandleAcksAfterSuccessAndDeadLettersUnreadable(t *testing.T) {
	consumer := &fakeConsumer{}
	var handled []string
	sub := NewSubscriber(consumer, zap.NewNop(), SubscriberConfig{
		Group: "g", Consumer: "c", Streams: []string{OrgEventsStream},
		Handler: func(ctx context.Context, event Event) error {
			handled = append(handled, event.Type)
			if event.Type == OrgCreated {
				return errors.New("database down")
			}
			return nil
		},
	})

	sub.handle(context.Background(), OrgEventsStream, []redis.XMessage{
		eventMessage(t, "1-0", OrgDeleted),
		eventMessage(t, "2-0", OrgCreated),
		{ID: "3-0", Values: map[string]interface{}{"event": "{"}},
	})

	assert.Equal(t, []string{OrgDeleted, OrgCreated}, handled)
	assert.Equal(t, []string{"1-0", "3-0"}, consumer.acked)

	require.Len(t, consumer.deadLetters, 1)
	dead := consumer.deadLetters[0]
	assert.Equal(t, OrgEventsStream+DeadLetterSuffix, dead.Stream)
	values := dead.Values.(map[string]any)
	assert.Equal(t, "3-0", values["source_id"])
	assert.Equal(t, "{", values["event"])
	assert.NotEmpty(t, values["error"])
}

func TestClaimStaleFollowsCursor(t *testing.T) {
	consumer := &fakeConsumer{claimPages: map[string]claimPage{
		"0-0": {messages: []redis.XMessage{eventMessage(t, "1-0", OrgDeleted)}, next: "5-0"},
		"5-0": {messages: []redis.XMessage{eventMessage(t, "6-0", OrgDeleted)}, next: "0-0"},
	}}
	sub := NewSubscriber(consumer, zap.NewNop(), SubscriberConfig{
		Group: "g", Consumer: "c", Streams: []string{OrgEventsStream},
		Handler: func(ctx context.Context, event Event) error { return nil },
	})

	sub.claimStale(context.Background(), OrgEventsStream)

	assert.Equal(t, []string{"0-0", "5-0"}, consumer.claimStarts)
	assert.Equal(t, []string{"1-0", "6-0"}, consumer.acked)
}

func TestStartStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	consumer := &fakeConsumer{groupErr: errors.New("BUSYGROUP Consumer Group name already exists"), onRead: cancel}
	sub := NewSubscriber(consumer, zap.NewNop(), SubscriberConfig{
		Group: "g", Consumer: "c", Streams: []string{OrgEventsStream, StationEventsStream},
		Handler: func(ctx context.Context, event Event) error { return nil },
	})

	err := sub.Start(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, consumer.reads)
	assert.Equal(t, []string{"0-0", "0-0"}, consumer.claimStarts)
}

func TestStartFailsOnGroupError(t *testing.T) {
	consumer := &fakeConsumer{groupErr: errors.New("NOPERM")}
	sub := NewSubscriber(consumer, zap.NewNop(), SubscriberConfig{Group: "g", Consumer: "c", Streams: []string{OrgEventsStream}})

	err := sub.Start(context.Background())
	assert.ErrorContains(t, err, "NOPERM")
	assert.Zero(t, consumer.reads)
}
