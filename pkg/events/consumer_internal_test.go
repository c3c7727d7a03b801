package events

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifyhub/pkg/logger"
)

type testMessage struct {
	Title string `json:"title"`
	Count int    `json:"count"`
}

func newTestConsumer(handler HandlerFunc[testMessage]) *Consumer[testMessage] {
	return &Consumer[testMessage]{
		handler: handler,
		cfg:     DefaultConfig(),
		name:    "test",
		logger:  logger.Nop(),
	}
}

func TestEncodeDecode(t *testing.T) {
	t.Parallel()

	values, err := encode(testMessage{Title: "hello", Count: 2})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"hello","count":2}`, values[payloadField].(string))

	got, err := decode[testMessage](values)
	require.NoError(t, err)
	assert.Equal(t, testMessage{Title: "hello", Count: 2}, got)

	got, err = decode[testMessage](map[string]any{payloadField: []byte(`{"title":"bytes"}`)})
	require.NoError(t, err)
	assert.Equal(t, "bytes", got.Title)
}

func TestDecode_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		values map[string]any
		want   error
	}{
		{"missing field", map[string]any{"other": "x"}, ErrMissingPayload},
		{"wrong type", map[string]any{payloadField: 42}, ErrMissingPayload},
		{"invalid json", map[string]any{payloadField: "{"}, ErrFailedToDecode},
		{"type mismatch", map[string]any{payloadField: `{"count":"many"}`}, ErrFailedToDecode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := decode[testMessage](tt.values)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestConsumer_Handle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("acks on success", func(t *testing.T) {
		t.Parallel()
		var got testMessage
		c := newTestConsumer(func(_ context.Context, m testMessage) error {
			got = m
			return nil
		})

		err := c.handle(ctx, redis.XMessage{ID: "1-0", Values: map[string]any{payloadField: `{"title":"a","count":1}`}})
		require.NoError(t, err)
		assert.Equal(t, testMessage{Title: "a", Count: 1}, got)
	})

	t.Run("keeps pending on handler error", func(t *testing.T) {
		t.Parallel()
		c := newTestConsumer(func(context.Context, testMessage) error {
			return errors.New("storage down")
		})

		err := c.handle(ctx, redis.XMessage{ID: "1-0", Values: map[string]any{payloadField: `{}`}})
		require.EqualError(t, err, "storage down")
	})

	t.Run("acks poison messages without calling handler", func(t *testing.T) {
		t.Parallel()
		called := false
		c := newTestConsumer(func(context.Context, testMessage) error {
			called = true
			return nil
		})

		assert.NoError(t, c.handle(ctx, redis.XMessage{ID: "1-0", Values: map[string]any{payloadField: "not json"}}))
		assert.NoError(t, c.handle(ctx, redis.XMessage{ID: "2-0", Values: map[string]any{}}))
		assert.False(t, called)
	})

	t.Run("panicking handler keeps message pending", func(t *testing.T) {
		t.Parallel()
		c := newTestConsumer(func(context.Context, testMessage) error {
			panic("boom")
		})

		err := c.handle(ctx, redis.XMessage{ID: "1-0", Values: map[string]any{payloadField: `{}`}})
		require.EqualError(t, err, "panic: boom")
	})
}

// streamRecorder records the stream writes a consumer makes. Calls to any
// other command panic through the nil embedded interface.
type streamRecorder struct {
	redis.Cmdable

	addErr error
	added  []*redis.XAddArgs
	acked  []string
}

func (r *streamRecorder) XAdd(_ context.Context, a *redis.XAddArgs) *redis.StringCmd {
	if r.addErr != nil {
		return redis.NewStringResult("", r.addErr)
	}
	r.added = append(r.added, a)
	return redis.NewStringResult("9-0", nil)
}

func (r *streamRecorder) XAck(_ context.Context, _, _ string, ids ...string) *redis.IntCmd {
	r.acked = append(r.acked, ids...)
	return redis.NewIntResult(int64(len(ids)), nil)
}

func TestConsumer_ProcessDeliveryLimit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	msg := redis.XMessage{ID: "5-0", Values: map[string]any{payloadField: `{"title":"x"}`}}

	newConsumer := func(rec *streamRecorder, calls *int) *Consumer[testMessage] {
		c := newTestConsumer(func(context.Context, testMessage) error {
			*calls++
			return errors.New("storage down")
		})
		c.client = rec
		c.cfg.Stream = "events"
		c.cfg.MaxDeliveries = 3
		c.cfg.DeadLetterStream = "events.dead"
		return c
	}

	t.Run("failure below the limit stays pending", func(t *testing.T) {
		t.Parallel()
		rec, calls := &streamRecorder{}, 0
		c := newConsumer(rec, &calls)

		c.process(ctx, msg, 1)
		c.process(ctx, msg, 2)

		assert.Equal(t, 2, calls)
		assert.Empty(t, rec.added)
		assert.Empty(t, rec.acked)
	})

	t.Run("last allowed failure is dead lettered and acked", func(t *testing.T) {
		t.Parallel()
		rec, calls := &streamRecorder{}, 0
		c := newConsumer(rec, &calls)

		c.process(ctx, msg, 3)

		assert.Equal(t, 1, calls)
		require.Len(t, rec.added, 1)
		assert.Equal(t, "events.dead", rec.added[0].Stream)
		values, ok := rec.added[0].Values.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, `{"title":"x"}`, values[payloadField])
		assert.Equal(t, "5-0", values["source_id"])
		assert.Equal(t, "events", values["source_stream"])
		assert.Equal(t, "3", values["deliveries"])
		assert.Equal(t, "storage down", values["error"])
		assert.Equal(t, []string{"5-0"}, rec.acked)
	})

	t.Run("over the limit is dead lettered without handling", func(t *testing.T) {
		t.Parallel()
		rec, calls := &streamRecorder{}, 0
		c := newConsumer(rec, &calls)

		c.process(ctx, msg, 4)

		assert.Zero(t, calls)
		require.Len(t, rec.added, 1)
		assert.Equal(t, "4", rec.added[0].Values.(map[string]any)["deliveries"])
		assert.Equal(t, []string{"5-0"}, rec.acked)
	})

	t.Run("failed dead letter write leaves message pending", func(t *testing.T) {
		t.Parallel()
		rec, calls := &streamRecorder{addErr: errors.New("READONLY")}, 0
		c := newConsumer(rec, &calls)

		c.process(ctx, msg, 3)

		assert.Equal(t, 1, calls)
		assert.Empty(t, rec.acked)
	})

	t.Run("success is acked", func(t *testing.T) {
		t.Parallel()
		rec := &streamRecorder{}
		c := newTestConsumer(func(context.Context, testMessage) error { return nil })
		c.client = rec

		c.process(ctx, msg, 1)

		assert.Empty(t, rec.added)
		assert.Equal(t, []string{"5-0"}, rec.acked)
	})
}

func TestIsBusyGroup(t *testing.T) {
	t.Parallel()
	assert.True(t, isBusyGroup(errors.New("BUSYGROUP Consumer Group name already exists")))
	assert.False(t, isBusyGroup(errors.New("ERR no such key")))
}
