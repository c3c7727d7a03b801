package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/notifyhub/pkg/logger"
)

// HandlerFunc processes one decoded message. A nil return acknowledges it.
type HandlerFunc[T any] func(ctx context.Context, msg T) error

// Option configures a Consumer.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the consumer logger. Default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Consumer reads a stream through a consumer group and dispatches each
// message to a handler.
type Consumer[T any] struct {
	client  redis.Cmdable
	handler HandlerFunc[T]
	cfg     Config
	name    string
	logger  *slog.Logger
}

// NewConsumer validates cfg and creates a consumer. Zero durations and batch
// sizes in cfg fall back to DefaultConfig values.
func NewConsumer[T any](client redis.Cmdable, cfg Config, handler HandlerFunc[T], opts ...Option) (*Consumer[T], error) {
	if client == nil {
		return nil, ErrClientNil
	}
	if handler == nil {
		return nil, ErrHandlerNil
	}
	if cfg.Stream == "" {
		return nil, ErrStreamRequired
	}
	if cfg.Group == "" {
		return nil, ErrGroupRequired
	}

	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}

	def := DefaultConfig()
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.Block <= 0 {
		cfg.Block = def.Block
	}
	if cfg.ClaimIdle <= 0 {
		cfg.ClaimIdle = def.ClaimIdle
	}
	if cfg.ClaimInterval <= 0 {
		cfg.ClaimInterval = def.ClaimInterval
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = def.RetryDelay
	}
	if cfg.MaxDeliveries <= 0 {
		cfg.MaxDeliveries = def.MaxDeliveries
	}
	if cfg.DeadLetterStream == "" {
		cfg.DeadLetterStream = cfg.Stream + ".dead"
	}

	name := cfg.Consumer
	if name == "" {
		name = consumerName()
	}

	return &Consumer[T]{
		client:  client,
		handler: handler,
		cfg:     cfg,
		name:    name,
		logger: o.logger.With(
			logger.Component("events.consumer"),
			slog.String("stream", cfg.Stream),
			slog.String("group", cfg.Group),
			slog.String("consumer", name),
		),
	}, nil
}

// Name returns the consumer name used within the group.
func (c *Consumer[T]) Name() string {
	return c.name
}

// Run returns a function suitable for errgroup that consumes until ctx is
// cancelled. It returns nil on cancellation and an error only when the
// consumer group cannot be created.
func (c *Consumer[T]) Run(ctx context.Context) func() error {
	return func() error {
		return c.Consume(ctx)
	}
}

// Consume blocks reading the stream until ctx is cancelled.
func (c *Consumer[T]) Consume(ctx context.Context) error {
	if err := c.ensureGroup(ctx); err != nil {
		return err
	}

	c.logger.InfoContext(ctx, "Stream consumer started")
	defer c.logger.Info("Stream consumer stopped")

	// Reclaim leftovers of a previous run before reading new entries.
	c.claimPending(ctx)
	lastClaim := time.Now()

	for ctx.Err() == nil {
		if time.Since(lastClaim) >= c.cfg.ClaimInterval {
			c.claimPending(ctx)
			lastClaim = time.Now()
		}

		streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.cfg.Group,
			Consumer: c.name,
			Streams:  []string{c.cfg.Stream, ">"},
			Count:    c.cfg.BatchSize,
			Block:    c.cfg.Block,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				break
			}
			c.logger.ErrorContext(ctx, "Failed to read stream", logger.Error(err))
			c.sleep(ctx, c.cfg.RetryDelay)
			continue
		}

		for _, s := range streams {
			for _, msg := range s.Messages {
				c.process(ctx, msg, 1)
			}
		}
	}
	return nil
}

func (c *Consumer[T]) ensureGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.cfg.Stream, c.cfg.Group, "0").Err()
	if err != nil && !isBusyGroup(err) {
		return errors.Join(ErrFailedToCreateGroup, err)
	}
	return nil
}

// claimPending takes over messages other consumers (or an earlier run of
// this one) read but never acknowledged.
func (c *Consumer[T]) claimPending(ctx context.Context) {
	start := "0-0"
	for ctx.Err() == nil {
		msgs, next, err := c.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   c.cfg.Stream,
			Group:    c.cfg.Group,
			Consumer: c.name,
			MinIdle:  c.cfg.ClaimIdle,
			Start:    start,
			Count:    c.cfg.BatchSize,
		}).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
				c.logger.WarnContext(ctx, "Failed to claim pending messages", logger.Error(err))
			}
			return
		}

		if len(msgs) > 0 {
			c.logger.InfoContext(ctx, "Reclaimed pending messages", logger.Count(len(msgs)))
		}
		for _, msg := range msgs {
			c.process(ctx, msg, c.deliveries(ctx, msg.ID))
		}

		if next == "0-0" || next == "" {
			return
		}
		start = next
	}
}

// deliveries returns how many times the group has handed out id,
// including the current claim. Lookup failures count as the first delivery
// so the message is still handled.
func (c *Consumer[T]) deliveries(ctx context.Context, id string) int64 {
	pending, err := c.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: c.cfg.Stream,
		Group:  c.cfg.Group,
		Start:  id,
		End:    id,
		Count:  1,
	}).Result()
	if err != nil || len(pending) == 0 {
		if err != nil && ctx.Err() == nil {
			c.logger.WarnContext(ctx, "Failed to read delivery count",
				logger.MessageID(id),
				logger.Error(err),
			)
		}
		return 1
	}
	return pending[0].RetryCount
}

// process handles msg, which has been delivered the given number of times.
// Handled messages are acknowledged. A failed message stays pending for
// another attempt until it has used up MaxDeliveries, then it is moved to
// the dead letter stream.
func (c *Consumer[T]) process(ctx context.Context, msg redis.XMessage, deliveries int64) {
	if deliveries > c.cfg.MaxDeliveries {
		// Left over from a failed dead letter write or a lowered limit.
		c.deadLetter(ctx, msg, deliveries, errDeliveriesExceeded)
		return
	}

	if err := c.handle(ctx, msg); err != nil {
		if deliveries >= c.cfg.MaxDeliveries {
			c.deadLetter(ctx, msg, deliveries, err)
		}
		return
	}
	c.ack(ctx, msg.ID)
}

var errDeliveriesExceeded = errors.New("delivery limit exceeded")

// deadLetter copies msg to the dead letter stream and acknowledges the
// original. On a failed copy the message stays pending and is retried on
// the next claim.
func (c *Consumer[T]) deadLetter(ctx context.Context, msg redis.XMessage, deliveries int64, cause error) {
	values := make(map[string]any, len(msg.Values)+4)
	for k, v := range msg.Values {
		values[k] = v
	}
	values["source_stream"] = c.cfg.Stream
	values["source_id"] = msg.ID
	values["deliveries"] = strconv.FormatInt(deliveries, 10)
	values["error"] = cause.Error()

	if err := c.client.XAdd(ctx, &redis.XAddArgs{
		Stream: c.cfg.DeadLetterStream,
		Values: values,
	}).Err(); err != nil {
		c.logger.ErrorContext(ctx, "Failed to dead letter message",
			logger.MessageID(msg.ID),
			logger.Error(errors.Join(ErrFailedToDeadLetter, err)),
		)
		return
	}

	c.logger.WarnContext(ctx, "Moved message to dead letter stream",
		logger.MessageID(msg.ID),
		slog.Int64("deliveries", deliveries),
		slog.String("dead_letter_stream", c.cfg.DeadLetterStream),
		logger.Error(cause),
	)
	c.ack(ctx, msg.ID)
}

func (c *Consumer[T]) ack(ctx context.Context, id string) {
	if err := c.client.XAck(ctx, c.cfg.Stream, c.cfg.Group, id).Err(); err != nil {
		c.logger.ErrorContext(ctx, "Failed to acknowledge message",
			logger.MessageID(id),
			logger.Error(err),
		)
	}
}

// handle decodes msg and runs the handler. A nil result means the message
// should be acknowledged: the handler succeeded or the payload cannot be
// decoded and will never succeed.
func (c *Consumer[T]) handle(ctx context.Context, msg redis.XMessage) (err error) {
	payload, decodeErr := decode[T](msg.Values)
	if decodeErr != nil {
		c.logger.ErrorContext(ctx, "Dropping undecodable message",
			logger.MessageID(msg.ID),
			logger.Error(decodeErr),
		)
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			c.logger.ErrorContext(ctx, "Handler panicked",
				logger.MessageID(msg.ID),
				logger.Error(err),
			)
		}
	}()

	started := time.Now()
	if err := c.handler(ctx, payload); err != nil {
		c.logger.ErrorContext(ctx, "Message handler failed",
			logger.MessageID(msg.ID),
			logger.Error(err),
		)
		return err
	}

	c.logger.DebugContext(ctx, "Message handled",
		logger.MessageID(msg.ID),
		logger.Duration(time.Since(started)),
	)
	return nil
}

func (c *Consumer[T]) sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func isBusyGroup(err error) bool {
	return strings.HasPrefix(err.Error(), "BUSYGROUP")
}

func consumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "notifyhub"
	}
	return host + "-" + uuid.NewString()[:8]
}
