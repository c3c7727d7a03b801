package events

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
)

// payloadField is the stream entry field that carries the JSON body.
const payloadField = "payload"

// Publisher appends messages of type T to a stream.
type Publisher[T any] struct {
	client redis.Cmdable
	stream string
	maxLen int64
}

// NewPublisher creates a publisher for cfg.Stream.
func NewPublisher[T any](client redis.Cmdable, cfg Config) (*Publisher[T], error) {
	if client == nil {
		return nil, ErrClientNil
	}
	if cfg.Stream == "" {
		return nil, ErrStreamRequired
	}
	return &Publisher[T]{client: client, stream: cfg.Stream, maxLen: cfg.MaxLen}, nil
}

// Publish appends msg and returns the stream entry id.
func (p *Publisher[T]) Publish(ctx context.Context, msg T) (string, error) {
	values, err := encode(msg)
	if err != nil {
		return "", err
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: values,
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	id, err := p.client.XAdd(ctx, args).Result()
	if err != nil {
		return "", errors.Join(ErrFailedToPublish, err)
	}
	return id, nil
}

func encode[T any](msg T) (map[string]any, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, errors.Join(ErrFailedToEncode, err)
	}
	return map[string]any{payloadField: string(data)}, nil
}

func decode[T any](values map[string]any) (T, error) {
	var msg T
	raw, ok := values[payloadField]
	if !ok {
		return msg, ErrMissingPayload
	}

	var data []byte
	switch v := raw.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return msg, ErrMissingPayload
	}

	if err := json.Unmarshal(data, &msg); err != nil {
		return msg, errors.Join(ErrFailedToDecode, err)
	}
	return msg, nil
}
