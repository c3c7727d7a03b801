package events

import "errors"

var (
	ErrClientNil           = errors.New("events: redis client is nil")
	ErrHandlerNil          = errors.New("events: handler is nil")
	ErrStreamRequired      = errors.New("events: stream name is required")
	ErrGroupRequired       = errors.New("events: consumer group is required")
	ErrFailedToCreateGroup = errors.New("events: failed to create consumer group")
	ErrFailedToPublish     = errors.New("events: failed to publish message")
	ErrFailedToEncode      = errors.New("events: failed to encode message")
	ErrMissingPayload      = errors.New("events: message has no payload field")
	ErrFailedToDecode      = errors.New("events: failed to decode message")
	ErrFailedToDeadLetter  = errors.New("events: failed to move message to dead letter stream")
)
