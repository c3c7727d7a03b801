package events

import "time"

// Config holds stream, consumer group and polling settings.
type Config struct {
	Stream   string `env:"EVENTS_STREAM" envDefault:"notification-events"`
	Group    string `env:"EVENTS_GROUP" envDefault:"notifyhub"`
	Consumer string `env:"EVENTS_CONSUMER"` // defaults to the host name

	BatchSize     int64         `env:"EVENTS_BATCH_SIZE" envDefault:"16"`
	Block         time.Duration `env:"EVENTS_BLOCK" envDefault:"5s"`          // max wait of one XREADGROUP
	ClaimIdle     time.Duration `env:"EVENTS_CLAIM_IDLE" envDefault:"1m"`     // pending messages idle this long are reclaimed
	ClaimInterval time.Duration `env:"EVENTS_CLAIM_INTERVAL" envDefault:"30s"` // how often pending messages are checked
	RetryDelay    time.Duration `env:"EVENTS_RETRY_DELAY" envDefault:"1s"`     // pause after a failed read
	MaxLen        int64         `env:"EVENTS_MAX_LEN" envDefault:"100000"`     // approximate stream cap for publishers, 0 disables

	// A message whose handler has failed MaxDeliveries times is moved to
	// DeadLetterStream and acknowledged. The stream defaults to "<Stream>.dead".
	MaxDeliveries    int64  `env:"EVENTS_MAX_DELIVERIES" envDefault:"5"`
	DeadLetterStream string `env:"EVENTS_DEAD_LETTER_STREAM"`
}

// DefaultConfig returns the configuration used when no environment is set.
func DefaultConfig() Config {
	return Config{
		Stream:        "notification-events",
		Group:         "notifyhub",
		BatchSize:     16,
		Block:         5 * time.Second,
		ClaimIdle:     time.Minute,
		ClaimInterval: 30 * time.Second,
		RetryDelay:    time.Second,
		MaxLen:        100000,
		MaxDeliveries: 5,
	}
}
