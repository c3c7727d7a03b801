package notifications

import "time"

// Config tunes fan-out and live delivery.
type Config struct {
	// SubscriberBuffer is how many live updates a slow subscriber may lag
	// behind before newer ones are dropped for it.
	SubscriberBuffer int `env:"NOTIFICATIONS_SUBSCRIBER_BUFFER" envDefault:"64"`

	// ProviderTimeout bounds every membership and settings lookup.
	ProviderTimeout time.Duration `env:"NOTIFICATIONS_PROVIDER_TIMEOUT" envDefault:"3s"`

	// LookupConcurrency caps parallel per-user settings lookups for one event.
	LookupConcurrency int `env:"NOTIFICATIONS_LOOKUP_CONCURRENCY" envDefault:"8"`
}

// DefaultConfig returns the values used when no environment is loaded.
func DefaultConfig() Config {
	return Config{
		SubscriberBuffer:  64,
		ProviderTimeout:   3 * time.Second,
		LookupConcurrency: 8,
	}
}
