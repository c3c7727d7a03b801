package downstream

import "time"

type Config struct {
	CourseServiceURL string        `env:"COURSE_SERVICE_URL" envDefault:"http://localhost:2001/graphql"` // CourseServiceURL is the course service GraphQL endpoint.
	UserServiceURL   string        `env:"USER_SERVICE_URL" envDefault:"http://localhost:5001/graphql"`   // UserServiceURL is the user service GraphQL endpoint.
	Timeout          time.Duration `env:"DOWNSTREAM_TIMEOUT" envDefault:"3s"`                            // Timeout bounds a single call.

	CircuitFailureThreshold int           `env:"DOWNSTREAM_CIRCUIT_FAILURES" envDefault:"5"`    // CircuitFailureThreshold opens the breaker after this many consecutive failures.
	CircuitSuccessThreshold int           `env:"DOWNSTREAM_CIRCUIT_SUCCESSES" envDefault:"2"`   // CircuitSuccessThreshold closes a half-open breaker.
	CircuitRecoveryTimeout  time.Duration `env:"DOWNSTREAM_CIRCUIT_RECOVERY" envDefault:"30s"` // CircuitRecoveryTimeout is how long an open breaker rejects calls.
}

// NewCourseClientFromConfig builds a CourseClient with its own breaker.
func NewCourseClientFromConfig(cfg Config, opts ...ClientOption) (*CourseClient, error) {
	c, err := newClientFromConfig(cfg.CourseServiceURL, cfg, opts)
	if err != nil {
		return nil, err
	}
	return NewCourseClient(c), nil
}

// NewSettingsClientFromConfig builds a SettingsClient with its own breaker.
func NewSettingsClientFromConfig(cfg Config, opts ...ClientOption) (*SettingsClient, error) {
	c, err := newClientFromConfig(cfg.UserServiceURL, cfg, opts)
	if err != nil {
		return nil, err
	}
	return NewSettingsClient(c), nil
}

func newClientFromConfig(endpoint string, cfg Config, opts []ClientOption) (*Client, error) {
	base := []ClientOption{
		WithTimeout(cfg.Timeout),
		WithCircuitBreaker(NewCircuitBreaker(cfg.CircuitFailureThreshold, cfg.CircuitSuccessThreshold, cfg.CircuitRecoveryTimeout)),
	}
	c := NewClient(endpoint, append(base, opts...)...)
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}
