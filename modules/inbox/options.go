package inbox

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Authorizer decides whether the request may access the inbox of userID.
// A returned HTTPError is rendered as is; any other error becomes 403.
type Authorizer func(r *http.Request, userID uuid.UUID) error

// AllowAll is the default Authorizer.
func AllowAll(*http.Request, uuid.UUID) error { return nil }

// Option configures a Handler.
type Option func(*Handler)

// WithAuthorizer sets the per-user access check.
func WithAuthorizer(a Authorizer) Option {
	return func(h *Handler) {
		if a != nil {
			h.authorize = a
		}
	}
}

// WithLogger sets the handler logger. Default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithKeepAlive sets the interval of stream keep-alive comments. Default is 15s.
func WithKeepAlive(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.keepAlive = d
		}
	}
}

// WithMaxEventSize caps the body of POST /events. Default is 1 MiB.
func WithMaxEventSize(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxEventSize = n
		}
	}
}
