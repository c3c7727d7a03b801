package httpserver_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifyhub/pkg/httpserver"
	"github.com/dmitrymomot/notifyhub/pkg/logger"
)

type report struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func serveHealth(t *testing.T, h http.Handler) (int, report) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var r report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &r))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	return rec.Code, r
}

func TestLivenessHandler(t *testing.T) {
	t.Parallel()
	code, r := serveHealth(t, httpserver.LivenessHandler())
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "alive", r.Status)
}

func TestReadinessHandler(t *testing.T) {
	t.Parallel()
	ok := func(context.Context) error { return nil }
	fail := func(context.Context) error { return errors.New("connection refused") }

	t.Run("all pass", func(t *testing.T) {
		t.Parallel()
		code, r := serveHealth(t, httpserver.ReadinessHandler(logger.Nop(), time.Second,
			httpserver.HealthCheck{Name: "postgres", Check: ok},
			httpserver.HealthCheck{Name: "redis", Check: ok},
		))
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "ready", r.Status)
		assert.Equal(t, map[string]string{"postgres": "ok", "redis": "ok"}, r.Checks)
	})

	t.Run("one fails", func(t *testing.T) {
		t.Parallel()
		code, r := serveHealth(t, httpserver.ReadinessHandler(nil, time.Second,
			httpserver.HealthCheck{Name: "postgres", Check: ok},
			httpserver.HealthCheck{Name: "redis", Check: fail},
		))
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "not_ready", r.Status)
		assert.Equal(t, "ok", r.Checks["postgres"])
		assert.Equal(t, "connection refused", r.Checks["redis"])
	})

	t.Run("checks are bounded by timeout", func(t *testing.T) {
		t.Parallel()
		slow := func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}
		start := time.Now()
		code, _ := serveHealth(t, httpserver.ReadinessHandler(logger.Nop(), 20*time.Millisecond,
			httpserver.HealthCheck{Name: "slow", Check: slow},
		))
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Less(t, time.Since(start), time.Second)
	})
}
