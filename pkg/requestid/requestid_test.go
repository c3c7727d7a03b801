package requestid_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifyhub/pkg/logger"
	"github.com/dmitrymomot/notifyhub/pkg/requestid"
)

func serve(t *testing.T, incoming string) (header, inContext string) {
	t.Helper()
	h := requestid.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inContext = requestid.FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if incoming != "" {
		req.Header.Set(requestid.Header, incoming)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Header().Get(requestid.Header), inContext
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("keeps valid incoming id", func(t *testing.T) {
		t.Parallel()
		header, ctxID := serve(t, "gateway-42_a")
		assert.Equal(t, "gateway-42_a", header)
		assert.Equal(t, header, ctxID)
	})

	tests := map[string]string{
		"missing":   "",
		"too long":  strings.Repeat("a", 65),
		"bad chars": "id with spaces",
		"injection": "abc\r\nX-Evil: 1",
	}
	for name, incoming := range tests {
		t.Run("generates for "+name, func(t *testing.T) {
			t.Parallel()
			header, ctxID := serve(t, incoming)
			_, err := uuid.Parse(header)
			require.NoError(t, err)
			assert.Equal(t, header, ctxID)
		})
	}
}

func TestFromContext_Empty(t *testing.T) {
	t.Parallel()
	assert.Empty(t, requestid.FromContext(context.Background()))
}

func TestLogExtractor(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := logger.New(
		logger.WithOutput(&buf),
		logger.WithJSONFormatter(),
		logger.WithContextExtractors(requestid.LogExtractor),
	)

	h := requestid.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.InfoContext(r.Context(), "handled")
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestid.Header, "req-1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Contains(t, buf.String(), `"request_id":"req-1"`)

	buf.Reset()
	log.Log(context.Background(), slog.LevelInfo, "outside")
	assert.NotContains(t, buf.String(), "request_id")
}
