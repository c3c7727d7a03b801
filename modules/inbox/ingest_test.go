package inbox_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifyhub/modules/inbox"
	"github.com/dmitrymomot/notifyhub/pkg/notifications"
)

type ingestResult struct {
	Recipients     int     `json:"recipients"`
	Unread         int     `json:"unread"`
	NotificationID *string `json:"notification_id"`
}

func TestIngest(t *testing.T) {
	t.Parallel()
	alice, bob := uuid.New(), uuid.New()

	t.Run("bare event", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		rec, resp := f.do(t, http.MethodPost, "/events",
			`{"userIds":["`+alice.String()+`","`+bob.String()+`","`+alice.String()+`"],"title":"Quiz graded","message":"You scored 9/10","link":"/quiz/1","serverSource":"QUIZ"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var out ingestResult
		decodeData(t, resp, &out)
		assert.Equal(t, 2, out.Recipients)
		assert.Equal(t, 2, out.Unread)
		require.NotNil(t, out.NotificationID)

		views, err := f.manager.List(context.Background(), bob)
		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.Equal(t, *out.NotificationID, views[0].ID.String())
		assert.Equal(t, "Quiz graded", views[0].Title)
		assert.Equal(t, "/quiz/1", views[0].Href)
	})

	t.Run("enveloped event", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		rec, resp := f.do(t, http.MethodPost, "/events", `{"data":{"userIds":["`+alice.String()+`"],"title":"","message":"m"}}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var out ingestResult
		decodeData(t, resp, &out)
		assert.Equal(t, 1, out.Recipients)

		views, err := f.manager.List(context.Background(), alice)
		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.Equal(t, notifications.DefaultTitle, views[0].Title)
		assert.Equal(t, notifications.DefaultHref, views[0].Href)
	})

	t.Run("opted-out recipients are stored but not unread", func(t *testing.T) {
		t.Parallel()
		off := false
		f := newFixtureWithSettings(t, settingsStub{bob: {Lecture: &off}})

		_, resp := f.do(t, http.MethodPost, "/events",
			`{"userIds":["`+alice.String()+`","`+bob.String()+`"],"title":"New chapter","serverSource":"CHAPTER"}`)

		var out ingestResult
		decodeData(t, resp, &out)
		assert.Equal(t, 2, out.Recipients)
		assert.Equal(t, 1, out.Unread)

		views, err := f.manager.List(context.Background(), bob)
		require.NoError(t, err)
		assert.Empty(t, views)
	})

	t.Run("no recipients", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		rec, resp := f.do(t, http.MethodPost, "/events", `{"title":"nobody"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var out ingestResult
		decodeData(t, resp, &out)
		assert.Zero(t, out.Recipients)
		assert.Nil(t, out.NotificationID)
	})
}

func TestIngest_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"empty", "", http.StatusBadRequest, "invalid_event"},
		{"not json", "hello", http.StatusBadRequest, "invalid_event"},
		{"array", "[1,2]", http.StatusBadRequest, "invalid_event"},
		{"bad user id", `{"userIds":["nope"]}`, http.StatusBadRequest, "invalid_event"},
		{"too large", `{"title":"` + strings.Repeat("x", 200) + `"}`, http.StatusRequestEntityTooLarge, "request_entity_too_large"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t, inbox.WithMaxEventSize(128))

			rec := httptest.NewRecorder()
			f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(tt.body)))
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), `"code":"`+tt.code+`"`)
		})
	}
}
