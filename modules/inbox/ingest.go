package inbox

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrymomot/notifyhub/pkg/logger"
	"github.com/dmitrymomot/notifyhub/pkg/notifications"
)

// ingest runs the fan-out for an event posted either bare or wrapped as
// {"data": <event>}. The response reports how many recipients were stored.
func (h *Handler) ingest(w http.ResponseWriter, r *http.Request) {
	e, err := h.decodeEvent(w, r)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Rejected event", logger.Error(err))
		writeError(w, err)
		return
	}

	fanout, err := h.svc.HandleEvent(r.Context(), e)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to handle event", logger.Source(string(e.Source)), logger.Error(err))
		writeError(w, err)
		return
	}

	resp := ingestResponse{}
	if fanout != nil {
		id := fanout.Notification.ID.String()
		resp.NotificationID = &id
		resp.Recipients = len(fanout.Recipients)
		resp.Unread = fanout.Unread()
	}
	writeData(w, resp)
}

func (h *Handler) decodeEvent(w http.ResponseWriter, r *http.Request) (*notifications.Event, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxEventSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, ErrEventTooLarge
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrInvalidEvent)
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if data := bytes.TrimSpace(envelope.Data); len(data) > 0 && data[0] == '{' {
		body = data
	}

	var e notifications.Event
	if err := json.Unmarshal(body, &e); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	return &e, nil
}
