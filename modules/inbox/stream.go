package inbox

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrymomot/notifyhub/pkg/logger"
)

// stream pushes every new notification of the user as a server-sent event
// until the client disconnects or the subscription is closed.
func (h *Handler) stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, ErrStreamingUnsupported)
		return
	}

	ctx := r.Context()
	userID := userIDFrom(r)

	sub := h.svc.Subscribe(ctx, userID)
	defer func() { _ = sub.Close() }()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	h.logger.DebugContext(ctx, "Stream opened", logger.UserID(userID))
	defer h.logger.DebugContext(ctx, "Stream closed", logger.UserID(userID))

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	messages := sub.Receive(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case msg, ok := <-messages:
			if !ok {
				return
			}
			data, err := json.Marshal(msg.Data)
			if err != nil {
				h.logger.ErrorContext(ctx, "Failed to encode notification", logger.NotificationID(msg.Data.ID), logger.Error(err))
				continue
			}
			if _, err := fmt.Fprintf(w, "event: notification\nid: %s\ndata: %s\n\n", msg.Data.ID, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
