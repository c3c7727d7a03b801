package inbox

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/notifyhub/pkg/broadcast"
	"github.com/dmitrymomot/notifyhub/pkg/logger"
	"github.com/dmitrymomot/notifyhub/pkg/notifications"
)

// Service is the notification engine behind the handler.
// *notifications.Manager implements it.
type Service interface {
	HandleEvent(ctx context.Context, e *notifications.Event) (*notifications.Fanout, error)
	List(ctx context.Context, userID uuid.UUID) ([]notifications.View, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error)
	MarkOneRead(ctx context.Context, userID, notificationID uuid.UUID) (int, error)
	DeleteAll(ctx context.Context, userID uuid.UUID) (int, error)
	DeleteOne(ctx context.Context, userID, notificationID uuid.UUID) (int, error)
	Subscribe(ctx context.Context, userID uuid.UUID) broadcast.Subscriber[notifications.View]
}

// Handler serves the inbox routes.
type Handler struct {
	svc          Service
	authorize    Authorizer
	logger       *slog.Logger
	keepAlive    time.Duration
	maxEventSize int64
}

// NewHandler creates a Handler for svc.
func NewHandler(svc Service, opts ...Option) *Handler {
	h := &Handler{
		svc:          svc,
		authorize:    AllowAll,
		logger:       slog.Default(),
		keepAlive:    15 * time.Second,
		maxEventSize: 1 << 20,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With(logger.Component("inbox"))
	return h
}

// Handle returns the router with every inbox route.
func (h *Handler) Handle() http.Handler {
	r := chi.NewRouter()

	r.Post("/events", h.ingest)

	r.Route("/users/{userID}/notifications", func(r chi.Router) {
		r.Use(h.userAccess)

		r.Get("/", h.list)
		r.Delete("/", h.deleteAll)
		r.Get("/unread-count", h.countUnread)
		r.Post("/read", h.markAllRead)
		r.Get("/stream", h.stream)
		r.Post("/{notificationID}/read", h.markOneRead)
		r.Delete("/{notificationID}", h.deleteOne)
	})

	return r
}

type userIDKey struct{}

// userAccess parses {userID}, runs the Authorizer and stores the id in the
// request context.
func (h *Handler) userAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuid.Parse(chi.URLParam(r, "userID"))
		if err != nil {
			writeError(w, ErrInvalidUserID)
			return
		}

		if err := h.authorize(r, userID); err != nil {
			h.logger.WarnContext(r.Context(), "Inbox access denied", logger.UserID(userID), logger.Error(err))
			var he HTTPError
			if !errors.As(err, &he) {
				err = ErrForbidden
			}
			writeError(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey{}, userID)))
	})
}

func userIDFrom(r *http.Request) uuid.UUID {
	id, _ := r.Context().Value(userIDKey{}).(uuid.UUID)
	return id
}

func notificationIDFrom(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "notificationID"))
	if err != nil {
		return uuid.Nil, ErrInvalidNotificationID
	}
	return id, nil
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.List(r.Context(), userIDFrom(r))
	if err != nil {
		h.fail(w, r, "Failed to list notifications", err)
		return
	}
	if views == nil {
		views = []notifications.View{}
	}
	writeData(w, views)
}

func (h *Handler) countUnread(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.CountUnread(r.Context(), userIDFrom(r))
	if err != nil {
		h.fail(w, r, "Failed to count unread notifications", err)
		return
	}
	writeData(w, countResponse{Count: n})
}

func (h *Handler) markAllRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.MarkAllRead(r.Context(), userIDFrom(r))
	if err != nil {
		h.fail(w, r, "Failed to mark notifications read", err)
		return
	}
	writeData(w, affectedResponse{Affected: n})
}

func (h *Handler) markOneRead(w http.ResponseWriter, r *http.Request) {
	notificationID, err := notificationIDFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	n, err := h.svc.MarkOneRead(r.Context(), userIDFrom(r), notificationID)
	if err != nil {
		h.fail(w, r, "Failed to mark notification read", err)
		return
	}
	writeData(w, affectedResponse{Affected: n})
}

func (h *Handler) deleteAll(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.DeleteAll(r.Context(), userIDFrom(r))
	if err != nil {
		h.fail(w, r, "Failed to delete notifications", err)
		return
	}
	writeData(w, affectedResponse{Affected: n})
}

func (h *Handler) deleteOne(w http.ResponseWriter, r *http.Request) {
	notificationID, err := notificationIDFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	n, err := h.svc.DeleteOne(r.Context(), userIDFrom(r), notificationID)
	if err != nil {
		h.fail(w, r, "Failed to delete notification", err)
		return
	}
	writeData(w, affectedResponse{Affected: n})
}

// fail logs a service error and renders it as 500.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.ErrorContext(r.Context(), msg, logger.UserID(userIDFrom(r)), logger.Error(err))
	writeError(w, err)
}
