package notifications

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Storage persists notifications and their per-user recipient rows.
// Every method is atomic: callers never observe partial writes.
type Storage interface {
	// CreateWithRecipients stores n and one row per recipient in a single
	// transaction. Rows that collide with an existing (notification, user)
	// pair are dropped rather than failing the call. Only the rows actually
	// stored are returned. Reusing an existing notification id fails with
	// ErrDuplicateNotification and leaves the stored data untouched.
	CreateWithRecipients(ctx context.Context, n Notification, recipients []Recipient) (*Notification, []Recipient, error)

	// Get returns a notification by id or ErrNotificationNotFound.
	Get(ctx context.Context, id uuid.UUID) (*Notification, error)

	// Recipients returns every recipient row of a notification.
	Recipients(ctx context.Context, notificationID uuid.UUID) ([]Recipient, error)

	// ListForUser returns the user's visible notifications, newest first.
	// DO_NOT_NOTIFY rows are excluded. Equal timestamps keep insertion order.
	ListForUser(ctx context.Context, userID uuid.UUID) ([]View, error)

	// CountUnread counts the user's UNREAD rows.
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)

	// MarkAllRead moves every UNREAD row of the user to READ.
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error)

	// MarkOneRead sets the (user, notification) row to READ and returns 1
	// if it exists and is not DO_NOT_NOTIFY. The first read time is kept.
	MarkOneRead(ctx context.Context, userID, notificationID uuid.UUID) (int, error)

	// DeleteOne removes the (user, notification) row and the notification
	// itself when no recipients remain.
	DeleteOne(ctx context.Context, userID, notificationID uuid.UUID) (int, error)

	// DeleteAll removes every row of the user and any notification left
	// without recipients.
	DeleteAll(ctx context.Context, userID uuid.UUID) (int, error)
}

type storageOptions struct {
	now    func() time.Time
	logger *slog.Logger
}

func newStorageOptions(opts []StorageOption) storageOptions {
	o := storageOptions{
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// StorageOption configures a Storage implementation.
type StorageOption func(*storageOptions)

// WithClock overrides the time source used for read timestamps.
func WithClock(now func() time.Time) StorageOption {
	return func(o *storageOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithStorageLogger sets the logger used for recoverable storage warnings.
func WithStorageLogger(logger *slog.Logger) StorageOption {
	return func(o *storageOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}
