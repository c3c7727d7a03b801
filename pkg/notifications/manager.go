package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifyhub/pkg/broadcast"
	"github.com/dmitrymomot/notifyhub/pkg/logger"
)

// Manager fans inbound events out to recipients and serves the per-user
// query and mutation operations.
type Manager struct {
	storage     Storage
	recipients  *RecipientResolver
	preferences *PreferenceResolver
	registry    *Registry
	logger      *slog.Logger
	now         func() time.Time
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger sets the logger for the Manager.
func WithManagerLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithRecipientResolver replaces the default resolver, which has no
// membership provider.
func WithRecipientResolver(r *RecipientResolver) ManagerOption {
	return func(m *Manager) {
		if r != nil {
			m.recipients = r
		}
	}
}

// WithPreferenceResolver replaces the default resolver, which treats every
// recipient as having no settings.
func WithPreferenceResolver(p *PreferenceResolver) ManagerOption {
	return func(m *Manager) {
		if p != nil {
			m.preferences = p
		}
	}
}

// WithRegistry sets the live delivery registry.
func WithRegistry(r *Registry) ManagerOption {
	return func(m *Manager) {
		if r != nil {
			m.registry = r
		}
	}
}

// WithManagerClock overrides the time source used for events without a timestamp.
func WithManagerClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager creates a notification manager on top of storage.
func NewManager(storage Storage, opts ...ManagerOption) *Manager {
	m := &Manager{
		storage: storage,
		logger:  slog.Default(),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.recipients == nil {
		m.recipients = NewRecipientResolver(nil, WithResolverLogger(m.logger))
	}
	if m.preferences == nil {
		m.preferences = NewPreferenceResolver(nil, WithResolverLogger(m.logger))
	}
	if m.registry == nil {
		m.registry = NewRegistry(DefaultConfig().SubscriberBuffer)
	}

	return m
}

// Fanout describes what HandleEvent stored.
type Fanout struct {
	Notification Notification
	Recipients   []Recipient
}

// Unread returns the number of recipients that see the notification.
func (f *Fanout) Unread() int {
	if f == nil {
		return 0
	}
	n := 0
	for _, r := range f.Recipients {
		if r.Status == StatusUnread {
			n++
		}
	}
	return n
}

// HandleEvent resolves recipients and their statuses, stores the
// notification with all recipient rows in one transaction and, once
// committed, pushes it to live subscribers of UNREAD recipients.
//
// A nil event or one that resolves to nobody returns (nil, nil).
// Storage errors are returned; provider failures are not.
func (m *Manager) HandleEvent(ctx context.Context, e *Event) (*Fanout, error) {
	if e == nil {
		return nil, nil
	}

	users := m.recipients.Resolve(ctx, e)
	if len(users) == 0 {
		m.logger.LogAttrs(ctx, slog.LevelInfo, "No recipients resolved for event",
			slog.String("title", e.Title),
			logger.Source(string(e.Source)),
		)
		return nil, nil
	}

	statuses := m.preferences.Decide(ctx, users, e.Source)

	rows := make([]Recipient, len(users))
	for i, id := range users {
		rows[i] = Recipient{UserID: id, Status: statuses[id]}
	}

	saved, savedRows, err := m.storage.CreateWithRecipients(ctx, NotificationFromEvent(e, m.now()), rows)
	if err != nil {
		return nil, fmt.Errorf("failed to store notification: %w", err)
	}

	view := NewView(*saved, StatusUnread)
	for _, r := range savedRows {
		if r.Status == StatusUnread {
			m.registry.Publish(ctx, r.UserID, view)
		}
	}

	out := &Fanout{Notification: *saved, Recipients: savedRows}
	m.logger.LogAttrs(ctx, slog.LevelInfo, "Notification created",
		logger.NotificationID(saved.ID),
		logger.Source(string(e.Source)),
		logger.Count(len(savedRows)),
		slog.Int("unread", out.Unread()),
	)
	return out, nil
}

// List returns the user's visible notifications, newest first.
func (m *Manager) List(ctx context.Context, userID uuid.UUID) ([]View, error) {
	if userID == uuid.Nil {
		return []View{}, nil
	}
	return m.storage.ListForUser(ctx, userID)
}

// CountUnread returns the number of unread notifications of the user.
func (m *Manager) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	if userID == uuid.Nil {
		return 0, nil
	}
	return m.storage.CountUnread(ctx, userID)
}

// MarkAllRead marks every unread notification of the user as read.
func (m *Manager) MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error) {
	if userID == uuid.Nil {
		return 0, nil
	}
	return m.storage.MarkAllRead(ctx, userID)
}

// MarkOneRead marks one notification as read. It returns 1 when the user
// can see the notification, whether or not it was already read.
func (m *Manager) MarkOneRead(ctx context.Context, userID, notificationID uuid.UUID) (int, error) {
	if userID == uuid.Nil || notificationID == uuid.Nil {
		return 0, nil
	}
	return m.storage.MarkOneRead(ctx, userID, notificationID)
}

// DeleteAll removes all notifications of the user.
func (m *Manager) DeleteAll(ctx context.Context, userID uuid.UUID) (int, error) {
	if userID == uuid.Nil {
		return 0, nil
	}
	return m.storage.DeleteAll(ctx, userID)
}

// DeleteOne removes one notification for the user.
func (m *Manager) DeleteOne(ctx context.Context, userID, notificationID uuid.UUID) (int, error) {
	if userID == uuid.Nil || notificationID == uuid.Nil {
		return 0, nil
	}
	return m.storage.DeleteOne(ctx, userID, notificationID)
}

// Subscribe returns a live stream of notifications created for the user
// from now on. It ends when ctx is cancelled.
func (m *Manager) Subscribe(ctx context.Context, userID uuid.UUID) broadcast.Subscriber[View] {
	return m.registry.Subscribe(ctx, userID)
}

// Storage returns the underlying notification storage.
func (m *Manager) Storage() Storage {
	return m.storage
}

// Registry returns the live delivery registry.
func (m *Manager) Registry() *Registry {
	return m.registry
}
