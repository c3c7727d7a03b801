package notifications

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifyhub/pkg/logger"
)

type memoryNotification struct {
	Notification
	seq        uint64
	recipients map[uuid.UUID]*Recipient // userID -> row
}

// MemoryStorage is an in-memory Storage for development and tests.
type MemoryStorage struct {
	notifications map[uuid.UUID]*memoryNotification
	byUser        map[uuid.UUID]map[uuid.UUID]struct{} // userID -> notification ids
	seq           uint64
	opts          storageOptions
	mu            sync.RWMutex
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage(opts ...StorageOption) *MemoryStorage {
	return &MemoryStorage{
		notifications: make(map[uuid.UUID]*memoryNotification),
		byUser:        make(map[uuid.UUID]map[uuid.UUID]struct{}),
		opts:          newStorageOptions(opts),
	}
}

func (s *MemoryStorage) CreateWithRecipients(ctx context.Context, n Notification, recipients []Recipient) (*Notification, []Recipient, error) {
	if len(recipients) == 0 {
		return nil, nil, ErrNoRecipients
	}
	for _, r := range recipients {
		if !r.Status.Valid() {
			return nil, nil, ErrInvalidStatus
		}
	}
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.notifications[n.ID]; exists {
		return nil, nil, errors.Join(ErrStorage, ErrDuplicateNotification)
	}

	stored := &memoryNotification{
		Notification: n,
		recipients:   make(map[uuid.UUID]*Recipient, len(recipients)),
	}

	saved := make([]Recipient, 0, len(recipients))
	for _, r := range recipients {
		if _, dup := stored.recipients[r.UserID]; dup {
			s.opts.logger.LogAttrs(ctx, slog.LevelWarn, "Dropped duplicate notification recipient",
				logger.NotificationID(n.ID.String()),
				logger.UserID(r.UserID.String()),
			)
			continue
		}
		if r.ID == uuid.Nil {
			r.ID = uuid.New()
		}
		r.NotificationID = n.ID
		row := r
		stored.recipients[r.UserID] = &row
		saved = append(saved, r)
	}

	s.seq++
	stored.seq = s.seq
	s.notifications[n.ID] = stored
	for userID := range stored.recipients {
		ids, ok := s.byUser[userID]
		if !ok {
			ids = make(map[uuid.UUID]struct{})
			s.byUser[userID] = ids
		}
		ids[n.ID] = struct{}{}
	}

	out := stored.Notification
	return &out, saved, nil
}

func (s *MemoryStorage) Get(ctx context.Context, id uuid.UUID) (*Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.notifications[id]
	if !ok {
		return nil, ErrNotificationNotFound
	}
	out := stored.Notification
	return &out, nil
}

func (s *MemoryStorage) Recipients(ctx context.Context, notificationID uuid.UUID) ([]Recipient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.notifications[notificationID]
	if !ok {
		return []Recipient{}, nil
	}
	out := make([]Recipient, 0, len(stored.recipients))
	for _, r := range stored.recipients {
		out = append(out, *r)
	}
	slices.SortFunc(out, func(a, b Recipient) int {
		return compareUUID(a.UserID, b.UserID)
	})
	return out, nil
}

func (s *MemoryStorage) ListForUser(ctx context.Context, userID uuid.UUID) ([]View, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type entry struct {
		view View
		seq  uint64
	}
	entries := make([]entry, 0, len(s.byUser[userID]))
	for id := range s.byUser[userID] {
		stored := s.notifications[id]
		r := stored.recipients[userID]
		if r.Status == StatusDoNotNotify {
			continue
		}
		entries = append(entries, entry{view: NewView(stored.Notification, r.Status), seq: stored.seq})
	}

	slices.SortFunc(entries, func(a, b entry) int {
		if c := b.view.CreatedAt.Compare(a.view.CreatedAt); c != 0 {
			return c
		}
		switch {
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		}
		return 0
	})

	views := make([]View, len(entries))
	for i, e := range entries {
		views[i] = e.view
	}
	return views, nil
}

func (s *MemoryStorage) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for id := range s.byUser[userID] {
		if s.notifications[id].recipients[userID].Status == StatusUnread {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStorage) MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.opts.now()
	count := 0
	for id := range s.byUser[userID] {
		r := s.notifications[id].recipients[userID]
		if r.Status != StatusUnread {
			continue
		}
		r.Status = StatusRead
		r.ReadAt = &now
		count++
	}
	return count, nil
}

func (s *MemoryStorage) MarkOneRead(ctx context.Context, userID, notificationID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.notifications[notificationID]
	if !ok {
		return 0, nil
	}
	r, ok := stored.recipients[userID]
	if !ok || r.Status == StatusDoNotNotify {
		return 0, nil
	}
	r.Status = StatusRead
	if r.ReadAt == nil {
		now := s.opts.now()
		r.ReadAt = &now
	}
	return 1, nil
}

func (s *MemoryStorage) DeleteOne(ctx context.Context, userID, notificationID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.deleteRecipientLocked(userID, notificationID), nil
}

func (s *MemoryStorage) DeleteAll(ctx context.Context, userID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for id := range s.byUser[userID] {
		count += s.deleteRecipientLocked(userID, id)
	}
	return count, nil
}

// deleteRecipientLocked removes one row and its notification if orphaned.
func (s *MemoryStorage) deleteRecipientLocked(userID, notificationID uuid.UUID) int {
	stored, ok := s.notifications[notificationID]
	if !ok {
		return 0
	}
	if _, ok := stored.recipients[userID]; !ok {
		return 0
	}

	delete(stored.recipients, userID)
	if ids := s.byUser[userID]; ids != nil {
		delete(ids, notificationID)
		if len(ids) == 0 {
			delete(s.byUser, userID)
		}
	}
	if len(stored.recipients) == 0 {
		delete(s.notifications, notificationID)
	}
	return 1
}

func compareUUID(a, b uuid.UUID) int {
	return slices.Compare(a[:], b[:])
}

var _ Storage = (*MemoryStorage)(nil)
