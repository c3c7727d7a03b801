// Package notifications turns platform events into per-user notifications
// and delivers them live to connected clients.
//
// # Architecture
//
// The package is layered the same way a request flows through it:
//
//   - RecipientResolver: explicit user list, or course members from a
//     MembershipProvider
//   - PreferenceResolver: UNREAD or DO_NOT_NOTIFY per user from a
//     SettingsProvider, failing open
//   - Storage: one Notification plus one Recipient row per user, written in
//     a single transaction (MemoryStorage, PostgresStorage)
//   - Registry: in-process, per-user multicast of View values
//   - Manager: composes the above and exposes the per-user operations
//
// # Basic Usage
//
//	storage := notifications.NewPostgresStorage(pool)
//	registry := notifications.NewRegistry(64)
//	defer registry.Close()
//
//	manager := notifications.NewManager(storage,
//	    notifications.WithRecipientResolver(notifications.NewRecipientResolver(courses)),
//	    notifications.WithPreferenceResolver(notifications.NewPreferenceResolver(settings)),
//	    notifications.WithRegistry(registry),
//	)
//
//	fanout, err := manager.HandleEvent(ctx, &notifications.Event{
//	    CourseID: &courseID,
//	    Source:   notifications.SourceChapter,
//	    Title:    "New chapter",
//	    Message:  "Chapter 3 is online",
//	    Link:     "/courses/42/chapters/3",
//	})
//
// # Live Delivery
//
// Subscribers only receive notifications created after they subscribed and
// only when their row is UNREAD. Publishing never blocks: a subscriber that
// falls more than its buffer behind misses updates and can catch up with
// Manager.List.
//
//	sub := manager.Subscribe(r.Context(), userID)
//	defer sub.Close()
//	for msg := range sub.Receive(r.Context()) {
//	    render(msg.Data)
//	}
//
// # Status Lifecycle
//
// Rows start as UNREAD or DO_NOT_NOTIFY. UNREAD rows move to READ via
// MarkAllRead or MarkOneRead. READ never returns to UNREAD and
// DO_NOT_NOTIFY never changes. Deleting the last recipient row of a
// notification deletes the notification as well.
package notifications
