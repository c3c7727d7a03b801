// Package inbox exposes the notification inbox over HTTP.
//
// Routes, relative to where Handle is mounted:
//
//	GET    /users/{userID}/notifications                         list, newest first
//	GET    /users/{userID}/notifications/unread-count            {"count": n}
//	POST   /users/{userID}/notifications/read                    mark all read
//	POST   /users/{userID}/notifications/{notificationID}/read   mark one read
//	DELETE /users/{userID}/notifications                         delete all
//	DELETE /users/{userID}/notifications/{notificationID}        delete one
//	GET    /users/{userID}/notifications/stream                  server-sent events
//	POST   /events                                               ingest a domain event
//
// Responses use the {"data": ...} / {"error": {"code", "message"}} envelope.
// Access to a user's inbox is decided by the Authorizer passed with
// WithAuthorizer; without one every request is allowed, so the handler must
// sit behind an authenticating gateway.
//
// The stream endpoint writes one "notification" event per new notification
// and a comment line every keep-alive interval:
//
//	event: notification
//	id: 3f1c...
//	data: {"id":"3f1c...","title":"New lecture","read":false,...}
package inbox
