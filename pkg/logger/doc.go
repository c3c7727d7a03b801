// Package logger builds the service's *slog.Logger and keeps attribute
// naming consistent across packages.
//
// New creates a JSON or text handler depending on the configured Format and
// wraps it with LogHandlerDecorator, which runs registered ContextExtractor
// callbacks on every record. Helpers in attr.go (UserID, NotificationID,
// CourseID, Error, ...) return typed slog.Attr values so that log lines from
// the fan-out pipeline can be filtered by the same keys everywhere.
//
// # Usage
//
//	log := logger.New(
//	    logger.WithEnvironment("production", "notification-service"),
//	    logger.WithLevelName("info"),
//	)
//	logger.SetAsDefault(log)
//
//	log.InfoContext(ctx, "notification stored",
//	    logger.NotificationID(n.ID),
//	    logger.Count(len(recipients)),
//	)
//
// Error and Errors return an empty attribute for nil errors, so they can be
// passed unconditionally.
package logger
