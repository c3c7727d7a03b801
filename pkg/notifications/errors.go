package notifications

import "errors"

var (
	ErrNotificationNotFound  = errors.New("notification not found")
	ErrDuplicateNotification = errors.New("notification already exists")
	ErrNoRecipients          = errors.New("notification has no recipients")
	ErrInvalidStatus         = errors.New("invalid recipient status")
	ErrStorage               = errors.New("notification storage failure")
)
