package inbox

import (
	"errors"
	"net/http"
)

// HTTPError is an error with a status code and a stable machine-readable key.
type HTTPError struct {
	Code int
	Key  string
}

func (e HTTPError) Error() string {
	return e.Key
}

var (
	ErrInvalidUserID         = HTTPError{Code: http.StatusBadRequest, Key: "invalid_user_id"}
	ErrInvalidNotificationID = HTTPError{Code: http.StatusBadRequest, Key: "invalid_notification_id"}
	ErrInvalidEvent          = HTTPError{Code: http.StatusBadRequest, Key: "invalid_event"}
	ErrEventTooLarge         = HTTPError{Code: http.StatusRequestEntityTooLarge, Key: "request_entity_too_large"}
	ErrForbidden             = HTTPError{Code: http.StatusForbidden, Key: "forbidden"}
	ErrStreamingUnsupported  = HTTPError{Code: http.StatusInternalServerError, Key: "streaming_unsupported"}
	ErrInternal              = HTTPError{Code: http.StatusInternalServerError, Key: "internal_server_error"}
)

// asHTTPError maps err to the HTTPError it wraps, or ErrInternal.
func asHTTPError(err error) HTTPError {
	var he HTTPError
	if errors.As(err, &he) {
		return he
	}
	return ErrInternal
}
