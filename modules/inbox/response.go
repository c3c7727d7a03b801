package inbox

import (
	"encoding/json"
	"net/http"
)

// JSONResponse is the envelope of every non-stream response.
type JSONResponse struct {
	Data  any          `json:"data,omitempty"`
	Error *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type countResponse struct {
	Count int `json:"count"`
}

type affectedResponse struct {
	Affected int `json:"affected"`
}

type ingestResponse struct {
	Recipients     int     `json:"recipients"`
	Unread         int     `json:"unread"`
	NotificationID *string `json:"notification_id"`
}

func writeJSON(w http.ResponseWriter, status int, body JSONResponse) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, JSONResponse{Data: data})
}

// writeError renders err. Internal errors never expose their text.
func writeError(w http.ResponseWriter, err error) {
	he := asHTTPError(err)
	msg := http.StatusText(he.Code)
	if he.Code < http.StatusInternalServerError && err.Error() != he.Key {
		msg = err.Error()
	}
	writeJSON(w, he.Code, JSONResponse{Error: &ErrorDetail{Code: he.Key, Message: msg}})
}
