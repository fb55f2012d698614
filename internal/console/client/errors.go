package client

import (
	"encoding/json"
	"errors"
	"net/http"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrTimeout      = errors.New("request timed out")
	ErrNetwork      = errors.New("network error")
)

const (
	msgUnexpected      = "Unexpected error"
	msgRequestFailed   = "Request failed"
	msgTimeout         = "Request timed out"
	msgNetwork         = "Network error"
	msgInvalidResponse = "Invalid response from server"
)

var statusMessages = map[int]string{
	http.StatusBadRequest:         "Invalid request format.",
	http.StatusUnauthorized:       "Invalid API Key / Unauthorized.",
	http.StatusForbidden:          "Request forbidden.",
	http.StatusNotFound:           "Resource not found.",
	http.StatusServiceUnavailable: "Service unavailable. Try later.",
}

// APIError is the normalized gateway failure. Status is zero for transport
// failures; Timeout marks a request that did not finish in time.
type APIError struct {
	Status  int
	Timeout bool
	Message string
	Data    json.RawMessage
	Err     error
}

func (e *APIError) Error() string { return e.Message }

func (e *APIError) Unwrap() error { return e.Err }

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrTimeout:
		return e.Timeout
	case ErrNetwork:
		return e.Status == 0 && !e.Timeout
	}
	return false
}

// Message returns the user-facing text of err when it is an *APIError, or
// fallback otherwise.
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// statusError builds the error for a non-2xx response. Codes up to 500 fall
// back to the well-known status texts; higher codes only to a generic text.
func statusError(status int, body []byte) *APIError {
	e := &APIError{Status: status}

	var payload struct {
		Message string `json:"message"`
	}
	if len(body) > 0 && json.Valid(body) {
		e.Data = json.RawMessage(body)
		_ = json.Unmarshal(body, &payload)
	}

	switch {
	case payload.Message != "":
		e.Message = payload.Message
	case status > http.StatusInternalServerError:
		e.Message = msgRequestFailed
	case statusMessages[status] != "":
		e.Message = statusMessages[status]
	default:
		e.Message = msgUnexpected
	}
	return e
}
