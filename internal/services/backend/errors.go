package backend

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"flashdeck/internal/services"
)

// StatusError reports a non-2xx backend response.
type StatusError struct {
	Op         string
	StatusCode int
	// Message is the body's "error" field, or "" when the body carried none.
	Message string
	Body    string
}

func newStatusError(op string, status int, body []byte) *StatusError {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &payload)
	msg := strings.TrimSpace(payload.Error)
	if msg == "" {
		msg = strings.TrimSpace(payload.Message)
	}
	text := strings.TrimSpace(string(body))
	if len(text) > maxErrorBodyBytes {
		text = text[:maxErrorBodyBytes]
	}
	return &StatusError{Op: op, StatusCode: status, Message: msg, Body: text}
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: http %d: %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: http %d", e.Op, e.StatusCode)
}

// Is lets errors.Is(err, services.ErrUnauthorized) match 401 responses.
func (e *StatusError) Is(target error) bool {
	switch target {
	case services.ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case services.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	default:
		return false
	}
}
