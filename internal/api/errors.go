package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error is a structured failure response from the conversion service.
// Messages holds the collapsed detail payload: a single server message, or
// one entry per field-level validation error.
type Error struct {
	Status   int
	Messages []string
}

func (e *Error) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("api error %d", e.Status)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, strings.Join(e.Messages, ", "))
}

// Unauthorized reports whether the server rejected the presented credential.
func (e *Error) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

// IsUnauthorized reports whether err is a credential rejection from the server.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Unauthorized()
}

// Message collapses any error from this package into a single user-facing
// string. Server detail wins over the fallback; the fallback covers network
// failures and bodies the client could not interpret.
func Message(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	var apiErr *Error
	if errors.As(err, &apiErr) && len(apiErr.Messages) > 0 {
		return strings.Join(apiErr.Messages, ", ")
	}
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Error()
	}
	return fallback
}

// errorBody matches the service's error envelope. Detail may be a plain
// string, a list of field validation errors, or a single object with a msg.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

type fieldError struct {
	Msg string `json:"msg"`
}

func parseDetail(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		if single = strings.TrimSpace(single); single != "" {
			return []string{single}
		}
		return nil
	}

	var fields []fieldError
	if err := json.Unmarshal(raw, &fields); err == nil {
		messages := make([]string, 0, len(fields))
		for _, field := range fields {
			if msg := strings.TrimSpace(field.Msg); msg != "" {
				messages = append(messages, msg)
			}
		}
		return messages
	}

	var object fieldError
	if err := json.Unmarshal(raw, &object); err == nil {
		if msg := strings.TrimSpace(object.Msg); msg != "" {
			return []string{msg}
		}
	}
	return nil
}

func newError(status int, body []byte) *Error {
	apiErr := &Error{Status: status}
	var envelope errorBody
	if err := json.Unmarshal(body, &envelope); err == nil {
		apiErr.Messages = parseDetail(envelope.Detail)
	}
	return apiErr
}
