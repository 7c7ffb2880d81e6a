package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// APIError is the single error shape for failed API calls. Non-2xx responses
// and transport failures both end up here; Status is 0 when no response was
// received.
type APIError struct {
	Message     string
	Status      int
	FieldErrors map[string]string

	err error
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return "request failed: " + e.Message
	}
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error { return e.err }

// HTTPStatus exposes the status for structured logging.
func (e *APIError) HTTPStatus() int { return e.Status }

// IsStatus returns true if err (or any wrapped error) is an APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status == code
	}
	return false
}

// IsUnauthenticated reports a 401: the session is missing, expired or revoked.
func IsUnauthenticated(err error) bool { return IsStatus(err, http.StatusUnauthorized) }

// IsForbidden reports a 403: signed in but not allowed.
func IsForbidden(err error) bool { return IsStatus(err, http.StatusForbidden) }

// transportError wraps a failure that produced no response.
func transportError(err error) *APIError {
	return &APIError{Message: err.Error(), FieldErrors: map[string]string{}, err: err}
}

// newAPIError normalizes a non-2xx body. Servers answer with any of
// {"message": ..., "errors": {...} or [...]}, {"error": "..." or {...}},
// {"fieldErrors": {...}} or plain text; field values may be a string or a
// list of strings. Each key is decoded on its own so one odd shape does not
// lose the rest.
func newAPIError(status int, body []byte) *APIError {
	e := &APIError{Status: status, FieldErrors: map[string]string{}}

	var payload map[string]json.RawMessage
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' && json.Unmarshal(trimmed, &payload) == nil {
		e.Message = stringField(payload["message"])
		if e.Message == "" {
			e.Message = errorField(payload["error"])
		}
		var listed []string
		for _, key := range []string{"errors", "fieldErrors"} {
			listed = append(listed, collectFieldErrors(e.FieldErrors, payload[key])...)
		}
		switch {
		case len(listed) > 0 && e.Message == "":
			e.Message = strings.Join(listed, "; ")
		case len(listed) > 0:
			e.Message += ": " + strings.Join(listed, "; ")
		case e.Message == "" && len(e.FieldErrors) > 0:
			e.Message = "validation failed: " + strings.Join(sortedKeys(e.FieldErrors), ", ")
		}
	} else if len(trimmed) > 0 {
		e.Message = string(trimmed)
	}

	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	if e.Message == "" {
		e.Message = "unexpected response"
	}
	return e
}

// stringField returns raw as a string, or "" when it is anything else.
func stringField(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

// errorField reads "error" as a string or as an object carrying a message.
func errorField(raw json.RawMessage) string {
	if s := stringField(raw); s != "" {
		return s
	}
	var obj map[string]json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &obj) != nil {
		return ""
	}
	return stringField(obj["message"])
}

// collectFieldErrors accepts a field map or a list. List entries that name
// a field ({"field": ..., "message": ...}) become field errors; the rest are
// returned as general messages.
func collectFieldErrors(dst map[string]string, raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var byField map[string]json.RawMessage
	if json.Unmarshal(raw, &byField) == nil {
		for field, v := range byField {
			dst[field] = fieldText(v)
		}
		return nil
	}
	var list []json.RawMessage
	if json.Unmarshal(raw, &list) != nil {
		return nil
	}
	var general []string
	for _, item := range list {
		if s := stringField(item); s != "" {
			general = append(general, s)
			continue
		}
		var entry map[string]json.RawMessage
		if json.Unmarshal(item, &entry) != nil {
			continue
		}
		msg := stringField(entry["message"])
		if field := stringField(entry["field"]); field != "" {
			dst[field] = msg
		} else if msg != "" {
			general = append(general, msg)
		}
	}
	return general
}

func fieldText(raw json.RawMessage) string {
	var one string
	if json.Unmarshal(raw, &one) == nil {
		return one
	}
	var many []string
	if json.Unmarshal(raw, &many) == nil {
		return strings.Join(many, "; ")
	}
	return string(raw)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
