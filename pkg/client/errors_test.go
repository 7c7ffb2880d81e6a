package client

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewAPIError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
		fields  map[string]string
	}{
		{"message and errors", 422, `{"message":"invalid","errors":{"email":"taken"}}`, "invalid", map[string]string{"email": "taken"}},
		{"error key", 500, `{"error":"boom"}`, "boom", map[string]string{}},
		{"fieldErrors only", 400, `{"fieldErrors":{"sku":["required"],"name":"too long"}}`, "validation failed: name, sku", map[string]string{"sku": "required", "name": "too long"}},
		{"plain text", 502, "upstream down\n", "upstream down", map[string]string{}},
		{"empty body", 404, "", "Not Found", map[string]string{}},
		{"json array body", 400, `["nope"]`, `["nope"]`, map[string]string{}},
		{"unknown status empty body", 599, "", "unexpected response", map[string]string{}},
		{"errors as list", 400, `{"message":"Validation failed","errors":["name is required"]}`, "Validation failed: name is required", map[string]string{}},
		{"errors list without message", 400, `{"errors":["name is required","sku is required"]}`, "name is required; sku is required", map[string]string{}},
		{"errors list of field entries", 422, `{"errors":[{"field":"email","message":"taken"}]}`, "validation failed: email", map[string]string{"email": "taken"}},
		{"error object next to message", 500, `{"message":"boom","error":{"code":"X"}}`, "boom", map[string]string{}},
		{"error object with message", 500, `{"error":{"code":"X","message":"db down"}}`, "db down", map[string]string{}},
		{"non-string message", 400, `{"message":42,"errors":{"qty":"must be positive"}}`, "validation failed: qty", map[string]string{"qty": "must be positive"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newAPIError(tt.status, []byte(tt.body))
			assert.Equal(t, tt.status, e.Status)
			assert.Equal(t, tt.message, e.Message)
			assert.Equal(t, tt.fields, e.FieldErrors)
		})
	}
}

func TestIsStatusThroughWrapping(t *testing.T) {
	err := fmt.Errorf("client.ListUsers: %w", newAPIError(http.StatusForbidden, nil))

	assert.True(t, IsForbidden(err))
	assert.False(t, IsUnauthenticated(err))
	assert.True(t, IsStatus(err, 403))
	assert.False(t, IsStatus(errors.New("plain"), 403))
}

func TestAPIErrorStrings(t *testing.T) {
	assert.Equal(t, "HTTP 401: Unauthorized", newAPIError(401, nil).Error())

	cause := errors.New("connection refused")
	e := transportError(cause)
	assert.Equal(t, "request failed: connection refused", e.Error())
	assert.ErrorIs(t, e, cause)
	assert.Equal(t, 0, e.HTTPStatus())
}
