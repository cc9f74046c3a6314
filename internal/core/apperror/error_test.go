package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactories_CodesAndStatuses(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"validation", NewValidation("bad input"), CodeValidation, http.StatusBadRequest},
		{"not found", NewNotFound("location", "abc"), CodeNotFound, http.StatusNotFound},
		{"insufficient stock", NewInsufficientStock("p", "l", 5, 3), CodeInsufficientStock, http.StatusUnprocessableEntity},
		{"invalid state", NewInvalidState("transfer", "SIGNED", "PENDING"), CodeInvalidState, http.StatusUnprocessableEntity},
		{"quota", NewQuotaExceeded("manual drafts", 10), CodeQuotaExceeded, http.StatusUnprocessableEntity},
		{"concurrent", NewConcurrentModification("location", "abc"), CodeConcurrentModification, http.StatusConflict},
		{"internal", NewInternal(errors.New("boom")), CodeInternal, http.StatusInternalServerError},
		{"unauthorized", NewUnauthorized("no token"), CodeUnauthorized, http.StatusUnauthorized},
		{"forbidden", NewForbidden("no capability"), CodeForbidden, http.StatusForbidden},
		{"conflict", NewConflict("already exists"), CodeConflict, http.StatusConflict},
		{"duplicate", NewDuplicate("doc_transfers", "number", "TR-1"), CodeDuplicate, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
			assert.True(t, IsCode(tt.err, tt.code))
		})
	}
}

func TestInsufficientStock_Details(t *testing.T) {
	err := NewInsufficientStock("prod-1", "loc-1", 10, 4)
	assert.Equal(t, "prod-1", err.Details["product_id"])
	assert.Equal(t, "loc-1", err.Details["location_id"])
	assert.Equal(t, int64(10), err.Details["requested"])
	assert.Equal(t, int64(4), err.Details["available"])
}

func TestWithDetailAndCause_Chaining(t *testing.T) {
	cause := errors.New("row locked")
	err := NewValidation("bad").
		WithDetail("field", "name").
		WithDetail("lineNo", 2).
		WithCause(cause)

	assert.Equal(t, "name", err.Details["field"])
	assert.Equal(t, 2, err.Details["lineNo"])
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "row locked")
}

func TestHelpers_UnwrapWrappedErrors(t *testing.T) {
	inner := NewNotFound("draft", "d1")
	wrapped := fmt.Errorf("load draft: %w", inner)

	assert.True(t, IsAppError(wrapped))
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsConcurrentModification(wrapped))

	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, CodeNotFound, appErr.Code)
	assert.Equal(t, http.StatusNotFound, GetHTTPStatus(wrapped))
}

func TestHelpers_PlainErrors(t *testing.T) {
	plain := errors.New("plain")

	assert.False(t, IsAppError(plain))
	assert.False(t, IsCode(plain, CodeValidation))
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(plain))

	_, ok := AsAppError(nil)
	assert.False(t, ok)
}

func TestError_Format(t *testing.T) {
	err := NewConflict("A main store already exists")
	assert.Equal(t, "CONFLICT: A main store already exists", err.Error())
}
