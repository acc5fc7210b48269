package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("loading application: %w", NotFound("application"))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConflict))
	assert.Equal(t, CodeNotFound, CodeOf(err))
}

func TestValidation_ListsFieldsInStableOrder(t *testing.T) {
	err := Validation(map[string]string{"phone": "bad", "email": "bad"})

	assert.Equal(t, "invalid fields: email, phone", err.Error())
	assert.Equal(t, map[string]string{"phone": "bad", "email": "bad"}, FieldsOf(err))
}

func TestTransport_IsRetryableAndUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := Transport("request failed", cause)

	assert.True(t, err.Retryable)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "request failed: connection refused", err.Error())
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{Validation(map[string]string{"a": "b"}), http.StatusBadRequest},
		{New(CodeInvalidTransition, "x"), http.StatusBadRequest},
		{New(CodeMissingPrecondition, "x"), http.StatusBadRequest},
		{NotFound("payment"), http.StatusNotFound},
		{New(CodeConflict, "x"), http.StatusConflict},
		{New(CodeUnauthorized, "x"), http.StatusUnauthorized},
		{New(CodeForbidden, "x"), http.StatusForbidden},
		{Transport("x", nil), http.StatusBadGateway},
		{errors.New("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.err), tt.err.Error())
	}
}
