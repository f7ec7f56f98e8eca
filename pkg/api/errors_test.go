package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planning-explorer/core/pkg/apperrors"
)

func TestWriteError_MapsKindToStatus(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", apperrors.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"validation", apperrors.New(apperrors.KindValidation, "BAD_INPUT", "bad input"), http.StatusUnprocessableEntity, "BAD_INPUT"},
		{"rate limit", apperrors.New(apperrors.KindRateLimit, "TOO_MANY", "slow down"), http.StatusTooManyRequests, "TOO_MANY"},
		{"unwrapped generic error", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newRecordedContext(http.MethodGet, "/x", nil)

			err := writeError(c, tt.err)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, rec.Code)

			var env envelope
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
			assert.False(t, env.Success)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.wantCode, env.Error.Code)
		})
	}
}

func TestBadRequest(t *testing.T) {
	c, rec := newRecordedContext(http.MethodGet, "/x", nil)
	err := badRequest(c, "MISSING_ID", "id is required")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.NotNil(t, env.Error)
	assert.Equal(t, "MISSING_ID", env.Error.Code)
	assert.Equal(t, "id is required", env.Error.Message)
}
