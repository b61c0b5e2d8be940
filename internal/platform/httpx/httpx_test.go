package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backoffice/superadmin/internal/shared"
)

func TestRespondErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		detail string
	}{
		{shared.Validation("some roles do not exist"), http.StatusBadRequest, "some roles do not exist"},
		{shared.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
		{shared.NewError(shared.ErrForbidden, "superadmin role required"), http.StatusForbidden, "superadmin role required"},
		{shared.NotFound("user not found"), http.StatusNotFound, "user not found"},
		{shared.Conflict("email already exists"), http.StatusConflict, "email already exists"},
		{errors.New("connection reset"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		RespondError(rec, tc.err)
		assert.Equal(t, tc.status, rec.Code, tc.detail)
		var body ProblemDetail
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, tc.detail, body.Detail)
		assert.Equal(t, tc.detail, body.Error)
	}
}

func TestRespondErrorRateLimited(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, shared.RateLimited("too many login attempts", 61500*time.Millisecond))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "62", rec.Header().Get("Retry-After"))
	var body ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 62, body.RetryAfter)
}

func TestDecodeJSONRejectsMalformedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{"))
	var target map[string]any
	err := DecodeJSON(httptest.NewRecorder(), req, &target)
	assert.ErrorIs(t, err, shared.ErrValidation)
}
