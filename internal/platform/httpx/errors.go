// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/backoffice/superadmin/internal/shared"
)

// StatusFor maps the shared error taxonomy to an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrInvalidCredentials), errors.Is(err, shared.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, shared.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	detail := shared.UserSafeMessage(err)
	if status == http.StatusTooManyRequests {
		var appErr *shared.Error
		if errors.As(err, &appErr) && appErr.RetryAfter > 0 {
			seconds := int(math.Ceil(appErr.RetryAfter.Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			JSON(w, status, ProblemDetail{
				Title:      http.StatusText(status),
				Status:     status,
				Detail:     detail,
				Error:      detail,
				RetryAfter: seconds,
			})
			return
		}
	}
	Problem(w, status, http.StatusText(status), detail)
}
