package http

import (
	"errors"
	"net/http"

	"github.com/scholarhub/scholarship-review/internal/domain/shared"
	"github.com/scholarhub/scholarship-review/pkg/logger"
)

// errorStatus maps a domain error kind to an HTTP status and a stable code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, shared.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, shared.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case shared.IsNotFound(err):
		return http.StatusNotFound, "not_found"
	case shared.IsAlreadyExists(err):
		return http.StatusConflict, "already_exists"
	case shared.IsStateTransition(err):
		return http.StatusConflict, "invalid_transition"
	case shared.IsValidation(err):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, shared.ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	case shared.IsUnavailable(err):
		return http.StatusServiceUnavailable, "store_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// errorMessage returns the user-facing message. Server-side failures never
// expose the underlying cause.
func errorMessage(status int, err error) string {
	switch {
	case status == http.StatusServiceUnavailable:
		return "The service is temporarily unavailable. Please try again."
	case status >= http.StatusInternalServerError:
		return "An unexpected error occurred"
	}
	var de *shared.DomainError
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	return http.StatusText(status)
}

// writeDomainError writes err in the standard envelope and logs server-side failures.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("request failed",
			logger.String("path", r.URL.Path),
			logger.Err(err),
		)
	}
	writeJSONError(w, status, code, errorMessage(status, err))
}
