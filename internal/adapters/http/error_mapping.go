package httpadapter

import (
	"errors"
	"net/http"

	"github.com/faqbot/faq-assistant/internal/core/domain"
)

const (
	codeInvalidInput     = "INVALID_INPUT"
	codeRoleNotMapped    = "ROLE_NOT_MAPPED"
	codeNoResultsForRole = "NO_RESULTS_FOR_ROLE"
	codeInvalidSource    = "INVALID_SOURCE"
	codeReindexError     = "REINDEX_ERROR"
	codeUnavailable      = "COLLABORATOR_UNAVAILABLE"
	codeInternal         = "INTERNAL_ERROR"
	codeRateLimited      = "RATE_LIMITED"
	codeOverloaded       = "OVERLOADED"
	codeMethodNotAllowed = "METHOD_NOT_ALLOWED"
)

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Detail errorDetail `json:"detail"`
}

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case domain.IsKind(err, domain.ErrNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// chatErrorCode returns the public code for a chat failure.
func chatErrorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrRoleNotMapped):
		return codeRoleNotMapped
	case errors.Is(err, domain.ErrNoResultsForScope):
		return codeNoResultsForRole
	case domain.IsKind(err, domain.ErrInvalidInput):
		return codeInvalidInput
	case domain.IsKind(err, domain.ErrTemporary):
		return codeUnavailable
	default:
		return codeInternal
	}
}

// reindexErrorStatus keeps client mistakes at 400 and reports every other
// failure as a reindex error.
func reindexErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidSource):
		return http.StatusBadRequest, codeInvalidSource
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, codeInvalidInput
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable, codeReindexError
	default:
		return http.StatusInternalServerError, codeReindexError
	}
}
