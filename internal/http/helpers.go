package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"fintrack/internal/catalog"
	"fintrack/internal/core"
	"fintrack/internal/identity"
	"fintrack/internal/log"
)

// sanitizeInput removes control characters except tab and newlines, and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

// errorFor translates a domain error into its response. Unknown errors are
// logged and hidden behind a generic message.
func errorFor(r *http.Request, err error) *ResponseBuilder {
	logger := log.FromContext(r.Context())
	switch {
	case errors.Is(err, errMalformedBody):
		return BadRequestError(err.Error())
	case errors.Is(err, core.ErrValidation):
		return UnprocessableEntityError(err.Error())
	case errors.Is(err, identity.ErrDuplicateIdentity):
		return ErrorResponse(http.StatusConflict, err.Error())
	case errors.Is(err, identity.ErrInvalidCredentials):
		return ErrorResponse(http.StatusUnauthorized, err.Error())
	case errors.Is(err, catalog.ErrNetwork):
		logger.WarnContext(r.Context(), "Catalog unavailable",
			log.FieldError, err, log.FieldErrorType, log.ErrorTypeNetwork)
		return RetryableError("catalog unavailable, please retry")
	default:
		logger.ErrorContext(r.Context(), "Request failed",
			log.NewFields().
				WithError(err, log.ErrorTypeInternal).
				WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "").
				ToSlice()...)
		return InternalServerError("internal error")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	errorFor(r, err).Write(w)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	NewResponse().Status(status).JSON(v).Write(w)
}

// pathID parses the {id} path value as a positive integer.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
