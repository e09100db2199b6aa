package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"etlapi/internal/domain"
	"etlapi/internal/middleware"
)

// Machine-readable error codes returned in error bodies.
const (
	CodeUnsupportedSource      = domain.CodeUnsupportedSource
	CodeUnsupportedDestination = domain.CodeUnsupportedDestination
	CodeMissingColumn          = domain.CodeMissingColumn
	CodeValidation             = domain.CodeValidation
	CodeInvalidRequest         = "INVALID_REQUEST"
	CodeUpstream               = domain.CodeUpstream
	CodeUpstreamTimeout        = domain.CodeUpstreamTimeout
	CodeStorage                = domain.CodeStorage
	CodeInternal               = domain.CodeInternal
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error     ErrorDetail `json:"error"`
	RequestID string      `json:"request_id,omitempty"`
}

// ErrorDetail carries the code and message of an error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// invalidRequestError marks a body or query that could not be parsed.
type invalidRequestError struct {
	msg string
}

func (e *invalidRequestError) Error() string { return e.msg }

func errInvalidRequest(msg string) error { return &invalidRequestError{msg: msg} }

// statusFromError maps domain errors to an HTTP status and error code.
// Unknown errors return 500 INTERNAL_ERROR.
func statusFromError(err error) (int, string) {
	var invalid *invalidRequestError
	if errors.As(err, &invalid) {
		return http.StatusBadRequest, CodeInvalidRequest
	}

	code := domain.ErrorCode(err)
	switch code {
	case CodeUnsupportedSource, CodeUnsupportedDestination, CodeMissingColumn, CodeValidation:
		return http.StatusBadRequest, code
	case CodeUpstream:
		return http.StatusBadGateway, code
	case CodeUpstreamTimeout:
		return http.StatusGatewayTimeout, code
	default:
		return http.StatusInternalServerError, code
	}
}

// writeError writes the structured error body for err. Internal errors hide
// their message from the client and are logged instead.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, code := statusFromError(err)
	requestID := middleware.RequestIDFromContext(r.Context())

	msg := err.Error()
	if code == CodeInternal {
		logger.ErrorContext(r.Context(), "internal error",
			slog.String("error", msg),
			slog.String("request_id", requestID),
		)
		msg = "internal server error"
	}

	writeJSON(w, status, ErrorBody{
		Error:     ErrorDetail{Code: code, Message: msg},
		RequestID: requestID,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
