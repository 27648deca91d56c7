package web

// errors.go provides unified error response handling for the API.
//
// Handlers call respondError with whatever the service returned; the sentinel
// errors of the decoder and ingest packages determine the HTTP status, the
// technical error is logged server-side with the request ID for correlation,
// and the client receives a JSON body with a stable machine-readable code.

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/marcelomvrocha/translation-system/internal/decoder"
	"github.com/marcelomvrocha/translation-system/internal/ingest"
)

// ErrorResponse is the JSON structure for API error responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// respondError logs the technical error and writes the JSON error response
// whose status matches the error's sentinel.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)

	slog.Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", code,
		"request_id", middleware.GetReqID(r.Context()),
	)

	message := err.Error()
	if status == http.StatusInternalServerError {
		// Internal details stay in the log.
		message = "internal server error"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message, Code: code})
}

// classify maps pipeline sentinels to an HTTP status and stable error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ingest.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, ingest.ErrValidation):
		return http.StatusBadRequest, "VALIDATION_FAILED"
	case errors.Is(err, decoder.ErrSheetNotFound):
		return http.StatusBadRequest, "SHEET_NOT_FOUND"
	case errors.Is(err, decoder.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType, "UNSUPPORTED_FORMAT"
	case errors.Is(err, decoder.ErrCorruptInput):
		return http.StatusUnprocessableEntity, "CORRUPT_FILE"
	case errors.Is(err, ingest.ErrTooManyRequests):
		return http.StatusTooManyRequests, "TOO_MANY_REQUESTS"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "TIMEOUT"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}

// writeErrorMessage writes a bare JSON error without sentinel classification.
// Used where there is no underlying error value, e.g. malformed request input.
func writeErrorMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message, Code: http.StatusText(status)})
}

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
