package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"kintone-catalog/internal/middleware"
	"kintone-catalog/internal/model"

	"github.com/rs/zerolog"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes an error envelope with the given status code. detail is
// either a message or an upstream JSON error document.
func writeError(w http.ResponseWriter, r *http.Request, status int, detail any, logger zerolog.Logger) {
	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.
		Str("request_id", middleware.GetRequestID(r.Context())).
		Interface("error", detail).
		Int("status", status).
		Msg("handler error")
	writeJSON(w, status, model.ErrorEnvelope{OK: false, Error: detail})
}

// writeServiceError maps a service error onto the error envelope: client
// input errors become 400, upstream errors keep the upstream status when
// there is one, anything else is reported with fallback.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback int, logger zerolog.Logger) {
	var domainErr *model.DomainError
	if errors.As(err, &domainErr) {
		writeError(w, r, http.StatusBadRequest, domainErr.Message, logger)
		return
	}

	var upstreamErr *model.UpstreamError
	if errors.As(err, &upstreamErr) {
		writeError(w, r, upstreamErr.StatusOr(fallback), upstreamErr.Detail(), logger)
		return
	}

	writeError(w, r, fallback, err.Error(), logger)
}

// NotFound answers unmatched API routes with a JSON 404 so they never fall
// through to the frontend.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, model.ErrorEnvelope{OK: false, Error: "Not Found"})
}

// MethodNotAllowed answers API routes called with an unsupported method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, model.ErrorEnvelope{OK: false, Error: "method not allowed"})
}
