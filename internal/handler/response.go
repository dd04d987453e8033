// Package handler contains the HTTP layer: request parsing, response
// writing, and nothing else. Business rules live in the service package.
//
// RESPONSE ENVELOPE:
// Every JSON response carries an "ok" flag:
//
//	success: {"ok": true, ...payload...}
//	failure: {"ok": false, "error": "<human-readable message>"}
//
// The frontend branches on "ok" and shows "error" verbatim, so error
// messages are written for people, not machines. HTTP status codes carry
// the machine-readable classification (400/401/403/404/409).
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/rp-forum/internal/apperror"
)

// writeJSON sends a JSON response with the given status code. Headers must
// be set before the first body write — hence the strict ordering here.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeOK sends a success envelope. extra fields are merged in beside "ok".
func writeOK(w http.ResponseWriter, extra map[string]any) {
	body := map[string]any{"ok": true}
	for k, v := range extra {
		body[k] = v
	}
	writeJSON(w, http.StatusOK, body)
}

// writeError maps a domain error to an HTTP status and the failure envelope.
//
// errors.Is walks the wrap chain (AppError implements Unwrap), so services
// can wrap repository errors freely and the classification still comes
// through. Anything that isn't an AppError is an internal failure: log-only,
// generic message — raw error strings can leak SQL or file paths.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
		}

		writeJSON(w, status, map[string]any{"ok": false, "error": appErr.Message})
		return
	}

	slog.Error("internal error", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, map[string]any{
		"ok":    false,
		"error": "An internal error occurred",
	})
}

// decodeJSON parses the request body into dst, translating malformed input
// into a validation error so handlers can hand it straight to writeError.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.ValidationFailed("", "Expected JSON body")
	}
	return nil
}
