package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gnomonworks/sundial-forge/core"
	"github.com/gnomonworks/sundial-forge/internal/export"
	"github.com/gnomonworks/sundial-forge/model"
	"github.com/gnomonworks/sundial-forge/sites"
)

// errorBody is the envelope every failed request returns.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// statusFor maps domain errors onto HTTP status codes and a stable
// machine-readable code symbol.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, model.ErrInvalidParameter):
		return http.StatusBadRequest, "invalid_argument"

	case errors.Is(err, sites.ErrSiteNotFound):
		return http.StatusNotFound, "not_found"

	case errors.Is(err, sites.ErrSiteExists):
		return http.StatusConflict, "already_exists"

	case errors.Is(err, core.ErrInvalidState):
		return http.StatusConflict, "invalid_state"

	case errors.Is(err, core.ErrNoReadableSamples):
		return http.StatusUnprocessableEntity, "no_readable_samples"

	case errors.Is(err, export.ErrUnsupportedFormat):
		return http.StatusUnprocessableEntity, "unsupported_format"

	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "unavailable"

	default:
		return http.StatusInternalServerError, "internal"
	}
}

// writeError renders err as the JSON error envelope with its mapped status.
func writeError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	writeJSON(w, status, errorBody{Error: err.Error(), Code: code})
}

// writeJSON renders v with the given status. Encode failures are not
// recoverable once the header is on the wire.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
