package http

import (
	"errors"
	"net/http"

	"github.com/crewdeck/crewdeck/internal/activation/service"
	"github.com/crewdeck/crewdeck/pkg/httpx"
)

// writeActivationError maps the redemption sentinel errors onto distinct
// wire codes so callers can tell a stale link from a consumed one.
func writeActivationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrActivationInvalid):
		httpx.WriteError(w, http.StatusBadRequest,
			"invalid_token", "Activation token is malformed, unverifiable, or expired")
	case errors.Is(err, service.ErrActivationNotFound):
		httpx.WriteError(w, http.StatusBadRequest,
			"not_found", "Activation token is not recognised")
	case errors.Is(err, service.ErrActivationAlreadyUsed):
		httpx.WriteError(w, http.StatusConflict,
			"already_used", "Activation token has already been used or superseded")
	case errors.Is(err, service.ErrActivationExpired):
		httpx.WriteError(w, http.StatusBadRequest,
			"expired", "Activation token has expired; request a new invitation")
	case errors.Is(err, service.ErrActivationMismatch):
		httpx.WriteError(w, http.StatusBadRequest,
			"mismatch", "Activation token does not match its issuance record")
	default:
		httpx.WriteError(w, http.StatusInternalServerError,
			"server_error", "Failed to process activation token")
	}
}
