package http

import (
	"net/http"

	"github.com/crewdeck/crewdeck/internal/activation/service"
	"github.com/crewdeck/crewdeck/pkg/httpx"
)

// ActivationInspectHandler lets the activation page verify a token and
// display who it is for before the user commits to a password. Read-only;
// the token stays redeemable afterwards.
type ActivationInspectHandler struct {
	RedeemService *service.RedeemService
}

func (h *ActivationInspectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("token")
	if raw == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "token is required")
		return
	}

	id, err := h.RedeemService.Inspect(r.Context(), raw)
	if err != nil {
		writeActivationError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, InspectActivationResponse{
		Email:    id.Email,
		UserID:   id.UserID,
		TenantID: id.TenantID,
	})
}
