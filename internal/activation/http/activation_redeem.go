package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/crewdeck/crewdeck/internal/activation/service"
	"github.com/crewdeck/crewdeck/pkg/httpx"
	"github.com/crewdeck/crewdeck/pkg/slogx"
)

// ActivationRedeemHandler consumes an activation token and completes the
// account: the token is burnt first, then the password is set and the user
// marked active.
type ActivationRedeemHandler struct {
	RedeemService *service.RedeemService
	UserService   *service.UserService
}

func (h *ActivationRedeemHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req RedeemActivationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if req.Token == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "token is required")
		return
	}
	if len(req.Password) < 12 {
		httpx.WriteError(w, http.StatusBadRequest,
			"invalid_request", "password must be at least 12 characters")
		return
	}

	id, err := h.RedeemService.Redeem(ctx, req.Token, httpx.IPKeyExtractor(r))
	if err != nil {
		writeActivationError(w, err)
		return
	}

	user, err := h.UserService.CompleteActivation(ctx, id.UserID, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			// Token was valid but its account is gone. The token is already
			// consumed; a fresh provision is the only way forward.
			httpx.WriteError(w, http.StatusConflict,
				"user_missing", "The account for this activation no longer exists")
			return
		}
		log.Error("failed to complete activation", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to complete activation")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, RedeemActivationResponse{
		UserID:      user.ID,
		Email:       user.Email,
		TenantID:    user.TenantID,
		ActivatedAt: user.ActivatedAt,
	})
}
