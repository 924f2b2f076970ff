package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/crewdeck/crewdeck/internal/activation/mail"
	"github.com/crewdeck/crewdeck/internal/activation/service"
	"github.com/crewdeck/crewdeck/pkg/httpx"
	"github.com/crewdeck/crewdeck/pkg/slogx"
)

// UsersProvisionHandler creates a pending account and sends its first
// activation invitation in one step. Internal endpoint; callers are other
// backend services, not end users.
type UsersProvisionHandler struct {
	UserService  *service.UserService
	IssueService *service.IssueService
	Mailer       mail.Mailer

	// PublicBaseURL is the externally reachable origin the activation link
	// points at, e.g. "https://app.example.com".
	PublicBaseURL string
	TokenTTL      time.Duration
}

func (h *UsersProvisionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req ProvisionUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if req.Email == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "email is required")
		return
	}
	if req.TenantID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "tenant_id is required")
		return
	}

	user, err := h.UserService.ProvisionUser(ctx, req.Email, req.TenantID)
	if err != nil {
		if errors.Is(err, service.ErrUserAlreadyExists) {
			httpx.WriteError(w, http.StatusConflict,
				"already_exists", "A user with this email already exists for the tenant")
			return
		}
		log.Error("failed to provision user", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to provision user")
		return
	}

	raw, err := h.IssueService.Issue(ctx, service.IssueParams{
		Email:    user.Email,
		UserID:   user.ID,
		TenantID: user.TenantID,
		TTL:      h.TokenTTL,
		FromIP:   httpx.IPKeyExtractor(r),
	})
	if err != nil {
		log.Error("failed to issue activation token for new user", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to issue activation token")
		return
	}

	if err := h.Mailer.SendActivation(ctx, mail.Invitation{
		Email:    user.Email,
		TenantID: user.TenantID,
		Link:     activationLink(h.PublicBaseURL, raw),
		ValidFor: h.TokenTTL,
	}); err != nil {
		// The account and token exist; delivery can be retried via the
		// reissue endpoint. Surface the failure rather than pretending.
		log.Error("failed to send activation invitation", "err", err)
		httpx.WriteError(w, http.StatusBadGateway, "delivery_failed", "Failed to send activation invitation")
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, ProvisionUserResponse{
		UserID:   user.ID,
		Email:    user.Email,
		TenantID: user.TenantID,
	})
}
