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

// ActivationIssueHandler re-invites an existing pending account. Issuing
// supersedes any earlier unredeemed token for the same identity, so resending
// is always safe.
type ActivationIssueHandler struct {
	UserService  *service.UserService
	IssueService *service.IssueService
	Mailer       mail.Mailer

	PublicBaseURL string
	TokenTTL      time.Duration
}

func (h *ActivationIssueHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req IssueActivationRequest
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

	user, err := h.UserService.GetUserByIdentity(ctx, req.Email, req.TenantID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			httpx.WriteError(w, http.StatusNotFound,
				"not_found", "No user with this email exists for the tenant")
			return
		}
		log.Error("failed to look up user for reissue", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to issue activation token")
		return
	}
	if user.Activated() {
		httpx.WriteError(w, http.StatusConflict,
			"already_activated", "Account is already activated")
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
		if errors.Is(err, service.ErrInvalidIssueRequest) {
			httpx.WriteError(w, http.StatusBadRequest,
				"invalid_request", "Invalid issuance parameters")
			return
		}
		log.Error("failed to issue activation token", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to issue activation token")
		return
	}

	if err := h.Mailer.SendActivation(ctx, mail.Invitation{
		Email:    user.Email,
		TenantID: user.TenantID,
		Link:     activationLink(h.PublicBaseURL, raw),
		ValidFor: h.TokenTTL,
	}); err != nil {
		log.Error("failed to send activation invitation", "err", err)
		httpx.WriteError(w, http.StatusBadGateway, "delivery_failed", "Failed to send activation invitation")
		return
	}

	httpx.WriteJSON(w, http.StatusAccepted, IssueActivationResponse{Status: "sent"})
}
