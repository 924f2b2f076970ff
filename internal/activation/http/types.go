package http

import "time"

// Request and response payloads for the activation HTTP surface. All bodies
// are JSON; error payloads use httpx.ErrorResponse.

type ProvisionUserRequest struct {
	Email    string `json:"email"`
	TenantID string `json:"tenant_id"`
}

type ProvisionUserResponse struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	TenantID string `json:"tenant_id"`
}

type IssueActivationRequest struct {
	Email    string `json:"email"`
	TenantID string `json:"tenant_id"`
}

type IssueActivationResponse struct {
	Status string `json:"status"`
}

type InspectActivationResponse struct {
	Email    string `json:"email"`
	UserID   string `json:"user_id"`
	TenantID string `json:"tenant_id"`
}

type RedeemActivationRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type RedeemActivationResponse struct {
	UserID      string     `json:"user_id"`
	Email       string     `json:"email"`
	TenantID    string     `json:"tenant_id"`
	ActivatedAt *time.Time `json:"activated_at,omitempty"`
}

type HealthChecks struct {
	Database string `json:"database"`
}

type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}
