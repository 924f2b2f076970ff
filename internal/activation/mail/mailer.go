package mail

import (
	"context"
	"log/slog"
	"time"
)

// Invitation carries everything an activation email needs. The Link embeds
// the raw bearer token, so implementations must treat it as a secret.
type Invitation struct {
	Email    string
	TenantID string
	Link     string
	ValidFor time.Duration
}

// Mailer delivers activation invitations. Implementations own templating and
// transport; callers only decide when to send.
type Mailer interface {
	SendActivation(ctx context.Context, inv Invitation) error
}

// LogMailer writes invitations to the structured log instead of sending
// email. Used in development and as the default until an SMTP transport is
// configured. It deliberately logs the recipient but never the link.
type LogMailer struct {
	Logger *slog.Logger
}

func (m *LogMailer) SendActivation(_ context.Context, inv Invitation) error {
	m.Logger.Info("activation invitation (log delivery)",
		slog.String("email", inv.Email),
		slog.String("tenant_id", inv.TenantID),
		slog.Duration("valid_for", inv.ValidFor),
	)
	return nil
}
