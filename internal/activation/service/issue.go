package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/crewdeck/crewdeck/internal/activation/domain"
	"github.com/crewdeck/crewdeck/internal/activation/store"
	"github.com/crewdeck/crewdeck/internal/activation/token"
	"github.com/crewdeck/crewdeck/pkg/idx"
	"github.com/crewdeck/crewdeck/pkg/slogx"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidIssueRequest reports malformed issuance input (bad email, missing
// identifiers). Caller's fault; not retried automatically.
var ErrInvalidIssueRequest = errors.New("invalid issue request")

var validate = validator.New(validator.WithRequiredStructEnabled())

// IssueParams describes one activation-token issuance.
type IssueParams struct {
	Email    string `validate:"required,email"`
	UserID   string `validate:"required"`
	TenantID string `validate:"required"`

	// TTL is the validity window; the service default applies when zero.
	TTL time.Duration

	// FromIP is optional audit provenance.
	FromIP string
}

// IssueService mints activation tokens and persists their verification
// records. The raw token string is returned to the caller for delivery and
// never stored; only its digest is.
type IssueService struct {
	Store      store.Store
	Codec      TokenCodec
	DefaultTTL time.Duration // falls back to token.DefaultTTL when zero

	// Now is the clock; defaults to time.Now. Injected for expiry tests.
	Now func() time.Time
}

// Issue mints a fresh activation token for the identity and records its
// digest. Any still-usable older tokens for the same (email, tenant) are
// marked used in the same transaction, so at most one usable record per
// identity survives. Returns the raw bearer token for delivery.
func (s *IssueService) Issue(ctx context.Context, p IssueParams) (string, error) {
	log := slogx.FromContext(ctx)

	// 1. Fail fast on malformed input.
	if err := validate.Struct(p); err != nil {
		log.Warn("activation issue rejected: invalid input",
			slog.String("tenant_id", p.TenantID),
		)
		return "", ErrInvalidIssueRequest
	}

	ttl := p.TTL
	if ttl <= 0 {
		ttl = s.DefaultTTL
	}
	if ttl <= 0 {
		ttl = token.DefaultTTL
	}

	// 2. Always mint a brand-new token. An existing active record cannot be
	// reused: its raw secret was discarded at issuance and only the digest
	// remains.
	now := s.now().UTC()
	raw, err := s.Codec.Encode(token.Identity{
		Email:    p.Email,
		UserID:   p.UserID,
		TenantID: p.TenantID,
	}, ttl)
	if err != nil {
		log.Error("failed to mint activation token", slog.Any("error", err))
		return "", err
	}

	rec := domain.ActivationToken{
		ID:            idx.New().String(),
		TokenDigest:   s.Codec.Digest(raw),
		Email:         p.Email,
		UserID:        p.UserID,
		TenantID:      p.TenantID,
		CreatedFromIP: p.FromIP,
		CreatedAt:     now,
		ExpiresAt:     now.Add(ttl),
	}

	// 3. Supersede and insert atomically so the at-most-one-usable invariant
	// holds at every commit point.
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		superseded, err := tx.ActivationTokens().SupersedeActiveActivationTokens(ctx, p.Email, p.TenantID, now)
		if err != nil {
			log.Error("failed to supersede active activation tokens", slog.Any("error", err))
			return err
		}
		if superseded > 0 {
			log.Debug("superseded active activation tokens",
				slog.String("tenant_id", p.TenantID),
				slog.Int64("count", superseded),
			)
		}

		if err := tx.ActivationTokens().CreateActivationToken(ctx, rec); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		// A digest collision can only come from an exact duplicate of an
		// in-flight identical issuance (the nonce rules out distinct
		// legitimate tokens colliding). The minted token is valid on its own
		// terms: its digest is already recorded.
		if errors.Is(err, store.ErrAlreadyExists) {
			log.Debug("duplicate activation token insert treated as benign",
				slog.String("tenant_id", p.TenantID),
			)
			return raw, nil
		}
		log.Error("failed to persist activation token", slog.Any("error", err))
		return "", err
	}

	log.Info("activation token issued",
		slog.String("token_id", rec.ID),
		slog.String("user_id", p.UserID),
		slog.String("tenant_id", p.TenantID),
		slog.Time("expires_at", rec.ExpiresAt),
	)

	return raw, nil
}

func (s *IssueService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
