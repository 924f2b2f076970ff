package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/crewdeck/crewdeck/internal/activation/domain"
	"github.com/crewdeck/crewdeck/internal/activation/store"
	"github.com/crewdeck/crewdeck/internal/activation/token"
	"github.com/crewdeck/crewdeck/pkg/slogx"
)

var (
	// ErrActivationInvalid reports a token failing structural, signature, or
	// embedded-expiry verification.
	ErrActivationInvalid = errors.New("activation token invalid or expired")

	// ErrActivationNotFound reports a well-formed token with no persisted record.
	ErrActivationNotFound = errors.New("activation token not found")

	// ErrActivationAlreadyUsed reports a token whose record was consumed or
	// superseded.
	ErrActivationAlreadyUsed = errors.New("activation token already used")

	// ErrActivationExpired reports a record past its store-side expiry.
	ErrActivationExpired = errors.New("activation token expired")

	// ErrActivationMismatch reports claims that disagree with the persisted
	// identity triple.
	ErrActivationMismatch = errors.New("activation token does not match its record")
)

// RedeemService validates presented activation tokens and consumes them
// exactly once.
type RedeemService struct {
	Store store.Store
	Codec TokenCodec

	// Now is the clock; defaults to time.Now. Injected for expiry tests.
	Now func() time.Time
}

// Inspect verifies a presented token without mutating anything: signature and
// claim shape via the codec, then existence, usability, store-side expiry,
// and identity consistency against the persisted record. Returns the bound
// identity on success.
func (s *RedeemService) Inspect(ctx context.Context, raw string) (token.Identity, error) {
	claims, _, err := s.check(ctx, raw)
	if err != nil {
		return token.Identity{}, err
	}
	return claims.Identity(), nil
}

// Redeem runs the same checks as Inspect and then transitions the record from
// usable to consumed in a single conditional store update. Under concurrent
// redemption of the same token exactly one caller receives the identity; all
// others get ErrActivationAlreadyUsed.
func (s *RedeemService) Redeem(ctx context.Context, raw, usedFromIP string) (token.Identity, error) {
	log := slogx.FromContext(ctx)

	claims, rec, err := s.check(ctx, raw)
	if err != nil {
		return token.Identity{}, err
	}

	consumed, err := s.Store.ActivationTokens().ConsumeActivationToken(ctx, rec.TokenDigest, s.now().UTC(), usedFromIP)
	if err != nil {
		log.Error("failed to consume activation token", slog.Any("error", err))
		return token.Identity{}, err
	}
	if !consumed {
		// The pre-check passed but another redemption won the conditional
		// update. This closes the race window between check and mutation.
		log.Warn("concurrent redemption lost the consume race",
			slog.String("token_id", rec.ID),
		)
		return token.Identity{}, ErrActivationAlreadyUsed
	}

	log.Info("activation token redeemed",
		slog.String("token_id", rec.ID),
		slog.String("user_id", rec.UserID),
		slog.String("tenant_id", rec.TenantID),
	)

	return claims.Identity(), nil
}

// check performs the five read-only verification steps shared by Inspect and
// Redeem.
func (s *RedeemService) check(ctx context.Context, raw string) (token.Claims, domain.ActivationToken, error) {
	log := slogx.FromContext(ctx)

	claims, err := s.Codec.Decode(raw)
	if err != nil {
		log.Warn("activation token failed verification")
		return token.Claims{}, domain.ActivationToken{}, ErrActivationInvalid
	}

	rec, err := s.Store.ActivationTokens().GetActivationTokenByDigest(ctx, s.Codec.Digest(raw))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return token.Claims{}, domain.ActivationToken{}, ErrActivationNotFound
		}
		log.Error("failed to fetch activation token record", slog.Any("error", err))
		return token.Claims{}, domain.ActivationToken{}, err
	}

	if rec.Used {
		return token.Claims{}, domain.ActivationToken{}, ErrActivationAlreadyUsed
	}

	// Store-side expiry is checked independently of the token's embedded
	// expiry as defence in depth.
	if !s.now().UTC().Before(rec.ExpiresAt) {
		return token.Claims{}, domain.ActivationToken{}, ErrActivationExpired
	}

	id := claims.Identity()
	if id.Email != rec.Email || id.UserID != rec.UserID || id.TenantID != rec.TenantID {
		// Structurally valid token pointing at a record for someone else.
		log.Warn("activation token claims disagree with stored record",
			slog.String("token_id", rec.ID),
		)
		return token.Claims{}, domain.ActivationToken{}, ErrActivationMismatch
	}

	return claims, rec, nil
}

func (s *RedeemService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
