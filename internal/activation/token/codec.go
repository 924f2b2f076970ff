package token

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/crewdeck/crewdeck/pkg/cryptox"
	"github.com/golang-jwt/jwt/v5"
)

// Purpose is the claim discriminator for account-activation tokens. Tokens
// signed with the same key for any other purpose are rejected at decode time.
const Purpose = "account_activation"

// DefaultTTL is the validity window applied when the caller does not specify one.
const DefaultTTL = 48 * time.Hour

const minKeyBytes = 32

var (
	// ErrInvalidToken reports a token that fails structural, signature,
	// purpose, or embedded-expiry verification. Terminal for that token.
	ErrInvalidToken = errors.New("token: invalid or expired")

	// ErrKeyTooShort reports signing key material below the HS256 floor.
	ErrKeyTooShort = fmt.Errorf("token: signing key must be at least %d bytes", minKeyBytes)
)

// Identity is the account an activation token authorizes.
type Identity struct {
	Email    string
	UserID   string
	TenantID string
}

// Claims is the signed payload of an activation token. The registered subject
// carries the user ID and the registered ID (jti) carries a random nonce, so
// two tokens minted for the same identity in the same instant still produce
// distinct signed strings and therefore distinct digests.
type Claims struct {
	jwt.RegisteredClaims

	Email    string `json:"email"`
	TenantID string `json:"tenant_id"`
	Purpose  string `json:"purpose"`
}

// Identity extracts the account triple from the claims.
func (c Claims) Identity() Identity {
	return Identity{Email: c.Email, UserID: c.Subject, TenantID: c.TenantID}
}

// Nonce returns the random uniqueness claim.
func (c Claims) Nonce() string { return c.ID }

// Codec encodes and verifies activation tokens with an injected symmetric
// key. It is stateless; persistence and revocation checks live with the
// redemption service, so signature verification stays independently testable.
type Codec struct {
	key []byte
	now func() time.Time
}

// NewCodec builds a Codec from signing key material. The key must be stable
// across process restarts or every outstanding token dies with the process.
func NewCodec(key []byte) (*Codec, error) {
	if len(key) < minKeyBytes {
		return nil, ErrKeyTooShort
	}

	k := make([]byte, len(key))
	copy(k, key)

	return &Codec{key: k, now: time.Now}, nil
}

// Encode mints a signed activation token for the identity, valid for ttl
// (DefaultTTL when ttl <= 0). Pure over its inputs plus a fresh nonce and the
// clock.
func (c *Codec) Encode(id Identity, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	now := c.now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			ID:        newNonce(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email:    id.Email,
		TenantID: id.TenantID,
		Purpose:  Purpose,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// Decode verifies structure, signature, and embedded expiry, and rejects
// tokens whose purpose is not account activation. It performs no store
// lookups.
func (c *Codec) Decode(raw string) (Claims, error) {
	var claims Claims

	_, err := jwt.ParseWithClaims(raw, &claims,
		func(t *jwt.Token) (any, error) { return c.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if claims.Purpose != Purpose {
		return Claims{}, fmt.Errorf("%w: wrong purpose", ErrInvalidToken)
	}
	if claims.Email == "" || claims.Subject == "" || claims.TenantID == "" {
		return Claims{}, fmt.Errorf("%w: missing identity claims", ErrInvalidToken)
	}

	return claims, nil
}

// Digest returns the deterministic one-way digest of a token string, used for
// store lookups and equality. Never reversible into the secret.
func (c *Codec) Digest(raw string) string {
	return cryptox.Fingerprint(raw)
}

// newNonce returns a URL-safe random uniqueness claim (160 bits).
func newNonce() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}
