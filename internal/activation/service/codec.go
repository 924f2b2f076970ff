package service

import (
	"time"

	"github.com/crewdeck/crewdeck/internal/activation/token"
)

// TokenCodec is the slice of the token codec the managers consume. Kept as an
// interface so tests can substitute deterministic encoders.
type TokenCodec interface {
	Encode(id token.Identity, ttl time.Duration) (string, error)
	Decode(raw string) (token.Claims, error)
	Digest(raw string) string
}
