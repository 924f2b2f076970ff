package cryptox

import (
	"crypto/sha256"
	"encoding/base64"
)

// Fingerprint returns a deterministic SHA-256 digest of a secret string,
// base64url-encoded (43 chars). It is the only artifact derived from a bearer
// token that may ever be persisted: lookups and equality checks go through the
// fingerprint, the raw secret is never written down.
func Fingerprint(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
