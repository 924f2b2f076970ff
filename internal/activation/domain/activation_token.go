package domain

import "time"

// ActivationToken is the persisted verification record for an issued
// activation token. TokenDigest is the only artifact derived from the bearer
// secret that is ever stored; the raw token cannot be reconstructed from it.
//
// The (Email, UserID, TenantID) triple is immutable once set. At most one
// record per (Email, TenantID) may be usable (not used, not expired) at a
// time; issuing a replacement marks the older records used.
type ActivationToken struct {
	ID            string
	TokenDigest   string
	Email         string
	UserID        string
	TenantID      string
	Used          bool
	UsedAt        *time.Time // nil until redeemed or superseded
	CreatedFromIP string     // audit provenance, may be empty
	UsedFromIP    string
	CreatedAt     time.Time
	ExpiresAt     time.Time
}

// Usable reports whether the record can still satisfy a redemption at the
// given instant.
func (t ActivationToken) Usable(now time.Time) bool {
	return !t.Used && now.Before(t.ExpiresAt)
}
