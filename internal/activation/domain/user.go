package domain

import "time"

// User is a tenant-scoped account. Provisioned users start without a password
// and with a nil ActivatedAt; redeeming an activation token sets both.
type User struct {
	ID           string
	Email        string
	TenantID     string
	PasswordHash string
	ActivatedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Activated reports whether the account has completed activation.
func (u User) Activated() bool { return u.ActivatedAt != nil }
