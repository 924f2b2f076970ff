package store

import (
	"context"
	"errors"
	"time"

	"github.com/crewdeck/crewdeck/internal/activation/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite today)
// implement this. Sub-repositories are exposed as methods so transactional
// scoping stays explicit at call sites.
type Store interface {
	ActivationTokens() ActivationTokens
	Users() Users

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction: rolled back if fn errors,
	// committed otherwise. This is the recommended way to run multi-step
	// operations that must be atomic (e.g. supersede + insert on reissue).
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type ActivationTokens interface {
	// CreateActivationToken inserts a new verification record. The token_digest
	// column carries a uniqueness constraint; inserting a duplicate digest
	// returns ErrAlreadyExists.
	CreateActivationToken(ctx context.Context, t domain.ActivationToken) error

	// GetActivationTokenByDigest is the point lookup used during validation.
	GetActivationTokenByDigest(ctx context.Context, digest string) (domain.ActivationToken, error)

	// GetActiveActivationToken returns the not-used, not-expired record for an
	// identity, or ErrNotFound.
	GetActiveActivationToken(ctx context.Context, email, tenantID string, now time.Time) (domain.ActivationToken, error)

	// SupersedeActiveActivationTokens marks every still-usable record for the
	// identity as used in one bulk conditional update and reports how many
	// rows it touched.
	SupersedeActiveActivationTokens(ctx context.Context, email, tenantID string, now time.Time) (int64, error)

	// ConsumeActivationToken flips used=false to used=true for the record with
	// the given digest in a single conditional update, recording usedAt and
	// provenance. It reports whether this call performed the transition; false
	// means another caller got there first (or the record is already used).
	ConsumeActivationToken(ctx context.Context, digest string, usedAt time.Time, usedFromIP string) (bool, error)

	// DeleteExpiredActivationTokens is housekeeping; removes records whose
	// expiry has passed.
	DeleteExpiredActivationTokens(ctx context.Context, now time.Time) error
}

type Users interface {
	// CreateUser inserts a new pending user (id is provided by app via ULID).
	// (email, tenant_id) is unique; duplicates return ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) error

	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmailAndTenant looks up the tenant-scoped account.
	GetUserByEmailAndTenant(ctx context.Context, email, tenantID string) (domain.User, error)

	// ActivateUser sets the password hash and activated_at, bumps updated_at.
	ActivateUser(ctx context.Context, userID, passwordHash string, now time.Time) error
}
