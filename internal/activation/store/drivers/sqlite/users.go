package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/crewdeck/crewdeck/internal/activation/domain"
)

type usersRepo struct {
	db dbtx
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	const q = `
		INSERT INTO users (id, email, tenant_id, password_hash, activated_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, q,
		u.ID,
		u.Email,
		u.TenantID,
		u.PasswordHash,
		mapOptionalTime(u.ActivatedAt),
		u.CreatedAt.UTC(),
		u.UpdatedAt.UTC(),
	)
	if err != nil {
		return mapConstraint(err)
	}
	return nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	const q = `
		SELECT id, email, tenant_id, password_hash, activated_at, created_at, updated_at
		FROM users
		WHERE id = ?
	`

	return scanUser(r.db.QueryRowContext(ctx, q, id))
}

func (r *usersRepo) GetUserByEmailAndTenant(ctx context.Context, email, tenantID string) (domain.User, error) {
	const q = `
		SELECT id, email, tenant_id, password_hash, activated_at, created_at, updated_at
		FROM users
		WHERE email = ? AND tenant_id = ?
	`

	return scanUser(r.db.QueryRowContext(ctx, q, email, tenantID))
}

func (r *usersRepo) ActivateUser(ctx context.Context, userID, passwordHash string, now time.Time) error {
	const q = `
		UPDATE users
		SET password_hash = ?, activated_at = ?, updated_at = ?
		WHERE id = ?
	`

	res, err := r.db.ExecContext(ctx, q, passwordHash, now.UTC(), now.UTC(), userID)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return mapNotFound(sql.ErrNoRows)
	}
	return nil
}

func scanUser(row *sql.Row) (domain.User, error) {
	var (
		u           domain.User
		activatedAt sql.NullTime
	)

	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.TenantID,
		&u.PasswordHash,
		&activatedAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}

	u.ActivatedAt = mapNullTimePtr(activatedAt)
	return u, nil
}
