package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/crewdeck/crewdeck/internal/activation/domain"
)

type activationTokensRepo struct {
	db dbtx
}

func (r *activationTokensRepo) CreateActivationToken(ctx context.Context, t domain.ActivationToken) error {
	const q = `
		INSERT INTO activation_tokens (
			id, token_digest, email, user_id, tenant_id,
			used, used_at, created_from_ip, used_from_ip,
			created_at, expires_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, q,
		t.ID,
		t.TokenDigest,
		t.Email,
		t.UserID,
		t.TenantID,
		t.Used,
		mapOptionalTime(t.UsedAt),
		mapStringNull(t.CreatedFromIP),
		mapStringNull(t.UsedFromIP),
		t.CreatedAt.UTC(),
		t.ExpiresAt.UTC(),
	)
	if err != nil {
		return mapConstraint(err)
	}
	return nil
}

func (r *activationTokensRepo) GetActivationTokenByDigest(ctx context.Context, digest string) (domain.ActivationToken, error) {
	const q = `
		SELECT id, token_digest, email, user_id, tenant_id,
		       used, used_at, created_from_ip, used_from_ip,
		       created_at, expires_at
		FROM activation_tokens
		WHERE token_digest = ?
	`

	return scanActivationToken(r.db.QueryRowContext(ctx, q, digest))
}

func (r *activationTokensRepo) GetActiveActivationToken(ctx context.Context, email, tenantID string, now time.Time) (domain.ActivationToken, error) {
	const q = `
		SELECT id, token_digest, email, user_id, tenant_id,
		       used, used_at, created_from_ip, used_from_ip,
		       created_at, expires_at
		FROM activation_tokens
		WHERE email = ? AND tenant_id = ? AND used = 0 AND expires_at > ?
		ORDER BY created_at DESC
		LIMIT 1
	`

	return scanActivationToken(r.db.QueryRowContext(ctx, q, email, tenantID, now.UTC()))
}

func (r *activationTokensRepo) SupersedeActiveActivationTokens(ctx context.Context, email, tenantID string, now time.Time) (int64, error) {
	const q = `
		UPDATE activation_tokens
		SET used = 1, used_at = ?
		WHERE email = ? AND tenant_id = ? AND used = 0 AND expires_at > ?
	`

	res, err := r.db.ExecContext(ctx, q, now.UTC(), email, tenantID, now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ConsumeActivationToken is the single compare-and-set transition of the
// record lifecycle. The WHERE used = 0 guard makes concurrent redemption
// attempts race on the database, not in application code: exactly one update
// reports an affected row.
func (r *activationTokensRepo) ConsumeActivationToken(ctx context.Context, digest string, usedAt time.Time, usedFromIP string) (bool, error) {
	const q = `
		UPDATE activation_tokens
		SET used = 1, used_at = ?, used_from_ip = ?
		WHERE token_digest = ? AND used = 0
	`

	res, err := r.db.ExecContext(ctx, q, usedAt.UTC(), mapStringNull(usedFromIP), digest)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *activationTokensRepo) DeleteExpiredActivationTokens(ctx context.Context, now time.Time) error {
	const q = `DELETE FROM activation_tokens WHERE expires_at <= ?`

	_, err := r.db.ExecContext(ctx, q, now.UTC())
	return err
}

func scanActivationToken(row *sql.Row) (domain.ActivationToken, error) {
	var (
		t             domain.ActivationToken
		usedAt        sql.NullTime
		createdFromIP sql.NullString
		usedFromIP    sql.NullString
	)

	err := row.Scan(
		&t.ID,
		&t.TokenDigest,
		&t.Email,
		&t.UserID,
		&t.TenantID,
		&t.Used,
		&usedAt,
		&createdFromIP,
		&usedFromIP,
		&t.CreatedAt,
		&t.ExpiresAt,
	)
	if err != nil {
		return domain.ActivationToken{}, mapNotFound(err)
	}

	t.UsedAt = mapNullTimePtr(usedAt)
	t.CreatedFromIP = mapNullString(createdFromIP)
	t.UsedFromIP = mapNullString(usedFromIP)
	return t, nil
}
