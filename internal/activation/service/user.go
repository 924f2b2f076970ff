package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/crewdeck/crewdeck/internal/activation/domain"
	"github.com/crewdeck/crewdeck/internal/activation/store"
	"github.com/crewdeck/crewdeck/pkg/cryptox"
	"github.com/crewdeck/crewdeck/pkg/idx"
	"github.com/crewdeck/crewdeck/pkg/slogx"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists for this tenant")
	ErrUserNotFound      = errors.New("user not found")
)

// UserService provisions pending accounts and completes their activation.
type UserService struct {
	Store store.Store

	// Now is the clock; defaults to time.Now.
	Now func() time.Time
}

// ProvisionUser creates a pending (not yet activated) account for the
// tenant. The activation token that unlocks it is issued separately.
func (s *UserService) ProvisionUser(ctx context.Context, email, tenantID string) (domain.User, error) {
	log := slogx.FromContext(ctx)

	now := s.now().UTC()
	u := domain.User{
		ID:        idx.New().String(),
		Email:     email,
		TenantID:  tenantID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			log.Warn("attempted to provision duplicate user",
				slog.String("tenant_id", tenantID),
			)
			return domain.User{}, ErrUserAlreadyExists
		}
		log.Error("failed to create user", slog.Any("error", err))
		return domain.User{}, err
	}

	log.Info("user provisioned",
		slog.String("user_id", u.ID),
		slog.String("tenant_id", tenantID),
	)

	return u, nil
}

// GetUser returns the account by id.
func (s *UserService) GetUser(ctx context.Context, userID string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return u, nil
}

// GetUserByIdentity returns the tenant-scoped account for an email.
func (s *UserService) GetUserByIdentity(ctx context.Context, email, tenantID string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByEmailAndTenant(ctx, email, tenantID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return u, nil
}

// CompleteActivation hashes the chosen password with Argon2id and marks the
// account activated. Called by the activation handler after a successful
// token redemption.
func (s *UserService) CompleteActivation(ctx context.Context, userID, password string) (domain.User, error) {
	log := slogx.FromContext(ctx)

	passwordHash, err := cryptox.HashPassword(password)
	if err != nil {
		log.Error("failed to hash password", slog.Any("error", err))
		return domain.User{}, err
	}

	now := s.now().UTC()
	if err := s.Store.Users().ActivateUser(ctx, userID, passwordHash, now); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		log.Error("failed to activate user", slog.Any("error", err))
		return domain.User{}, err
	}

	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}

	log.Info("user activated",
		slog.String("user_id", userID),
		slog.String("tenant_id", u.TenantID),
	)

	return u, nil
}

func (s *UserService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
