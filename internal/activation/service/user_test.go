package service

import (
	"context"
	"testing"
	"time"

	"github.com/crewdeck/crewdeck/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestProvisionUser(t *testing.T) {
	svc := &UserService{Store: newTestStore(t)}
	ctx := context.Background()

	u, err := svc.ProvisionUser(ctx, "a@x.com", "t1")
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)
	require.Equal(t, "a@x.com", u.Email)
	require.Equal(t, "t1", u.TenantID)
	require.False(t, u.Activated())
	require.Empty(t, u.PasswordHash)

	got, err := svc.GetUser(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
}

func TestProvisionUserRejectsDuplicateIdentity(t *testing.T) {
	svc := &UserService{Store: newTestStore(t)}
	ctx := context.Background()

	_, err := svc.ProvisionUser(ctx, "a@x.com", "t1")
	require.NoError(t, err)

	_, err = svc.ProvisionUser(ctx, "a@x.com", "t1")
	require.ErrorIs(t, err, ErrUserAlreadyExists)

	// Same email under a different tenant is a distinct identity.
	_, err = svc.ProvisionUser(ctx, "a@x.com", "t2")
	require.NoError(t, err)
}

func TestGetUserByIdentity(t *testing.T) {
	svc := &UserService{Store: newTestStore(t)}
	ctx := context.Background()

	created, err := svc.ProvisionUser(ctx, "a@x.com", "t1")
	require.NoError(t, err)

	got, err := svc.GetUserByIdentity(ctx, "a@x.com", "t1")
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)

	_, err = svc.GetUserByIdentity(ctx, "a@x.com", "t2")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestCompleteActivation(t *testing.T) {
	at := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	svc := &UserService{
		Store: newTestStore(t),
		Now:   func() time.Time { return at },
	}
	ctx := context.Background()

	u, err := svc.ProvisionUser(ctx, "a@x.com", "t1")
	require.NoError(t, err)

	activated, err := svc.CompleteActivation(ctx, u.ID, "correct horse battery staple")
	require.NoError(t, err)
	require.True(t, activated.Activated())
	require.NotNil(t, activated.ActivatedAt)
	require.True(t, activated.ActivatedAt.Equal(at))

	require.NoError(t, cryptox.VerifyPassword("correct horse battery staple", activated.PasswordHash))
}

func TestCompleteActivationUnknownUser(t *testing.T) {
	svc := &UserService{Store: newTestStore(t)}

	_, err := svc.CompleteActivation(context.Background(), "no-such-user", "pw")
	require.ErrorIs(t, err, ErrUserNotFound)
}
