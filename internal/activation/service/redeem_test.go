package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/crewdeck/crewdeck/internal/activation/domain"
	"github.com/crewdeck/crewdeck/internal/activation/store"
	"github.com/crewdeck/crewdeck/internal/activation/token"
	"github.com/crewdeck/crewdeck/pkg/idx"
	"github.com/stretchr/testify/require"
)

// issueAndRedeemServices wires an issue and a redeem service over the same
// in-memory store and codec.
func issueAndRedeemServices(t *testing.T) (*IssueService, *RedeemService, store.Store, *token.Codec) {
	t.Helper()

	st := newTestStore(t)
	codec := newTestCodec(t)
	issue := &IssueService{Store: st, Codec: codec}
	redeem := &RedeemService{Store: st, Codec: codec}
	return issue, redeem, st, codec
}

func TestInspectReturnsBoundIdentity(t *testing.T) {
	issue, redeem, _, _ := issueAndRedeemServices(t)
	ctx := context.Background()

	raw, err := issue.Issue(ctx, validIssueParams())
	require.NoError(t, err)

	id, err := redeem.Inspect(ctx, raw)
	require.NoError(t, err)
	require.Equal(t, token.Identity{Email: "a@x.com", UserID: "u1", TenantID: "t1"}, id)
}

func TestInspectDoesNotConsume(t *testing.T) {
	issue, redeem, _, _ := issueAndRedeemServices(t)
	ctx := context.Background()

	raw, err := issue.Issue(ctx, validIssueParams())
	require.NoError(t, err)

	for range 3 {
		_, err := redeem.Inspect(ctx, raw)
		require.NoError(t, err)
	}

	// Still redeemable after repeated inspection.
	_, err = redeem.Redeem(ctx, raw, "203.0.113.9")
	require.NoError(t, err)
}

func TestRedeemConsumesExactlyOnce(t *testing.T) {
	issue, redeem, st, codec := issueAndRedeemServices(t)
	ctx := context.Background()

	raw, err := issue.Issue(ctx, validIssueParams())
	require.NoError(t, err)

	id, err := redeem.Redeem(ctx, raw, "203.0.113.9")
	require.NoError(t, err)
	require.Equal(t, "u1", id.UserID)

	rec, err := st.ActivationTokens().GetActivationTokenByDigest(ctx, codec.Digest(raw))
	require.NoError(t, err)
	require.True(t, rec.Used)
	require.NotNil(t, rec.UsedAt)
	require.Equal(t, "203.0.113.9", rec.UsedFromIP)

	_, err = redeem.Redeem(ctx, raw, "203.0.113.9")
	require.ErrorIs(t, err, ErrActivationAlreadyUsed)

	_, err = redeem.Inspect(ctx, raw)
	require.ErrorIs(t, err, ErrActivationAlreadyUsed)
}

func TestRedeemRejectsUnverifiableTokens(t *testing.T) {
	_, redeem, _, _ := issueAndRedeemServices(t)
	ctx := context.Background()

	for _, raw := range []string{"", "garbage", "a.b.c", "header.payload"} {
		_, err := redeem.Redeem(ctx, raw, "")
		require.ErrorIs(t, err, ErrActivationInvalid)
	}

	// Valid shape but signed with a different key.
	foreign, err := token.NewCodec([]byte("ffffffffffffffffffffffffffffffff"))
	require.NoError(t, err)
	raw, err := foreign.Encode(token.Identity{Email: "a@x.com", UserID: "u1", TenantID: "t1"}, time.Hour)
	require.NoError(t, err)

	_, err = redeem.Redeem(ctx, raw, "")
	require.ErrorIs(t, err, ErrActivationInvalid)
}

func TestRedeemRejectsUnknownToken(t *testing.T) {
	_, redeem, _, codec := issueAndRedeemServices(t)
	ctx := context.Background()

	// Verifiable token that never went through issuance, so no record exists.
	raw, err := codec.Encode(token.Identity{Email: "a@x.com", UserID: "u1", TenantID: "t1"}, time.Hour)
	require.NoError(t, err)

	_, err = redeem.Inspect(ctx, raw)
	require.ErrorIs(t, err, ErrActivationNotFound)

	_, err = redeem.Redeem(ctx, raw, "")
	require.ErrorIs(t, err, ErrActivationNotFound)
}

func TestRedeemHonoursStoreExpiry(t *testing.T) {
	issue, redeem, _, _ := issueAndRedeemServices(t)
	ctx := context.Background()

	// Issue with a clock two hours in the past so the record's one-hour window
	// is over, while the token's embedded expiry (stamped by the real-clock
	// codec) is still open.
	issue.Now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	p := validIssueParams()
	p.TTL = time.Hour

	raw, err := issue.Issue(ctx, p)
	require.NoError(t, err)

	_, err = redeem.Inspect(ctx, raw)
	require.ErrorIs(t, err, ErrActivationExpired)

	_, err = redeem.Redeem(ctx, raw, "")
	require.ErrorIs(t, err, ErrActivationExpired)
}

func TestRedeemRejectsMismatchedRecord(t *testing.T) {
	_, redeem, st, codec := issueAndRedeemServices(t)
	ctx := context.Background()

	raw, err := codec.Encode(token.Identity{Email: "a@x.com", UserID: "u1", TenantID: "t1"}, time.Hour)
	require.NoError(t, err)

	// A record filed under this token's digest but bound to someone else.
	now := time.Now().UTC()
	err = st.ActivationTokens().CreateActivationToken(ctx, domain.ActivationToken{
		ID:          idx.New().String(),
		TokenDigest: codec.Digest(raw),
		Email:       "a@x.com",
		UserID:      "someone-else",
		TenantID:    "t1",
		CreatedAt:   now,
		ExpiresAt:   now.Add(time.Hour),
	})
	require.NoError(t, err)

	_, err = redeem.Inspect(ctx, raw)
	require.ErrorIs(t, err, ErrActivationMismatch)

	_, err = redeem.Redeem(ctx, raw, "")
	require.ErrorIs(t, err, ErrActivationMismatch)
}

func TestReissueInvalidatesOlderToken(t *testing.T) {
	issue, redeem, _, _ := issueAndRedeemServices(t)
	ctx := context.Background()

	tokenA, err := issue.Issue(ctx, validIssueParams())
	require.NoError(t, err)
	tokenB, err := issue.Issue(ctx, validIssueParams())
	require.NoError(t, err)
	require.NotEqual(t, tokenA, tokenB)

	_, err = redeem.Redeem(ctx, tokenA, "")
	require.ErrorIs(t, err, ErrActivationAlreadyUsed)

	id, err := redeem.Redeem(ctx, tokenB, "")
	require.NoError(t, err)
	require.Equal(t, "u1", id.UserID)
}

func TestConcurrentRedeemHasSingleWinner(t *testing.T) {
	issue, redeem, _, _ := issueAndRedeemServices(t)
	ctx := context.Background()

	raw, err := issue.Issue(ctx, validIssueParams())
	require.NoError(t, err)

	const workers = 8
	errs := make([]error, workers)

	var start, done sync.WaitGroup
	start.Add(1)
	done.Add(workers)
	for i := range workers {
		go func() {
			defer done.Done()
			start.Wait()
			_, errs[i] = redeem.Redeem(ctx, raw, "")
		}()
	}
	start.Done()
	done.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			require.ErrorIs(t, err, ErrActivationAlreadyUsed)
		}
	}
	require.Equal(t, 1, winners, "exactly one concurrent redemption must succeed")
}
