package db

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/otpsvc/internal/otp/entity"
	"github.com/shandysiswandi/otpsvc/internal/pkg/goerror"
	"github.com/shandysiswandi/otpsvc/internal/pkg/instrument"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// These tests spin up a throwaway postgres container. Opt in with
// OTPSVC_DB_TESTS=1; they need a working docker daemon.
func setupDB(t *testing.T) *DB {
	t.Helper()
	if os.Getenv("OTPSVC_DB_TESTS") == "" {
		t.Skip("set OTPSVC_DB_TESTS=1 to run database integration tests")
	}

	ctx := context.Background()
	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("otpsvc"),
		postgres.WithUsername("otpsvc"),
		postgres.WithPassword("otpsvc"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(time.Minute)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, Migrate(ctx, pool))
	return NewDB(pool, instrument.NewNoop())
}

func totpToken(id, userID int64, reason entity.Reason, expiresAt time.Time) entity.Token {
	now := expiresAt.Add(-10 * time.Minute)
	return entity.Token{
		ID:          id,
		UserID:      userID,
		Kind:        entity.KindTOTP,
		Reason:      reason,
		State:       entity.StateActive,
		Secret:      []byte("sealed"),
		TokenLength: 6,
		ExpiresAt:   &expiresAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestDB_UniqueActivePerUserReasonKind(t *testing.T) {
	s := setupDB(t)
	ctx := context.Background()
	expiry := time.Now().Add(10 * time.Minute)

	require.NoError(t, s.CreateToken(ctx, totpToken(1, 100, entity.ReasonRegistration, expiry)))

	// Same slot while the first token is still active.
	err := s.CreateToken(ctx, totpToken(2, 100, entity.ReasonRegistration, expiry))
	assert.ErrorIs(t, err, goerror.ErrConflict)

	// Different reason and different kind are free.
	require.NoError(t, s.CreateToken(ctx, totpToken(3, 100, entity.ReasonLogin, expiry)))
	counter := uint64(0)
	hotp := totpToken(4, 100, entity.ReasonRegistration, expiry)
	hotp.Kind = entity.KindHOTP
	hotp.ExpiresAt = nil
	hotp.Counter = &counter
	require.NoError(t, s.CreateToken(ctx, hotp))

	// Consuming frees the slot.
	ok, err := s.ConsumeToken(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, s.CreateToken(ctx, totpToken(5, 100, entity.ReasonRegistration, expiry)))
}

func TestDB_PayloadConstraint(t *testing.T) {
	s := setupDB(t)
	ctx := context.Background()

	counter := uint64(1)
	bad := totpToken(10, 200, entity.ReasonLogin, time.Now().Add(time.Hour))
	bad.Counter = &counter

	err := s.CreateToken(ctx, bad)
	require.Error(t, err)
	assert.NotErrorIs(t, err, goerror.ErrConflict)
}

func TestDB_FindRoundTrip(t *testing.T) {
	s := setupDB(t)
	ctx := context.Background()
	expiry := time.Now().Add(10 * time.Minute).UTC().Truncate(time.Microsecond)

	in := totpToken(20, 300, entity.ReasonPayment, expiry)
	require.NoError(t, s.CreateToken(ctx, in))

	got, err := s.FindActiveToken(ctx, 300, entity.ReasonPayment, entity.KindTOTP)
	require.NoError(t, err)
	assert.Equal(t, in.ID, got.ID)
	assert.Equal(t, entity.StateActive, got.State)
	require.NotNil(t, got.ExpiresAt)
	assert.True(t, got.ExpiresAt.Equal(expiry))
	assert.Nil(t, got.Counter)

	byID, err := s.FindTokenByID(ctx, in.ID)
	require.NoError(t, err)
	assert.Equal(t, got.UserID, byID.UserID)

	_, err = s.FindTokenByID(ctx, 424242)
	assert.ErrorIs(t, err, goerror.ErrNotFound)
	_, err = s.FindActiveToken(ctx, 300, entity.ReasonLogin, entity.KindTOTP)
	assert.ErrorIs(t, err, goerror.ErrNotFound)
}

func TestDB_ConsumeToken_SingleWinner(t *testing.T) {
	s := setupDB(t)
	ctx := context.Background()

	require.NoError(t, s.CreateToken(ctx, totpToken(30, 400, entity.ReasonLogin, time.Now().Add(time.Hour))))

	const attempts = 8
	var wg sync.WaitGroup
	wins := make(chan bool, attempts)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.ConsumeToken(ctx, 30)
			assert.NoError(t, err)
			wins <- ok
		}()
	}
	wg.Wait()
	close(wins)

	var winners int
	for ok := range wins {
		if ok {
			winners++
		}
	}
	assert.Equal(t, 1, winners)
}

func TestDB_ExpireTokens(t *testing.T) {
	s := setupDB(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.CreateToken(ctx, totpToken(40, 500, entity.ReasonLogin, now.Add(time.Minute))))
	require.NoError(t, s.CreateToken(ctx, totpToken(41, 501, entity.ReasonLogin, now.Add(time.Hour))))

	swept, err := s.ExpireTokens(ctx, now.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), swept)

	got, err := s.FindTokenByID(ctx, 40)
	require.NoError(t, err)
	assert.Equal(t, entity.StateExpired, got.State)

	// Expired slot is free for a new active token.
	require.NoError(t, s.CreateToken(ctx, totpToken(42, 500, entity.ReasonLogin, now.Add(time.Hour))))

	swept, err = s.ExpireTokens(ctx, now.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Zero(t, swept)
}
