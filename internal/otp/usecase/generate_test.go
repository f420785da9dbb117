package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shandysiswandi/otpsvc/internal/otp/entity"
	"github.com/shandysiswandi/otpsvc/internal/pkg/goerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTOTP_Defaults(t *testing.T) {
	uc, repo, clk, events := newTestUsecase()

	out, err := uc.GenerateTOTP(context.Background(), GenerateTOTPInput{
		UserID: 11,
		Reason: entity.ReasonLogin,
	})
	require.NoError(t, err)

	assert.Len(t, out.Code, 6)
	assert.Equal(t, clk.Now().Add(10*time.Minute), out.ExpiresAt)

	rec, err := repo.FindTokenByID(context.Background(), out.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StateActive, rec.State)
	assert.Equal(t, entity.KindTOTP, rec.Kind)
	assert.Equal(t, 6, rec.TokenLength)

	require.Len(t, events.events, 1)
	assert.Equal(t, out.ID, events.events[0].TokenID)
	assert.Equal(t, "TOTP", events.events[0].Kind)
}

func TestGenerateTOTP_CodeWidth(t *testing.T) {
	uc, _, _, _ := newTestUsecase()

	for length := 4; length <= 13; length++ {
		out, err := uc.GenerateTOTP(context.Background(), GenerateTOTPInput{
			UserID:      int64(100 + length),
			Reason:      entity.ReasonPayment,
			TokenLength: length,
		})
		require.NoError(t, err)
		assert.Len(t, out.Code, length)
	}
}

func TestGenerateTOTP_Errors(t *testing.T) {
	uc, _, _, _ := newTestUsecase()
	ctx := context.Background()

	_, err := uc.GenerateTOTP(ctx, GenerateTOTPInput{UserID: 0, Reason: entity.ReasonLogin})
	assert.ErrorIs(t, err, entity.ErrToken)

	_, err = uc.GenerateTOTP(ctx, GenerateTOTPInput{UserID: 1, Reason: entity.ReasonUnknown})
	assert.ErrorIs(t, err, entity.ErrToken)

	var lenErr *entity.TokenLengthError
	_, err = uc.GenerateTOTP(ctx, GenerateTOTPInput{UserID: 1, Reason: entity.ReasonLogin, TokenLength: 3})
	require.ErrorAs(t, err, &lenErr)
	assert.Equal(t, 3, lenErr.Length)

	_, err = uc.GenerateTOTP(ctx, GenerateTOTPInput{UserID: 1, Reason: entity.ReasonLogin, TokenLength: 14})
	require.ErrorAs(t, err, &lenErr)
	assert.Equal(t, 14, lenErr.Length)

	var lifeErr *entity.TokenLifeSpanError
	_, err = uc.GenerateTOTP(ctx, GenerateTOTPInput{UserID: 1, Reason: entity.ReasonLogin, Lifespan: 30 * time.Second})
	require.ErrorAs(t, err, &lifeErr)
	assert.Equal(t, 30*time.Second, lifeErr.Lifespan)
}

func TestGenerateTOTP_DuplicateActive(t *testing.T) {
	uc, _, _, _ := newTestUsecase()
	ctx := context.Background()

	in := GenerateTOTPInput{UserID: 7, Reason: entity.ReasonRegistration}
	_, err := uc.GenerateTOTP(ctx, in)
	require.NoError(t, err)

	_, err = uc.GenerateTOTP(ctx, in)
	assert.ErrorIs(t, err, entity.ErrDuplicateActiveToken)

	// A different reason or kind is a different uniqueness slot.
	_, err = uc.GenerateTOTP(ctx, GenerateTOTPInput{UserID: 7, Reason: entity.ReasonLogin})
	assert.NoError(t, err)
	_, err = uc.GenerateHOTP(ctx, GenerateHOTPInput{UserID: 7, Reason: entity.ReasonRegistration})
	assert.NoError(t, err)
}

func TestGenerateTOTP_IssuanceGuard(t *testing.T) {
	uc, _, _, _ := newTestUsecase()
	guard := &fakeGuard{}
	uc.idemp = guard
	ctx := context.Background()

	in := GenerateTOTPInput{UserID: 13, Reason: entity.ReasonLogin}

	// A held slot means a concurrent issuance is in flight.
	_, err := guard.Acquire(ctx, issuanceKey(13, entity.ReasonLogin, entity.KindTOTP), time.Second)
	require.NoError(t, err)
	_, err = uc.GenerateTOTP(ctx, in)
	assert.ErrorIs(t, err, entity.ErrDuplicateActiveToken)
	assert.Empty(t, guard.released)

	// Once the slot frees up, issuance succeeds and releases it again.
	require.NoError(t, guard.Release(ctx, issuanceKey(13, entity.ReasonLogin, entity.KindTOTP)))
	guard.released = nil

	_, err = uc.GenerateTOTP(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, []string{issuanceKey(13, entity.ReasonLogin, entity.KindTOTP)}, guard.released)

	// A failing guard backend never blocks issuance.
	guard.acquireErr = errors.New("redis down")
	_, err = uc.GenerateTOTP(ctx, GenerateTOTPInput{UserID: 14, Reason: entity.ReasonLogin})
	assert.NoError(t, err)
}

func TestGenerateTOTP_InsertRace(t *testing.T) {
	uc, repo, _, _ := newTestUsecase()
	ctx := context.Background()

	_, err := uc.GenerateTOTP(ctx, GenerateTOTPInput{UserID: 9, Reason: entity.ReasonLogin})
	require.NoError(t, err)

	// Blind the pre-check so the insert itself hits the unique index.
	repo.findErr = goerror.ErrNotFound
	_, err = uc.GenerateTOTP(ctx, GenerateTOTPInput{UserID: 9, Reason: entity.ReasonLogin})
	assert.ErrorIs(t, err, entity.ErrDuplicateActiveToken)
}

func TestGenerateHOTP(t *testing.T) {
	uc, repo, _, _ := newTestUsecase()
	ctx := context.Background()

	out, err := uc.GenerateHOTP(ctx, GenerateHOTPInput{
		UserID:         21,
		Reason:         entity.ReasonPhoneActivation,
		TokenLength:    8,
		InitialCounter: 42,
	})
	require.NoError(t, err)
	assert.Len(t, out.Code, 8)
	assert.Equal(t, uint64(42), out.Counter)

	rec, err := repo.FindTokenByID(ctx, out.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.KindHOTP, rec.Kind)
	require.NotNil(t, rec.Counter)
	assert.Equal(t, uint64(42), *rec.Counter)
	assert.Nil(t, rec.ExpiresAt)

	_, err = uc.GenerateHOTP(ctx, GenerateHOTPInput{UserID: 0, Reason: entity.ReasonLogin})
	assert.ErrorIs(t, err, entity.ErrToken)

	var lenErr *entity.TokenLengthError
	_, err = uc.GenerateHOTP(ctx, GenerateHOTPInput{UserID: 21, Reason: entity.ReasonLogin, TokenLength: 20})
	require.ErrorAs(t, err, &lenErr)
	assert.Equal(t, 20, lenErr.Length)
}
