package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/shandysiswandi/otpsvc/internal/otp/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Scenario: issue a 6-digit TOTP with a 10 minute lifespan, validate the
// delivered code, then replay it.
func TestValidateTOTP_ConsumeAndReplay(t *testing.T) {
	uc, repo, _, _ := newTestUsecase()
	ctx := context.Background()

	issued, err := uc.GenerateTOTP(ctx, GenerateTOTPInput{
		UserID:      31,
		Reason:      entity.ReasonTwoStepVerification,
		TokenLength: 6,
		Lifespan:    10 * time.Minute,
	})
	require.NoError(t, err)

	out, err := uc.ValidateTOTP(ctx, ValidateTOTPInput{UserID: 31, TokenID: issued.ID, Code: issued.Code})
	require.NoError(t, err)
	assert.True(t, out.Valid)
	assert.Equal(t, entity.StateConsumed, repo.stateOf(issued.ID))

	// Same correct code again: the record is no longer active.
	out, err = uc.ValidateTOTP(ctx, ValidateTOTPInput{UserID: 31, TokenID: issued.ID, Code: issued.Code})
	require.NoError(t, err)
	assert.False(t, out.Valid)
	assert.Equal(t, entity.StateConsumed, repo.stateOf(issued.ID))
}

func TestValidateTOTP_WrongCodeChangesNothing(t *testing.T) {
	uc, repo, _, _ := newTestUsecase()
	ctx := context.Background()

	issued, err := uc.GenerateTOTP(ctx, GenerateTOTPInput{UserID: 32, Reason: entity.ReasonLogin})
	require.NoError(t, err)

	for range 3 {
		out, err := uc.ValidateTOTP(ctx, ValidateTOTPInput{UserID: 32, TokenID: issued.ID, Code: flipDigit(issued.Code)})
		require.NoError(t, err)
		assert.False(t, out.Valid)
		assert.Equal(t, entity.StateActive, repo.stateOf(issued.ID))
	}

	// Still consumable with the right code afterwards.
	out, err := uc.ValidateTOTP(ctx, ValidateTOTPInput{UserID: 32, TokenID: issued.ID, Code: issued.Code})
	require.NoError(t, err)
	assert.True(t, out.Valid)
}

// Scenario: the delivered code keeps validating minutes after issuance, as
// long as the token has not expired. The time step is the token lifespan, not
// an authenticator-style 30 seconds.
func TestValidateTOTP_DeliveredCodeSurvivesClockAdvance(t *testing.T) {
	uc, repo, clk, _ := newTestUsecase()
	ctx := context.Background()

	// Issue on a lifespan step boundary so the advance below stays inside the
	// step the code was computed in.
	lifespan := 10 * time.Minute
	boundary := int64(lifespan / time.Second)
	clk.Advance(time.Duration(boundary-clk.Now().Unix()%boundary) * time.Second)

	issued, err := uc.GenerateTOTP(ctx, GenerateTOTPInput{UserID: 38, Reason: entity.ReasonLogin, Lifespan: lifespan})
	require.NoError(t, err)

	clk.Advance(9 * time.Minute)

	out, err := uc.ValidateTOTP(ctx, ValidateTOTPInput{UserID: 38, TokenID: issued.ID, Code: issued.Code})
	require.NoError(t, err)
	assert.True(t, out.Valid)
	assert.Equal(t, entity.StateConsumed, repo.stateOf(issued.ID))
}

func TestValidateTOTP_PastExpiry(t *testing.T) {
	uc, repo, clk, _ := newTestUsecase()
	ctx := context.Background()

	issued, err := uc.GenerateTOTP(ctx, GenerateTOTPInput{UserID: 33, Reason: entity.ReasonResetPassword})
	require.NoError(t, err)

	clk.Advance(10*time.Minute + time.Second)

	out, err := uc.ValidateTOTP(ctx, ValidateTOTPInput{UserID: 33, TokenID: issued.ID, Code: issued.Code})
	require.NoError(t, err)
	assert.False(t, out.Valid)
	assert.Equal(t, entity.StateActive, repo.stateOf(issued.ID))
}

func TestValidateTOTP_RejectedInputs(t *testing.T) {
	uc, _, _, _ := newTestUsecase()
	ctx := context.Background()

	issued, err := uc.GenerateTOTP(ctx, GenerateTOTPInput{UserID: 34, Reason: entity.ReasonLogin})
	require.NoError(t, err)

	cases := []struct {
		name string
		in   ValidateTOTPInput
	}{
		{"zero user", ValidateTOTPInput{UserID: 0, TokenID: issued.ID, Code: issued.Code}},
		{"zero token id", ValidateTOTPInput{UserID: 34, TokenID: 0, Code: issued.Code}},
		{"empty code", ValidateTOTPInput{UserID: 34, TokenID: issued.ID, Code: ""}},
		{"unknown token", ValidateTOTPInput{UserID: 34, TokenID: 424242, Code: issued.Code}},
		{"foreign token", ValidateTOTPInput{UserID: 35, TokenID: issued.ID, Code: issued.Code}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := uc.ValidateTOTP(ctx, tc.in)
			require.NoError(t, err)
			assert.False(t, out.Valid)
		})
	}
}

func TestValidateTOTP_WrongKind(t *testing.T) {
	uc, _, _, _ := newTestUsecase()
	ctx := context.Background()

	issued, err := uc.GenerateHOTP(ctx, GenerateHOTPInput{UserID: 36, Reason: entity.ReasonLogin})
	require.NoError(t, err)

	_, err = uc.ValidateTOTP(ctx, ValidateTOTPInput{UserID: 36, TokenID: issued.ID, Code: issued.Code})
	assert.ErrorIs(t, err, entity.ErrToken)

	totp, err := uc.GenerateTOTP(ctx, GenerateTOTPInput{UserID: 36, Reason: entity.ReasonLogin})
	require.NoError(t, err)

	_, err = uc.ValidateHOTP(ctx, ValidateHOTPInput{UserID: 36, TokenID: totp.ID, Code: totp.Code})
	assert.ErrorIs(t, err, entity.ErrToken)
}

// Scenario: issue an HOTP at counter 0, consume it at counter 0, replay.
func TestValidateHOTP_ConsumeAndReplay(t *testing.T) {
	uc, repo, _, _ := newTestUsecase()
	ctx := context.Background()

	issued, err := uc.GenerateHOTP(ctx, GenerateHOTPInput{UserID: 41, Reason: entity.ReasonEmailActivation})
	require.NoError(t, err)

	out, err := uc.ValidateHOTP(ctx, ValidateHOTPInput{UserID: 41, TokenID: issued.ID, Code: issued.Code, Counter: 0})
	require.NoError(t, err)
	assert.True(t, out.Valid)
	assert.Equal(t, entity.StateConsumed, repo.stateOf(issued.ID))

	out, err = uc.ValidateHOTP(ctx, ValidateHOTPInput{UserID: 41, TokenID: issued.ID, Code: issued.Code, Counter: 0})
	require.NoError(t, err)
	assert.False(t, out.Valid)
}

func TestValidateHOTP_CounterExactness(t *testing.T) {
	uc, repo, _, _ := newTestUsecase()
	ctx := context.Background()

	issued, err := uc.GenerateHOTP(ctx, GenerateHOTPInput{UserID: 42, Reason: entity.ReasonPayment, InitialCounter: 5})
	require.NoError(t, err)

	// The code for counter 5 is not accepted at counter 6; no look-ahead.
	out, err := uc.ValidateHOTP(ctx, ValidateHOTPInput{UserID: 42, TokenID: issued.ID, Code: issued.Code, Counter: 6})
	require.NoError(t, err)
	assert.False(t, out.Valid)
	assert.Equal(t, entity.StateActive, repo.stateOf(issued.ID))

	out, err = uc.ValidateHOTP(ctx, ValidateHOTPInput{UserID: 42, TokenID: issued.ID, Code: issued.Code, Counter: 5})
	require.NoError(t, err)
	assert.True(t, out.Valid)
}

func TestSweepExpired(t *testing.T) {
	uc, repo, clk, _ := newTestUsecase()
	ctx := context.Background()

	short, err := uc.GenerateTOTP(ctx, GenerateTOTPInput{UserID: 51, Reason: entity.ReasonLogin, Lifespan: time.Minute})
	require.NoError(t, err)
	long, err := uc.GenerateTOTP(ctx, GenerateTOTPInput{UserID: 52, Reason: entity.ReasonLogin, Lifespan: time.Hour})
	require.NoError(t, err)
	hotp, err := uc.GenerateHOTP(ctx, GenerateHOTPInput{UserID: 53, Reason: entity.ReasonLogin})
	require.NoError(t, err)

	clk.Advance(2 * time.Minute)

	swept, err := uc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), swept)
	assert.Equal(t, entity.StateExpired, repo.stateOf(short.ID))
	assert.Equal(t, entity.StateActive, repo.stateOf(long.ID))
	assert.Equal(t, entity.StateActive, repo.stateOf(hotp.ID))

	// Terminal: an expired token never validates again.
	out, err := uc.ValidateTOTP(ctx, ValidateTOTPInput{UserID: 51, TokenID: short.ID, Code: short.Code})
	require.NoError(t, err)
	assert.False(t, out.Valid)

	// And the sweep is idempotent.
	swept, err = uc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, swept)
}
