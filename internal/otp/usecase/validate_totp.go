package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/otpsvc/internal/otp/entity"
	"github.com/shandysiswandi/otpsvc/internal/pkg/goerror"
	"github.com/shandysiswandi/otpsvc/internal/pkg/otpauth"
	"github.com/shandysiswandi/otpsvc/internal/pkg/secrecy"
)

type ValidateTOTPInput struct {
	UserID  int64
	TokenID int64
	Code    string
}

type ValidateTOTPOutput struct {
	Valid bool
}

// ValidateTOTP checks a submitted code against a time-based token and consumes
// the token on match.
//
// Missing inputs (zero user, zero token id, empty code) and a record that is
// absent, owned by someone else, not active, or past expiry all yield
// Valid=false without an error; only a record of the wrong kind is reported
// as ErrToken. A wrong code changes nothing and yields false.
func (s *Usecase) ValidateTOTP(ctx context.Context, in ValidateTOTPInput) (*ValidateTOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "ValidateTOTP")
	defer span.End()

	rec, err := s.lookupToken(ctx, in.UserID, in.TokenID, in.Code)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return &ValidateTOTPOutput{}, nil
	}
	if rec.Kind != entity.KindTOTP {
		return nil, entity.ErrToken
	}

	if rec.State != entity.StateActive {
		return &ValidateTOTPOutput{}, nil
	}

	now := s.clock.Now()
	if rec.IsExpired(now) {
		slog.WarnContext(ctx, "totp token past expiry", "token_id", rec.ID, "user_id", rec.UserID)
		return &ValidateTOTPOutput{}, nil
	}

	secret, err := s.openSecret(ctx, rec)
	if err != nil {
		return nil, err
	}

	// The time step is the token's lifespan, so the delivered code keeps
	// matching for the whole step it was issued in.
	period := rec.ExpiresAt.Sub(rec.CreatedAt)
	want, err := otpauth.ComputeTOTP(secret, now, period, rec.TokenLength)
	if err != nil {
		slog.ErrorContext(ctx, "failed to compute totp code", "token_id", rec.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !otpauth.Equal(want, in.Code) {
		return &ValidateTOTPOutput{}, nil
	}

	ok, err := s.consumeToken(ctx, rec.ID)
	if err != nil {
		return nil, err
	}
	return &ValidateTOTPOutput{Valid: ok}, nil
}

// lookupToken loads the record for a validation attempt. A nil record with a
// nil error means the attempt is rejected without raising.
func (s *Usecase) lookupToken(ctx context.Context, userID, tokenID int64, code string) (*entity.Token, error) {
	if userID <= 0 || tokenID <= 0 || code == "" {
		return nil, nil
	}

	rec, err := s.repoDB.FindTokenByID(ctx, tokenID)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo find token by id", "token_id", tokenID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if rec.UserID != userID {
		slog.WarnContext(ctx, "token does not belong to user", "token_id", tokenID, "user_id", userID)
		return nil, nil
	}
	return rec, nil
}

func (s *Usecase) openSecret(ctx context.Context, rec *entity.Token) (string, error) {
	plain, err := s.secrets.Decrypt(rec.Secret, secrecy.Scope{UserID: rec.UserID, Reason: rec.Reason.String()})
	if err != nil {
		slog.ErrorContext(ctx, "failed to decrypt token secret", "token_id", rec.ID, "error", err)
		return "", goerror.NewServer(err)
	}
	return string(plain), nil
}

// consumeToken performs the conditional consume. A false result means a
// concurrent validator won the race and this attempt loses.
func (s *Usecase) consumeToken(ctx context.Context, id int64) (bool, error) {
	ok, err := s.repoDB.ConsumeToken(ctx, id)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo consume token", "token_id", id, "error", err)
		return false, goerror.NewServer(err)
	}
	if !ok {
		slog.WarnContext(ctx, "token already left active state", "token_id", id)
	}
	return ok, nil
}
