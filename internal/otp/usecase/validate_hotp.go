package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/otpsvc/internal/otp/entity"
	"github.com/shandysiswandi/otpsvc/internal/pkg/goerror"
	"github.com/shandysiswandi/otpsvc/internal/pkg/otpauth"
)

type ValidateHOTPInput struct {
	UserID  int64
	TokenID int64
	Code    string
	Counter uint64
}

type ValidateHOTPOutput struct {
	Valid bool
}

// ValidateHOTP checks a submitted code against a counter-based token at
// exactly the supplied counter and consumes the token on match.
//
// There is no look-ahead window: a code derived for counter N matches only
// when the caller submits counter N. Input rejection rules are the same as
// ValidateTOTP, with wrong kind reported as ErrToken.
func (s *Usecase) ValidateHOTP(ctx context.Context, in ValidateHOTPInput) (*ValidateHOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "ValidateHOTP")
	defer span.End()

	rec, err := s.lookupToken(ctx, in.UserID, in.TokenID, in.Code)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return &ValidateHOTPOutput{}, nil
	}
	if rec.Kind != entity.KindHOTP {
		return nil, entity.ErrToken
	}

	if rec.State != entity.StateActive {
		return &ValidateHOTPOutput{}, nil
	}

	secret, err := s.openSecret(ctx, rec)
	if err != nil {
		return nil, err
	}

	want, err := otpauth.ComputeHOTP(secret, in.Counter, rec.TokenLength)
	if err != nil {
		slog.ErrorContext(ctx, "failed to compute hotp code", "token_id", rec.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !otpauth.Equal(want, in.Code) {
		return &ValidateHOTPOutput{}, nil
	}

	ok, err := s.consumeToken(ctx, rec.ID)
	if err != nil {
		return nil, err
	}
	return &ValidateHOTPOutput{Valid: ok}, nil
}
