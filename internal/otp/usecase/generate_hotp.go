package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/otpsvc/internal/otp/entity"
	"github.com/shandysiswandi/otpsvc/internal/pkg/goerror"
	"github.com/shandysiswandi/otpsvc/internal/pkg/otpauth"
	"github.com/shandysiswandi/otpsvc/internal/pkg/secrecy"
)

type GenerateHOTPInput struct {
	UserID         int64
	Reason         entity.Reason
	TokenLength    int
	InitialCounter uint64
}

type GenerateHOTPOutput struct {
	ID      int64
	Code    string
	Counter uint64
}

// GenerateHOTP issues a counter-based token for (user, reason). The returned
// code is the one valid at the initial counter; the token never expires by
// time and stays active until consumed.
func (s *Usecase) GenerateHOTP(ctx context.Context, in GenerateHOTPInput) (*GenerateHOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "GenerateHOTP")
	defer span.End()

	if in.TokenLength == 0 {
		in.TokenLength = defaultTokenLength
	}

	if err := s.checkIssuance(in.UserID, in.Reason, in.TokenLength); err != nil {
		return nil, err
	}

	release, err := s.guardIssuance(ctx, in.UserID, in.Reason, entity.KindHOTP)
	if err != nil {
		return nil, err
	}
	defer release()

	now := s.clock.Now()
	secret, err := otpauth.GenerateSecret()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate hotp secret", "user_id", in.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	code, err := otpauth.ComputeHOTP(secret, in.InitialCounter, in.TokenLength)
	if err != nil {
		slog.ErrorContext(ctx, "failed to compute hotp code", "user_id", in.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	sealed, err := s.secrets.Encrypt([]byte(secret), secrecy.Scope{UserID: in.UserID, Reason: in.Reason.String()})
	if err != nil {
		slog.ErrorContext(ctx, "failed to encrypt hotp secret", "user_id", in.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	counter := in.InitialCounter
	tok := entity.Token{
		ID:          s.uid.Generate(),
		UserID:      in.UserID,
		Kind:        entity.KindHOTP,
		Reason:      in.Reason,
		State:       entity.StateActive,
		Secret:      sealed,
		TokenLength: in.TokenLength,
		Counter:     &counter,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.createToken(ctx, tok); err != nil {
		return nil, err
	}

	s.publishIssued(ctx, tok)

	return &GenerateHOTPOutput{ID: tok.ID, Code: code, Counter: counter}, nil
}
