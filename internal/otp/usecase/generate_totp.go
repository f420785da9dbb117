package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/otpsvc/internal/otp/entity"
	"github.com/shandysiswandi/otpsvc/internal/pkg/goerror"
	"github.com/shandysiswandi/otpsvc/internal/pkg/idempotency"
	"github.com/shandysiswandi/otpsvc/internal/pkg/otpauth"
	"github.com/shandysiswandi/otpsvc/internal/pkg/secrecy"
)

const (
	defaultTokenLength = 6
	defaultLifespan    = 10 * time.Minute
	minLifespan        = time.Minute

	// issuanceLockTTL bounds how long a crashed issuer can hold the redis slot.
	issuanceLockTTL = 10 * time.Second
)

type GenerateTOTPInput struct {
	UserID      int64
	Reason      entity.Reason
	TokenLength int
	Lifespan    time.Duration
}

type GenerateTOTPOutput struct {
	ID        int64
	Code      string
	ExpiresAt time.Time
}

// GenerateTOTP issues a time-based token for (user, reason). The plaintext
// code is returned exactly once, here; only the sealed secret is persisted.
func (s *Usecase) GenerateTOTP(ctx context.Context, in GenerateTOTPInput) (*GenerateTOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "GenerateTOTP")
	defer span.End()

	if in.TokenLength == 0 {
		in.TokenLength = defaultTokenLength
	}
	if in.Lifespan == 0 {
		in.Lifespan = defaultLifespan
	}

	if err := s.checkIssuance(in.UserID, in.Reason, in.TokenLength); err != nil {
		return nil, err
	}
	if in.Lifespan < minLifespan {
		return nil, &entity.TokenLifeSpanError{Lifespan: in.Lifespan}
	}

	release, err := s.guardIssuance(ctx, in.UserID, in.Reason, entity.KindTOTP)
	if err != nil {
		return nil, err
	}
	defer release()

	now := s.clock.Now()
	secret, err := otpauth.GenerateSecret()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate totp secret", "user_id", in.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	code, err := otpauth.ComputeTOTP(secret, now, in.Lifespan, in.TokenLength)
	if err != nil {
		slog.ErrorContext(ctx, "failed to compute totp code", "user_id", in.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	sealed, err := s.secrets.Encrypt([]byte(secret), secrecy.Scope{UserID: in.UserID, Reason: in.Reason.String()})
	if err != nil {
		slog.ErrorContext(ctx, "failed to encrypt totp secret", "user_id", in.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	expiresAt := now.Add(in.Lifespan)
	tok := entity.Token{
		ID:          s.uid.Generate(),
		UserID:      in.UserID,
		Kind:        entity.KindTOTP,
		Reason:      in.Reason,
		State:       entity.StateActive,
		Secret:      sealed,
		TokenLength: in.TokenLength,
		ExpiresAt:   &expiresAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.createToken(ctx, tok); err != nil {
		return nil, err
	}

	s.publishIssued(ctx, tok)

	return &GenerateTOTPOutput{ID: tok.ID, Code: code, ExpiresAt: expiresAt}, nil
}

// checkIssuance covers the parameter checks shared by both factories.
func (s *Usecase) checkIssuance(userID int64, reason entity.Reason, length int) error {
	if userID <= 0 {
		return entity.ErrToken
	}
	if reason.IsUnknown() {
		return entity.ErrToken
	}
	if length < otpauth.MinDigits || length > otpauth.MaxDigits {
		return &entity.TokenLengthError{Length: length}
	}
	return nil
}

// guardIssuance takes the redis slot for (user, reason, kind). Losing the slot
// means a concurrent issuance is in flight, which can only end in the same
// duplicate-active violation the database index would report.
//
// The guard is advisory: when redis is absent or failing, issuance proceeds
// and the partial unique index stays the source of correctness.
func (s *Usecase) guardIssuance(ctx context.Context, userID int64, reason entity.Reason, kind entity.Kind) (func(), error) {
	if s.idemp == nil {
		return func() {}, nil
	}

	key := issuanceKey(userID, reason, kind)
	state, err := s.idemp.Acquire(ctx, key, issuanceLockTTL)
	if err != nil {
		slog.WarnContext(ctx, "issuance guard unavailable", "key", key, "error", err)
		return func() {}, nil
	}
	if state != idempotency.StateNone {
		return nil, entity.ErrDuplicateActiveToken
	}

	return func() {
		if err := s.idemp.Release(ctx, key); err != nil {
			slog.WarnContext(ctx, "failed to release issuance guard", "key", key, "error", err)
		}
	}, nil
}

// createToken runs the uniqueness pre-check and the insert, translating the
// constraint violation from the partial unique index.
func (s *Usecase) createToken(ctx context.Context, tok entity.Token) error {
	if err := tok.Validate(); err != nil {
		return err
	}

	_, err := s.repoDB.FindActiveToken(ctx, tok.UserID, tok.Reason, tok.Kind)
	if err == nil {
		return entity.ErrDuplicateActiveToken
	}
	if !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo find active token",
			"user_id", tok.UserID, "reason", tok.Reason.String(), "kind", tok.Kind.String(), "error", err)
		return goerror.NewServer(err)
	}

	if err := s.repoDB.CreateToken(ctx, tok); err != nil {
		if errors.Is(err, goerror.ErrConflict) {
			return entity.ErrDuplicateActiveToken
		}
		slog.ErrorContext(ctx, "failed to repo create token", "user_id", tok.UserID, "token_id", tok.ID, "error", err)
		return goerror.NewServer(err)
	}
	return nil
}

func (s *Usecase) publishIssued(ctx context.Context, tok entity.Token) {
	if s.repoMessaging == nil {
		return
	}

	evt := TokenIssuedEvent{
		TokenID:   tok.ID,
		UserID:    tok.UserID,
		Kind:      tok.Kind.String(),
		Reason:    tok.Reason.String(),
		IssuedAt:  tok.CreatedAt,
		ExpiresAt: tok.ExpiresAt,
	}
	if err := s.repoMessaging.PublishTokenIssued(ctx, evt); err != nil {
		slog.WarnContext(ctx, "failed to publish token issued event", "token_id", tok.ID, "error", err)
	}
}
