package inbound

import (
	"errors"
	"time"

	"github.com/shandysiswandi/otpsvc/internal/otp/entity"
	"github.com/shandysiswandi/otpsvc/internal/otp/usecase"
	"github.com/shandysiswandi/otpsvc/internal/pkg/goerror"
	"github.com/shandysiswandi/otpsvc/internal/pkg/router"
)

// HTTPEndpoint exposes HTTP handlers for token issuance and validation.
type HTTPEndpoint struct {
	uc uc
}

// GenerateTOTP issues a time-based token and returns the code exactly once.
func (h *HTTPEndpoint) GenerateTOTP(r *router.Request) (any, error) {
	var req GenerateTOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.GenerateTOTP(r.Context(), usecase.GenerateTOTPInput{
		UserID:      req.UserID,
		Reason:      entity.ReasonFromString(req.Reason),
		TokenLength: req.TokenLength,
		Lifespan:    time.Duration(req.LifespanMinutes) * time.Minute,
	})
	if err != nil {
		return nil, translateError(err)
	}

	return GenerateTOTPResponse{
		TokenID:   resp.ID,
		Code:      resp.Code,
		ExpiresAt: resp.ExpiresAt,
	}, nil
}

// GenerateHOTP issues a counter-based token and returns the code exactly once.
func (h *HTTPEndpoint) GenerateHOTP(r *router.Request) (any, error) {
	var req GenerateHOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.GenerateHOTP(r.Context(), usecase.GenerateHOTPInput{
		UserID:         req.UserID,
		Reason:         entity.ReasonFromString(req.Reason),
		TokenLength:    req.TokenLength,
		InitialCounter: req.InitialCounter,
	})
	if err != nil {
		return nil, translateError(err)
	}

	return GenerateHOTPResponse{
		TokenID: resp.ID,
		Code:    resp.Code,
		Counter: resp.Counter,
	}, nil
}

// ValidateTOTP verifies a submitted time-based code.
func (h *HTTPEndpoint) ValidateTOTP(r *router.Request) (any, error) {
	var req ValidateTOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.ValidateTOTP(r.Context(), usecase.ValidateTOTPInput{
		UserID:  req.UserID,
		TokenID: req.TokenID,
		Code:    req.Code,
	})
	if err != nil {
		return nil, translateError(err)
	}

	return ValidateResponse{Valid: resp.Valid}, nil
}

// ValidateHOTP verifies a submitted counter-based code at an exact counter.
func (h *HTTPEndpoint) ValidateHOTP(r *router.Request) (any, error) {
	var req ValidateHOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.ValidateHOTP(r.Context(), usecase.ValidateHOTPInput{
		UserID:  req.UserID,
		TokenID: req.TokenID,
		Code:    req.Code,
		Counter: req.Counter,
	})
	if err != nil {
		return nil, translateError(err)
	}

	return ValidateResponse{Valid: resp.Valid}, nil
}

// translateError maps the typed domain errors onto the transport error model.
// Anything unrecognized passes through untouched; the usecase already wraps
// infrastructure failures.
func translateError(err error) error {
	var lenErr *entity.TokenLengthError
	var lifeErr *entity.TokenLifeSpanError
	var structErr *entity.StructuralValidationError

	switch {
	case errors.Is(err, entity.ErrToken):
		return goerror.NewInvalidInput(nil, "token", "invalid user reference or token kind")
	case errors.Is(err, entity.ErrDuplicateActiveToken):
		return goerror.NewBusiness("An active token already exists for this user, reason and kind", goerror.CodeConflict)
	case errors.As(err, &lenErr):
		return goerror.NewInvalidInput(nil, "token_length", "must be between 4 and 13")
	case errors.As(err, &lifeErr):
		return goerror.NewInvalidInput(nil, "lifespan_minutes", "must be at least 1")
	case errors.As(err, &structErr):
		return goerror.NewInvalidInput(nil, structErr.Field, structErr.Reason)
	default:
		return err
	}
}
