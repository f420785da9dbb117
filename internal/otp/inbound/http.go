package inbound

import (
	"context"

	"github.com/shandysiswandi/otpsvc/internal/otp/usecase"
	"github.com/shandysiswandi/otpsvc/internal/pkg/router"
)

type uc interface {
	GenerateTOTP(ctx context.Context, in usecase.GenerateTOTPInput) (*usecase.GenerateTOTPOutput, error)
	GenerateHOTP(ctx context.Context, in usecase.GenerateHOTPInput) (*usecase.GenerateHOTPOutput, error)
	ValidateTOTP(ctx context.Context, in usecase.ValidateTOTPInput) (*usecase.ValidateTOTPOutput, error)
	ValidateHOTP(ctx context.Context, in usecase.ValidateHOTPInput) (*usecase.ValidateHOTPOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Issuance
	r.POST("/api/v1/otp/totp", end.GenerateTOTP)
	r.POST("/api/v1/otp/hotp", end.GenerateHOTP)

	// Validation
	r.POST("/api/v1/otp/totp/validate", end.ValidateTOTP)
	r.POST("/api/v1/otp/hotp/validate", end.ValidateHOTP)
}
