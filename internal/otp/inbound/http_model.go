package inbound

import "time"

type GenerateTOTPRequest struct {
	UserID          int64  `json:"user_id"`
	Reason          string `json:"reason"`
	TokenLength     int    `json:"token_length"`
	LifespanMinutes int    `json:"lifespan_minutes"`
}

type GenerateTOTPResponse struct {
	TokenID   int64     `json:"token_id"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (GenerateTOTPResponse) Message() string {
	return "Token issued. The code is shown only once; deliver it now."
}

type GenerateHOTPRequest struct {
	UserID         int64  `json:"user_id"`
	Reason         string `json:"reason"`
	TokenLength    int    `json:"token_length"`
	InitialCounter uint64 `json:"initial_counter"`
}

type GenerateHOTPResponse struct {
	TokenID int64  `json:"token_id"`
	Code    string `json:"code"`
	Counter uint64 `json:"counter"`
}

func (GenerateHOTPResponse) Message() string {
	return "Token issued. The code is shown only once; deliver it now."
}

type ValidateTOTPRequest struct {
	UserID  int64  `json:"user_id"`
	TokenID int64  `json:"token_id"`
	Code    string `json:"code"`
}

type ValidateHOTPRequest struct {
	UserID  int64  `json:"user_id"`
	TokenID int64  `json:"token_id"`
	Code    string `json:"code"`
	Counter uint64 `json:"counter"`
}

type ValidateResponse struct {
	Valid bool `json:"valid"`
}
