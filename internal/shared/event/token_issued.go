package event

import "time"

const TokenIssuedDestination string = "otp_token_issued"

// TokenIssuedMessage tells delivery channels that a token exists. It carries
// neither the code nor the secret; the channel fetches whatever it needs to
// notify the user through its own means.
type TokenIssuedMessage struct {
	TokenID   int64      `json:"token_id"`
	UserID    int64      `json:"user_id"`
	Kind      string     `json:"kind"`
	Reason    string     `json:"reason"`
	IssuedAt  time.Time  `json:"issued_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}
