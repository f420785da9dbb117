package entity

import "time"

// Token is one issued one-time-password record.
//
// The secret is stored as AES-GCM ciphertext and never leaves the service;
// the plaintext code derived from it is returned to the caller exactly once,
// at issuance.
type Token struct {
	ID          int64
	UserID      int64
	Kind        Kind
	Reason      Reason
	State       State
	Secret      []byte
	TokenLength int

	// ExpiresAt is set if and only if Kind is TOTP.
	ExpiresAt *time.Time
	// Counter is set if and only if Kind is HOTP.
	Counter *uint64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the structural invariants of the record. It returns a
// StructuralValidationError naming the violated field, or nil.
func (t *Token) Validate() error {
	if t.UserID <= 0 {
		return &StructuralValidationError{Field: "user_id", Reason: "must reference a user"}
	}

	if t.Kind.IsUnknown() {
		return &StructuralValidationError{Field: "kind", Reason: "must be TOTP or HOTP"}
	}

	if t.Reason.IsUnknown() {
		return &StructuralValidationError{Field: "reason", Reason: "must be a known reason"}
	}

	if t.State.IsUnknown() {
		return &StructuralValidationError{Field: "state", Reason: "must be a known state"}
	}

	if len(t.Secret) == 0 {
		return &StructuralValidationError{Field: "secret", Reason: "must not be empty"}
	}

	if t.TokenLength < 4 || t.TokenLength > 13 {
		return &StructuralValidationError{Field: "token_length", Reason: "must be between 4 and 13"}
	}

	switch t.Kind {
	case KindTOTP:
		if t.ExpiresAt == nil {
			return &StructuralValidationError{Field: "expires_at", Reason: "is required for TOTP"}
		}
		if t.Counter != nil {
			return &StructuralValidationError{Field: "counter", Reason: "must be unset for TOTP"}
		}
		if t.ExpiresAt.Before(t.CreatedAt) {
			return &StructuralValidationError{Field: "expires_at", Reason: "must not precede created_at"}
		}
	case KindHOTP:
		if t.Counter == nil {
			return &StructuralValidationError{Field: "counter", Reason: "is required for HOTP"}
		}
		if t.ExpiresAt != nil {
			return &StructuralValidationError{Field: "expires_at", Reason: "must be unset for HOTP"}
		}
	}

	return nil
}

// IsExpired reports whether a TOTP token is past its expiry at the given time.
// HOTP tokens never expire by time.
func (t *Token) IsExpired(now time.Time) bool {
	return t.Kind == KindTOTP && t.ExpiresAt != nil && now.After(*t.ExpiresAt)
}
