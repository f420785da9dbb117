package entity

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrToken indicates a missing or structurally wrong token input, such as
	// an invalid user reference or a record of the wrong kind.
	ErrToken = errors.New("otp: invalid token input")

	// ErrDuplicateActiveToken indicates that creating or reactivating a token
	// would leave two active tokens for the same (user, reason, kind).
	ErrDuplicateActiveToken = errors.New("otp: an active token already exists for this user, reason and kind")
)

// TokenLengthError indicates a requested token length outside the supported
// range. The message carries the offending value.
type TokenLengthError struct {
	Length int
}

func (e *TokenLengthError) Error() string {
	return fmt.Sprintf("otp: token length %d is outside the allowed range [4,13]", e.Length)
}

// TokenLifeSpanError indicates a requested lifespan shorter than the minimum
// of one minute.
type TokenLifeSpanError struct {
	Lifespan time.Duration
}

func (e *TokenLifeSpanError) Error() string {
	return fmt.Sprintf("otp: token lifespan %s is below the one minute minimum", e.Lifespan)
}

// StructuralValidationError indicates a token record violating one of its
// structural invariants.
type StructuralValidationError struct {
	Field  string
	Reason string
}

func (e *StructuralValidationError) Error() string {
	return fmt.Sprintf("otp: invalid token record: field %q %s", e.Field, e.Reason)
}
