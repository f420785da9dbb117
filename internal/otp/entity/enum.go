package entity

import (
	"github.com/samber/lo"
)

// Kind is the token algorithm family.
type Kind int16

const (
	// KindUnknown is mean kind is not known / not set.
	KindUnknown Kind = 0

	// KindTOTP is a time-based token; the moving factor is the clock.
	KindTOTP Kind = 1

	// KindHOTP is a counter-based token; the moving factor is an explicit counter.
	KindHOTP Kind = 2
)

var kindNames = map[Kind]string{
	KindTOTP: "TOTP",
	KindHOTP: "HOTP",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

func (k Kind) IsUnknown() bool {
	switch k {
	case KindTOTP, KindHOTP:
		return false
	default:
		return true
	}
}

func (k Kind) Ensure() Kind {
	if k.IsUnknown() {
		return KindUnknown
	}
	return k
}

// KindFromString maps a wire name back to a Kind, KindUnknown when unmapped.
func KindFromString(s string) Kind {
	k, ok := lo.FindKeyBy(kindNames, func(_ Kind, name string) bool {
		return name == s
	})
	if !ok {
		return KindUnknown
	}
	return k
}

// Reason is the business flow a token was issued for. A user may hold one
// active token per reason per kind.
type Reason int16

const (
	ReasonUnknown             Reason = 0
	ReasonRegistration        Reason = 1
	ReasonLogin               Reason = 2
	ReasonResetPassword       Reason = 3
	ReasonEmailActivation     Reason = 4
	ReasonPhoneActivation     Reason = 5
	ReasonPayment             Reason = 6
	ReasonTwoStepVerification Reason = 7
)

var reasonNames = map[Reason]string{
	ReasonRegistration:        "REGISTRATION",
	ReasonLogin:               "LOGIN",
	ReasonResetPassword:       "RESET_PASSWORD",
	ReasonEmailActivation:     "EMAIL_ACTIVATION",
	ReasonPhoneActivation:     "PHONE_ACTIVATION",
	ReasonPayment:             "PAYMENT",
	ReasonTwoStepVerification: "TWO_STEP_VERIFICATION",
}

func (r Reason) String() string {
	if name, ok := reasonNames[r]; ok {
		return name
	}
	return "Unknown"
}

func (r Reason) IsUnknown() bool {
	_, ok := reasonNames[r]
	return !ok
}

func (r Reason) Ensure() Reason {
	if r.IsUnknown() {
		return ReasonUnknown
	}
	return r
}

// ReasonFromString maps a wire name back to a Reason, ReasonUnknown when unmapped.
func ReasonFromString(s string) Reason {
	r, ok := lo.FindKeyBy(reasonNames, func(_ Reason, name string) bool {
		return name == s
	})
	if !ok {
		return ReasonUnknown
	}
	return r
}

// State is the token lifecycle state.
type State int16

const (
	StateUnknown State = 0

	// StateActive mean the token has been issued and may still be validated.
	StateActive State = 1

	// StateConsumed mean the token was validated successfully. Terminal.
	StateConsumed State = 2

	// StateExpired mean the token outlived its expiry window. Terminal.
	StateExpired State = 3
)

var stateNames = map[State]string{
	StateActive:   "ACTIVE",
	StateConsumed: "CONSUMED",
	StateExpired:  "EXPIRED",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "Unknown"
}

func (s State) IsUnknown() bool {
	_, ok := stateNames[s]
	return !ok
}

func (s State) Ensure() State {
	if s.IsUnknown() {
		return StateUnknown
	}
	return s
}

// CanTransitionTo reports whether moving from s to next is a legal lifecycle
// transition. Consumed and Expired are terminal.
func (s State) CanTransitionTo(next State) bool {
	switch s {
	case StateActive:
		return next == StateConsumed || next == StateExpired
	case StateConsumed, StateExpired, StateUnknown:
		return false
	default:
		return false
	}
}
