package otpauth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1" //nolint:gosec // HMAC-SHA1 is the RFC 4226 mandated primitive
	"crypto/subtle"
	"encoding/base32"
	"encoding/binary"
	"fmt"
	"strings"
	"time"
)

const (
	// MinDigits is the shortest supported code length.
	MinDigits = 4
	// MaxDigits is the longest supported code length. The dynamically
	// truncated value is 31 bits, so anything above 10 digits is left-padded
	// with zeros rather than gaining entropy.
	MaxDigits = 13

	// DefaultPeriod is the common TOTP time step.
	DefaultPeriod = 30 * time.Second

	// secretSize is 20 random bytes, the 160-bit minimum from RFC 4226 §4.
	secretSize = 20
)

var (
	// ErrDigitsOutOfRange is returned when digits is outside [MinDigits, MaxDigits].
	ErrDigitsOutOfRange = fmt.Errorf("otpauth: digits must be between %d and %d", MinDigits, MaxDigits)

	// ErrSecretInvalid is returned when the secret is empty or not valid base32.
	ErrSecretInvalid = fmt.Errorf("otpauth: secret must be non-empty base32")

	// ErrPeriodInvalid is returned when the TOTP period is not positive.
	ErrPeriodInvalid = fmt.Errorf("otpauth: period must be positive")
)

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// GenerateSecret returns a fresh random shared secret, base32-encoded without
// padding (160 bits of entropy).
func GenerateSecret() (string, error) {
	buf := make([]byte, secretSize)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("otpauth: secret generation failed: %w", err)
	}

	return b32.EncodeToString(buf), nil
}

// ComputeHOTP derives the counter-based code for the given secret.
//
// The digest is HMAC-SHA1 over the 8-byte big-endian counter, dynamically
// truncated per RFC 4226 §5.3 and reduced modulo 10^digits. The result is
// zero-padded to exactly digits characters.
func ComputeHOTP(secret string, counter uint64, digits int) (string, error) {
	if digits < MinDigits || digits > MaxDigits {
		return "", ErrDigitsOutOfRange
	}

	key, err := decodeSecret(secret)
	if err != nil {
		return "", err
	}

	var moving [8]byte
	binary.BigEndian.PutUint64(moving[:], counter)

	mac := hmac.New(sha1.New, key)
	mac.Write(moving[:])
	sum := mac.Sum(nil)

	// Dynamic truncation: low nibble of the last byte selects a 4-byte
	// window; the top bit is cleared to avoid signedness ambiguity.
	offset := sum[len(sum)-1] & 0x0f
	value := uint64(binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff)

	return fmt.Sprintf("%0*d", digits, value%pow10(digits)), nil
}

// ComputeTOTP derives the time-based code for the given secret at a moment in
// time. The moving factor is floor(unixSeconds / period) fed through the HOTP
// computation.
func ComputeTOTP(secret string, at time.Time, period time.Duration, digits int) (string, error) {
	if period <= 0 {
		return "", ErrPeriodInvalid
	}

	step := uint64(at.Unix() / int64(period/time.Second))

	return ComputeHOTP(secret, step, digits)
}

// Equal compares two codes in constant time. It returns false when the codes
// differ in length, which is public information (the length is part of the
// token parameters, not the secret).
func Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func decodeSecret(secret string) ([]byte, error) {
	normalized := strings.TrimRight(strings.ToUpper(strings.TrimSpace(secret)), "=")
	if normalized == "" {
		return nil, ErrSecretInvalid
	}

	key, err := b32.DecodeString(normalized)
	if err != nil {
		return nil, ErrSecretInvalid
	}

	return key, nil
}

func pow10(n int) uint64 {
	out := uint64(1)
	for range n {
		out *= 10
	}
	return out
}
