package otpauth

import (
	"testing"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// base32 of the ASCII secret "12345678901234567890" used by RFC 4226/6238.
const rfcSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

func TestComputeHOTP_RFC4226Vectors(t *testing.T) {
	// RFC 4226 appendix D.
	expected := []string{
		"755224", "287082", "359152", "969429", "338314",
		"254676", "287922", "162583", "399871", "520489",
	}

	for counter, want := range expected {
		got, err := ComputeHOTP(rfcSecret, uint64(counter), 6)
		require.NoError(t, err)
		assert.Equal(t, want, got, "counter %d", counter)
	}
}

func TestComputeTOTP_RFC6238Vectors(t *testing.T) {
	// RFC 6238 appendix B (SHA-1 rows).
	cases := []struct {
		unix int64
		want string
	}{
		{59, "94287082"},
		{1111111109, "07081804"},
		{1111111111, "14050471"},
		{1234567890, "89005924"},
		{2000000000, "69279037"},
		{20000000000, "65353130"},
	}

	for _, tc := range cases {
		got, err := ComputeTOTP(rfcSecret, time.Unix(tc.unix, 0), DefaultPeriod, 8)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "unix %d", tc.unix)
	}
}

func TestComputeHOTP_PrintedWidth(t *testing.T) {
	secret, err := GenerateSecret()
	require.NoError(t, err)

	for digits := MinDigits; digits <= MaxDigits; digits++ {
		code, err := ComputeHOTP(secret, 42, digits)
		require.NoError(t, err)
		assert.Len(t, code, digits, "digits %d", digits)
	}
}

func TestComputeHOTP_DigitsOutOfRange(t *testing.T) {
	for _, digits := range []int{0, 1, 3, 14, 100, -6} {
		_, err := ComputeHOTP(rfcSecret, 0, digits)
		assert.ErrorIs(t, err, ErrDigitsOutOfRange, "digits %d", digits)
	}
}

func TestComputeHOTP_InvalidSecret(t *testing.T) {
	_, err := ComputeHOTP("", 0, 6)
	assert.ErrorIs(t, err, ErrSecretInvalid)

	_, err = ComputeHOTP("not base32 at all!!", 0, 6)
	assert.ErrorIs(t, err, ErrSecretInvalid)
}

func TestComputeTOTP_InvalidPeriod(t *testing.T) {
	_, err := ComputeTOTP(rfcSecret, time.Now(), 0, 6)
	assert.ErrorIs(t, err, ErrPeriodInvalid)
}

func TestGenerateSecret(t *testing.T) {
	first, err := GenerateSecret()
	require.NoError(t, err)
	second, err := GenerateSecret()
	require.NoError(t, err)

	// 20 bytes -> 32 base32 chars without padding.
	assert.Len(t, first, 32)
	assert.NotEqual(t, first, second)
}

// Cross-check against an independent implementation for the lengths it
// supports (6 and 8 digits).
func TestCompute_AgreesWithPquerna(t *testing.T) {
	secret, err := GenerateSecret()
	require.NoError(t, err)

	now := time.Now()

	for _, d := range []struct {
		n   int
		lib otp.Digits
	}{{6, otp.DigitsSix}, {8, otp.DigitsEight}} {
		ours, err := ComputeTOTP(secret, now, DefaultPeriod, d.n)
		require.NoError(t, err)

		theirs, err := totp.GenerateCodeCustom(secret, now, totp.ValidateOpts{
			Period:    30,
			Digits:    d.lib,
			Algorithm: otp.AlgorithmSHA1,
		})
		require.NoError(t, err)
		assert.Equal(t, theirs, ours, "totp digits %d", d.n)

		oursH, err := ComputeHOTP(secret, 7, d.n)
		require.NoError(t, err)

		theirsH, err := hotp.GenerateCodeCustom(secret, 7, hotp.ValidateOpts{
			Digits:    d.lib,
			Algorithm: otp.AlgorithmSHA1,
		})
		require.NoError(t, err)
		assert.Equal(t, theirsH, oursH, "hotp digits %d", d.n)
	}
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal("123456", "123456"))
	assert.False(t, Equal("123456", "123457"))
	assert.False(t, Equal("123456", "12345"))
	assert.False(t, Equal("", "123456"))
}
