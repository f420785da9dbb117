package jwt

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct{ at time.Time }

func (f fixedClock) Now() time.Time { return f.at }

type fixedUUID struct{}

func (fixedUUID) Generate() string { return "0198f2c4-0000-7000-8000-000000000001" }

func newTestJWT(t *testing.T, ttl time.Duration, at time.Time) *Symmetric {
	t.Helper()

	s, err := NewHS512(Config{
		Secret:    bytes.Repeat([]byte{0x5a}, 64),
		Issuer:    "otpsvc",
		Audiences: []string{"internal"},
		TTL:       ttl,
		Clock:     fixedClock{at: at},
		UUID:      fixedUUID{},
	})
	require.NoError(t, err)

	return s
}

func TestSymmetric_GenerateVerify(t *testing.T) {
	now := time.Now()
	s := newTestJWT(t, 15*time.Minute, now)

	tokenStr, err := s.Generate("billing")
	require.NoError(t, err)

	claims, err := s.Verify(tokenStr)
	require.NoError(t, err)
	assert.Equal(t, "billing", claims.Service)
	assert.Equal(t, "billing", claims.Subject)
	assert.Equal(t, "otpsvc", claims.Issuer)
}

func TestSymmetric_Expired(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	s := newTestJWT(t, time.Minute, past)

	tokenStr, err := s.Generate("billing")
	require.NoError(t, err)

	_, err = s.Verify(tokenStr)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestSymmetric_Malformed(t *testing.T) {
	s := newTestJWT(t, time.Minute, time.Now())

	_, err := s.Verify("not.a.token")
	assert.Error(t, err)
}

func TestNewHS512_ShortKey(t *testing.T) {
	_, err := NewHS512(Config{Secret: []byte("short")})
	assert.ErrorIs(t, err, ErrSigningKeyTooShort)
}

func TestAuthContext(t *testing.T) {
	ctx := t.Context()
	assert.Nil(t, GetAuth(ctx))

	ctx = SetAuth(ctx, Claims{Service: "billing"})
	got := GetAuth(ctx)
	require.NotNil(t, got)
	assert.Equal(t, "billing", got.Service)
}
