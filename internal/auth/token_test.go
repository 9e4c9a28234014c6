package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	t.Parallel()

	tm := NewTokenManager("secret", 15)
	token, exp, err := tm.GenerateToken("user-1", []string{"admin"})
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(15*time.Minute), exp, 5*time.Second)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, []string{"admin"}, claims.Permissions)
}

func TestTokenManager_RejectsForeignSignature(t *testing.T) {
	t.Parallel()

	token, _, err := NewTokenManager("secret-a", 15).GenerateToken("user-1", nil)
	require.NoError(t, err)

	_, err = NewTokenManager("secret-b", 15).ParseToken(token)
	require.Error(t, err)
}

func TestTokenManager_RejectsExpired(t *testing.T) {
	t.Parallel()

	tm := NewTokenManager("secret", 1)
	tm.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := tm.GenerateToken("user-1", nil)
	require.NoError(t, err)

	tm.now = time.Now
	_, err = tm.ParseToken(token)
	require.Error(t, err)
}

func TestPasswordHasher_HashAndMatch(t *testing.T) {
	t.Parallel()
	h := NewPasswordHasher(4)

	hash, err := h.Hash("s3cret")
	require.NoError(t, err)

	ok, err := h.Matches(hash, "s3cret")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = h.Matches(hash, "wrong")
	require.NoError(t, err)
	require.False(t, ok)

	_, err = h.Matches("not-a-bcrypt-hash", "s3cret")
	require.Error(t, err)
}

func TestNewPasswordHasher_OutOfRangeCostUsesDefault(t *testing.T) {
	t.Parallel()
	require.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(0).cost)
	require.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(99).cost)
	require.Equal(t, 6, NewPasswordHasher(6).cost)
}
