package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	secret := []byte("test-secret")
	tok, err := Issue(secret, "user-1", "owner", time.Hour, time.Now())
	require.NoError(t, err)

	claims, err := Parse(secret, "Bearer "+tok)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, "owner", claims.Role)
}

func TestParseRejects(t *testing.T) {
	secret := []byte("test-secret")
	expired, err := Issue(secret, "user-1", "customer", time.Minute, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	other, err := Issue([]byte("other"), "user-1", "customer", time.Hour, time.Now())
	require.NoError(t, err)

	for name, raw := range map[string]string{
		"empty":        "",
		"garbage":      "Bearer abc.def.ghi",
		"expired":      expired,
		"wrong secret": other,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(secret, raw)
			require.True(t, errors.Is(err, ErrInvalidToken), "got %v", err)
		})
	}
}

func TestIssueRequiresSecret(t *testing.T) {
	_, err := Issue(nil, "u", "customer", time.Hour, time.Now())
	require.Error(t, err)
}
