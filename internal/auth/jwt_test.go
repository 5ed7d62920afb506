package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignSession_roundTrip(t *testing.T) {
	svc := NewJWTService("test-secret")

	token, err := svc.SignSession(42, "recon7", "RSA-X4K2P9")
	require.NoError(t, err)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "recon7", claims.Username)
	assert.Equal(t, "RSA-X4K2P9", claims.TacticalID)
	assert.Empty(t, claims.Kind)
}

func TestSignReset_carriesResetKind(t *testing.T) {
	svc := NewJWTService("test-secret")

	token, err := svc.SignReset(42)
	require.NoError(t, err)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "reset", claims.Kind)
}

func TestVerify_rejectsWrongSecret(t *testing.T) {
	token, err := NewJWTService("secret-a").SignSession(1, "recon7", "")
	require.NoError(t, err)

	_, err = NewJWTService("secret-b").Verify(token)
	assert.Error(t, err)
}

func TestVerify_rejectsGarbage(t *testing.T) {
	_, err := NewJWTService("test-secret").Verify("not.a.token")
	assert.Error(t, err)
}

func TestGenCode_sixDigits(t *testing.T) {
	for i := 0; i < 50; i++ {
		code := GenCode()
		require.Len(t, code, 6)
		for _, r := range code {
			assert.True(t, r >= '0' && r <= '9')
		}
	}
}

func TestGenTacticalID_format(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		id := GenTacticalID()
		require.Len(t, id, 10)
		assert.Equal(t, "RSA-", id[:4])
		seen[id] = true
	}
	assert.Greater(t, len(seen), 1, "ids should not repeat constantly")
}
