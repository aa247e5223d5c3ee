package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBcryptHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter2", AlgoBcrypt)
	require.NoError(t, err)
	require.True(t, VerifyPassword("hunter2", hash))
	require.False(t, VerifyPassword("wrong", hash))
}

func TestArgon2HashRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter2", AlgoArgon2)
	require.NoError(t, err)
	require.True(t, VerifyPassword("hunter2", hash))
	require.False(t, VerifyPassword("wrong", hash))
}

func TestHashPasswordRejectsUnknownAlgorithm(t *testing.T) {
	_, err := HashPassword("x", HashAlgorithm("md5"))
	require.Error(t, err)
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	require.False(t, VerifyPassword("x", "not-a-real-hash"))
	require.False(t, VerifyPassword("x", "argon2$onlyonepart"))
}
