// internal/auth/auth_test.go
package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashRoundtrip(t *testing.T) {
	hash, err := CreateHash("hunter2", Params)
	require.NoError(t, err)
	assert.Contains(t, hash, "$argon2id$")

	ok, err := ComparePasswordAndHash("hunter2", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ComparePasswordAndHash("hunter3", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashesAreSalted(t *testing.T) {
	h1, err := CreateHash("hunter2", Params)
	require.NoError(t, err)
	h2, err := CreateHash("hunter2", Params)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestDecodeHashRejectsGarbage(t *testing.T) {
	_, _, _, err := DecodeHash("not-a-hash")
	assert.ErrorIs(t, err, ErrInvalidHash)

	_, err = ComparePasswordAndHash("x", "$argon2id$bogus")
	assert.Error(t, err)
}

func TestJWTRoundtrip(t *testing.T) {
	Init()

	token, err := CreateJWT("alice")
	require.NoError(t, err)

	sub, err := AuthenticateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", sub)

	_, err = AuthenticateJWT(token + "tampered")
	assert.Error(t, err)
}
