package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashVerifier_Demo(t *testing.T) {
	v, err := NewHashVerifier("")
	require.NoError(t, err)

	assert.NoError(t, v.Verify(DemoPassword))
	assert.ErrorIs(t, v.Verify("admin"), ErrInvalidPassword)
	assert.ErrorIs(t, v.Verify(""), ErrInvalidPassword)
}

func TestHashVerifier_Configured(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)

	v, err := NewHashVerifier(hash)
	require.NoError(t, err)

	assert.NoError(t, v.Verify("s3cret"))
	assert.ErrorIs(t, v.Verify(DemoPassword), ErrInvalidPassword)
}

func TestNewHashVerifier_RejectsGarbage(t *testing.T) {
	_, err := NewHashVerifier("plaintext")
	assert.Error(t, err)
}

func TestHashPassword_Empty(t *testing.T) {
	_, err := HashPassword("")
	assert.Error(t, err)
}

func TestSession(t *testing.T) {
	v, err := NewHashVerifier("")
	require.NoError(t, err)
	s := NewSession(v)

	assert.False(t, s.Authenticated())
	assert.ErrorIs(t, s.Login("wrong"), ErrInvalidPassword)
	assert.False(t, s.Authenticated())

	require.NoError(t, s.Login(DemoPassword))
	assert.True(t, s.Authenticated())

	s.Logout()
	assert.False(t, s.Authenticated())
}
