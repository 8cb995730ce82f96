package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateUsername(t *testing.T) {
	assert.NoError(t, ValidateUsername("orbit_42"))
	assert.NoError(t, ValidateUsername("abc"))
	assert.NoError(t, ValidateUsername("12345678901234567890"))

	assert.Error(t, ValidateUsername("ab"))
	assert.Error(t, ValidateUsername("123456789012345678901"))
	assert.Error(t, ValidateUsername("has space"))
	assert.Error(t, ValidateUsername("dash-name"))
	assert.Error(t, ValidateUsername("_leading"))
}

func TestValidateUsernameReserved(t *testing.T) {
	assert.Error(t, ValidateUsername("celi"))
	assert.Error(t, ValidateUsername("Void"))
	assert.Error(t, ValidateUsername("ADMIN"))
}

func TestNormalizeUsername(t *testing.T) {
	assert.Equal(t, "orbit", NormalizeUsername("  Orbit  "))
}

func TestPasswordHashRoundtrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	ok, err := VerifyPassword("correct horse battery", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong password", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordHashesAreSalted(t *testing.T) {
	h1, err := HashPassword("same input")
	require.NoError(t, err)
	h2, err := HashPassword("same input")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}
