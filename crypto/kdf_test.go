package crypto

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveV1Deterministic(t *testing.T) {
	a := DeriveV1("hunter2")
	b := DeriveV1("hunter2")
	assert.Equal(t, a.Key, b.Key)
	assert.Equal(t, a.PasswordHash, b.PasswordHash)

	c := DeriveV1("different")
	assert.NotEqual(t, a.Key, c.Key)
}

func TestDeriveV2RequiresSixteenByteSalt(t *testing.T) {
	_, err := DeriveV2("pw", make([]byte, 8))
	require.Error(t, err)

	salt := make([]byte, 16)
	_, _ = rand.Read(salt)
	d, err := DeriveV2("pw", salt)
	require.NoError(t, err)
	assert.NotZero(t, d.Key)
}

func TestDeriveV3RequiresTwoFiftySixByteSalt(t *testing.T) {
	_, err := DeriveV3("pw", make([]byte, 16))
	require.Error(t, err)

	salt := make([]byte, 256)
	d, err := DeriveV3("pw", salt)
	require.NoError(t, err)
	assert.NotZero(t, d.Key)
	assert.Len(t, d.PasswordHash, 64)
}

func TestDeriveV3Deterministic(t *testing.T) {
	salt := make([]byte, 256)
	a, err := DeriveV3("pw", salt)
	require.NoError(t, err)
	b, err := DeriveV3("pw", salt)
	require.NoError(t, err)
	assert.Equal(t, a.Key, b.Key)
	assert.Equal(t, a.PasswordHash, b.PasswordHash)
}
