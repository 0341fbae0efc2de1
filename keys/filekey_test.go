package keys

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileKeyDiscriminantByLength(t *testing.T) {
	v2, err := ParseFileKey("012345678901234567890123456789012") // 33 chars -> invalid
	assert.Nil(t, v2)
	assert.Error(t, err)

	thirtyTwo := "0123456789012345678901234567890a" // 32 chars
	k, err := ParseFileKey(thirtyTwo)
	require.NoError(t, err)
	assert.Equal(t, FileKeyV2, k.Version())

	sixtyFour := "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef" // 64 hex chars
	k2, err := ParseFileKey(sixtyFour)
	require.NoError(t, err)
	assert.Equal(t, FileKeyV3, k2.Version())

	_, err = ParseFileKey("too-short")
	assert.Error(t, err)
}

func TestFileKeyGenerateRoundTrip(t *testing.T) {
	for _, v := range []FileKeyVersion{FileKeyV2, FileKeyV3} {
		k, err := GenerateFileKey(v)
		require.NoError(t, err)

		serialized := k.String()
		parsed, err := ParseFileKey(serialized)
		require.NoError(t, err)
		assert.Equal(t, k.RawKey(), parsed.RawKey())

		ciphertext, err := k.EncryptData([]byte("payload"))
		require.NoError(t, err)
		plaintext, err := parsed.DecryptData(ciphertext)
		require.NoError(t, err)
		assert.Equal(t, "payload", string(plaintext))
	}
}
