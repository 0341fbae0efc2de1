package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptChunkRoundTrip(t *testing.T) {
	key, err := RandomKey()
	require.NoError(t, err)

	cases := [][]byte{
		{},
		[]byte("hello"),
		make([]byte, 1<<20), // 1 MiB
	}

	for _, plaintext := range cases {
		ciphertext, err := EncryptChunk(key, plaintext)
		require.NoError(t, err)
		assert.Len(t, ciphertext, len(plaintext)+Overhead)

		got, err := DecryptChunk(key, ciphertext)
		require.NoError(t, err)
		assert.Equal(t, plaintext, got)
	}
}

func TestDecryptChunkWrongKeyFails(t *testing.T) {
	key1, _ := RandomKey()
	key2, _ := RandomKey()

	ciphertext, err := EncryptChunk(key1, []byte("secret"))
	require.NoError(t, err)

	_, err = DecryptChunk(key2, ciphertext)
	assert.Error(t, err)
}

func TestDecryptChunkTooShort(t *testing.T) {
	key, _ := RandomKey()
	_, err := DecryptChunk(key, []byte{1, 2, 3})
	assert.Error(t, err)
}

func TestEncryptChunkInPlace(t *testing.T) {
	key, _ := RandomKey()
	plain := []byte("in-place plaintext")
	buf := make([]byte, len(plain), len(plain)+Overhead)
	copy(buf, plain)

	n, err := EncryptChunkInPlace(key, buf, len(plain))
	require.NoError(t, err)
	assert.Equal(t, len(plain)+Overhead, n)

	got, err := DecryptChunk(key, buf[:n])
	require.NoError(t, err)
	assert.Equal(t, plain, got)
}
