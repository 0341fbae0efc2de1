package keys

import (
	"testing"

	sdkcrypto "github.com/filen-go/filen-sdk-go/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLegacyEnvelopeRoundTrip(t *testing.T) {
	key, err := sdkcrypto.RandomKey()
	require.NoError(t, err)

	for _, plaintext := range []string{"", "{\"name\":\"a.txt\"}", "unicode: héllo"} {
		envelope, err := encryptLegacy(key, plaintext)
		require.NoError(t, err)

		got, err := decryptLegacy(key, envelope)
		require.NoError(t, err)
		assert.Equal(t, plaintext, got)
	}
}

func TestV3EnvelopeRoundTrip(t *testing.T) {
	key, err := sdkcrypto.RandomKey()
	require.NoError(t, err)

	envelope, err := encryptV3(key, `{"name":"b.txt","size":10}`)
	require.NoError(t, err)
	assert.True(t, isV3Envelope(envelope))

	got, err := decryptV3(key, envelope)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"b.txt","size":10}`, got)
}

func TestMasterKeysTriesNewestFirst(t *testing.T) {
	k1, _ := sdkcrypto.RandomKey()
	k2, _ := sdkcrypto.RandomKey()
	mk := NewMasterKeys(*k1)

	envelopeUnderK1, err := mk.EncryptMeta("secret-1")
	require.NoError(t, err)

	mk.Append(*k2)
	envelopeUnderK2, err := mk.EncryptMeta("secret-2")
	require.NoError(t, err)

	got1, err := mk.DecryptMeta(envelopeUnderK1)
	require.NoError(t, err)
	assert.Equal(t, "secret-1", got1)

	got2, err := mk.DecryptMeta(envelopeUnderK2)
	require.NoError(t, err)
	assert.Equal(t, "secret-2", got2)
}

func TestAuthInfoV1LegacyEnvelopeRoundTrip(t *testing.T) {
	v1 := NewAuthInfoV1("password1")
	envelope, err := v1.EncryptMeta("hello")
	require.NoError(t, err)

	got, err := v1.DecryptMeta(envelope)
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
}

func TestAuthInfoV3EncryptsV3Envelopes(t *testing.T) {
	salt := make([]byte, 256)
	password := "correct horse battery staple"

	d, err := sdkcrypto.DeriveV3(password, salt)
	require.NoError(t, err)

	dek, err := GenerateFileKey(FileKeyV3)
	require.NoError(t, err)

	kek := d.Key
	encryptedDEK, err := encryptV3(&kek, dek.String())
	require.NoError(t, err)

	auth, err := NewAuthInfoV3(password, salt, encryptedDEK)
	require.NoError(t, err)
	assert.Equal(t, AuthV3, auth.Version())

	envelope, err := auth.EncryptMeta(`{"name":"c.txt"}`)
	require.NoError(t, err)
	assert.True(t, isV3Envelope(envelope))

	got, err := auth.DecryptMeta(envelope)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"c.txt"}`, got)
}
