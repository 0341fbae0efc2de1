package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRSAKeyPairRoundTrip(t *testing.T) {
	priv, err := GenerateRSAKeyPair()
	require.NoError(t, err)

	privB64, err := EncodePrivateKeyPKCS8(priv)
	require.NoError(t, err)
	pubB64, err := EncodePublicKeySPKI(&priv.PublicKey)
	require.NoError(t, err)

	decodedPriv, err := DecodePrivateKeyPKCS8(privB64)
	require.NoError(t, err)
	decodedPub, err := DecodePublicKeySPKI(pubB64)
	require.NoError(t, err)

	require.NoError(t, CheckKeyPair(decodedPriv, decodedPub))
}

func TestCheckKeyPairMismatch(t *testing.T) {
	priv1, err := GenerateRSAKeyPair()
	require.NoError(t, err)
	priv2, err := GenerateRSAKeyPair()
	require.NoError(t, err)

	err = CheckKeyPair(priv1, &priv2.PublicKey)
	assert.Error(t, err)
}

func TestRSAOAEPRoundTrip(t *testing.T) {
	priv, err := GenerateRSAKeyPair()
	require.NoError(t, err)

	plaintext := []byte("a 32-byte-ish metadata key value")
	ciphertext, err := RSAEncryptOAEP(&priv.PublicKey, plaintext)
	require.NoError(t, err)

	got, err := RSADecryptOAEP(priv, ciphertext)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestDeriveNameHashKeyDeterministic(t *testing.T) {
	priv, err := GenerateRSAKeyPair()
	require.NoError(t, err)

	a, err := DeriveNameHashKey(priv)
	require.NoError(t, err)
	b, err := DeriveNameHashKey(priv)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestNameHashV2Stable(t *testing.T) {
	assert.Equal(t, NameHashV2("myfile.txt"), NameHashV2("myfile.txt"))
	assert.NotEqual(t, NameHashV2("a.txt"), NameHashV2("b.txt"))
}
