package keys

import (
	"encoding/base64"
	"encoding/hex"
	"strings"

	sdkcrypto "github.com/filen-go/filen-sdk-go/crypto"
	"github.com/filen-go/filen-sdk-go/ferrors"
)

// MetaCrypter is the capability every metadata-bearing object needs: encrypt
// a plaintext JSON string into the versioned envelope, and decrypt an
// envelope back to plaintext (§4.2).
type MetaCrypter interface {
	EncryptMeta(plaintext string) (EncryptedString, error)
	DecryptMeta(envelope EncryptedString) (string, error)
}

// EncryptedString is the string form of an encrypted metadata payload,
// prefixed (or shaped) to identify its envelope version (§GLOSSARY).
type EncryptedString string

// v3 envelope layout: "003" prefix + 24 hex chars (12-byte nonce) + base64
// of (ciphertext || 16-byte tag).
const (
	v3Prefix     = "003"
	v3NonceHex   = 24 // 12 bytes
	v3PrefixLen  = len(v3Prefix) + v3NonceHex
	legacyIVTagB64Len = 40 // base64 of 12-byte nonce + 16-byte tag (28 bytes, padded)
)

// encryptLegacy implements the v1/v2 envelope: hex(ciphertext) ||
// base64(nonce || tag). The trailing base64 block has a fixed 40-character
// length (28 raw bytes, standard padded encoding), which is what lets a
// decoder split the envelope unambiguously despite there being no separator
// (§4.2).
func encryptLegacy(key *[32]byte, plaintext string) (EncryptedString, error) {
	sealed, err := sdkcrypto.EncryptChunk(key, []byte(plaintext))
	if err != nil {
		return "", err
	}
	nonce := sealed[:sdkcrypto.NonceSize]
	body := sealed[sdkcrypto.NonceSize:]
	tag := body[len(body)-sdkcrypto.TagSize:]
	ciphertext := body[:len(body)-sdkcrypto.TagSize]

	ivTag := append(append([]byte(nil), nonce...), tag...)
	envelope := hex.EncodeToString(ciphertext) + base64.StdEncoding.EncodeToString(ivTag)
	return EncryptedString(envelope), nil
}

// decryptLegacy reverses encryptLegacy.
func decryptLegacy(key *[32]byte, envelope EncryptedString) (string, error) {
	s := string(envelope)
	if len(s) < legacyIVTagB64Len {
		return "", ferrors.NewConversionError(ferrors.KindInvalidStringLength,
			"legacy envelope shorter than iv||tag block", nil)
	}

	hexPart := s[:len(s)-legacyIVTagB64Len]
	b64Part := s[len(s)-legacyIVTagB64Len:]

	ciphertext, err := hex.DecodeString(hexPart)
	if err != nil {
		return "", ferrors.NewConversionError(ferrors.KindHexDecode, "decode legacy ciphertext", err)
	}
	ivTag, err := base64.StdEncoding.DecodeString(b64Part)
	if err != nil {
		return "", ferrors.NewConversionError(ferrors.KindBase64Decode, "decode legacy iv||tag", err)
	}
	if len(ivTag) != sdkcrypto.NonceSize+sdkcrypto.TagSize {
		return "", ferrors.NewConversionError(ferrors.KindInvalidStringLength,
			"legacy iv||tag has wrong length", nil)
	}

	nonce := ivTag[:sdkcrypto.NonceSize]
	tag := ivTag[sdkcrypto.NonceSize:]
	sealed := append(append(append([]byte(nil), nonce...), ciphertext...), tag...)

	plaintext, err := sdkcrypto.DecryptChunk(key, sealed)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// encryptV3 implements the v3 envelope: "003" || hex(nonce) ||
// base64(ciphertext || tag).
func encryptV3(key *[32]byte, plaintext string) (EncryptedString, error) {
	sealed, err := sdkcrypto.EncryptChunk(key, []byte(plaintext))
	if err != nil {
		return "", err
	}
	nonce := sealed[:sdkcrypto.NonceSize]
	rest := sealed[sdkcrypto.NonceSize:]

	envelope := v3Prefix + hex.EncodeToString(nonce) + base64.StdEncoding.EncodeToString(rest)
	return EncryptedString(envelope), nil
}

// decryptV3 reverses encryptV3.
func decryptV3(key *[32]byte, envelope EncryptedString) (string, error) {
	s := string(envelope)
	if len(s) < v3PrefixLen || !strings.HasPrefix(s, v3Prefix) {
		return "", ferrors.NewConversionError(ferrors.KindInvalidVersion, "not a v3 envelope", nil)
	}

	nonce, err := hex.DecodeString(s[len(v3Prefix):v3PrefixLen])
	if err != nil {
		return "", ferrors.NewConversionError(ferrors.KindHexDecode, "decode v3 nonce", err)
	}
	rest, err := base64.StdEncoding.DecodeString(s[v3PrefixLen:])
	if err != nil {
		return "", ferrors.NewConversionError(ferrors.KindBase64Decode, "decode v3 ciphertext||tag", err)
	}

	sealed := append(append([]byte(nil), nonce...), rest...)
	plaintext, err := sdkcrypto.DecryptChunk(key, sealed)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// isV3Envelope reports whether an envelope carries the v3 prefix, used to
// pick the right decoder when a crypter must accept both shapes.
func isV3Envelope(envelope EncryptedString) bool {
	return strings.HasPrefix(string(envelope), v3Prefix)
}
