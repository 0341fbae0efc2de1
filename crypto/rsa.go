package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1" //nolint:gosec // required for the v2 SHA-1 name-hash scheme, not for signatures
	"crypto/sha256"
	"crypto/sha512"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"io"

	"github.com/filen-go/filen-sdk-go/ferrors"
	"golang.org/x/crypto/hkdf"
)

// RSAKeyBits is the RSA modulus size used for the account sharing key pair
// (§4.1).
const RSAKeyBits = 4096

// hmacKeyInfo is the HKDF "info" parameter used to derive the name-hashing
// HMAC key from the RSA private exponent (§4.1, §3).
var hmacKeyInfo = []byte("hmac-sha256-key")

// GenerateRSAKeyPair creates a fresh 4096-bit RSA key pair.
func GenerateRSAKeyPair() (*rsa.PrivateKey, error) {
	key, err := rsa.GenerateKey(rand.Reader, RSAKeyBits)
	if err != nil {
		return nil, ferrors.NewConversionError(ferrors.KindPkcs8, "generate RSA key pair", err)
	}
	return key, nil
}

// EncodePrivateKeyPKCS8 serializes priv to PKCS#8 DER and base64-encodes it,
// the transit representation used when the private key travels inside a
// metadata-encrypted envelope (§4.1).
func EncodePrivateKeyPKCS8(priv *rsa.PrivateKey) (string, error) {
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return "", ferrors.NewConversionError(ferrors.KindPkcs8, "marshal PKCS#8 private key", err)
	}
	return base64.StdEncoding.EncodeToString(der), nil
}

// DecodePrivateKeyPKCS8 reverses EncodePrivateKeyPKCS8.
func DecodePrivateKeyPKCS8(b64 string) (*rsa.PrivateKey, error) {
	der, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, ferrors.NewConversionError(ferrors.KindBase64Decode, "decode PKCS#8 private key", err)
	}
	key, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, ferrors.NewConversionError(ferrors.KindPkcs8, "parse PKCS#8 private key", err)
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, ferrors.NewConversionError(ferrors.KindPkcs8, "PKCS#8 key is not RSA", nil)
	}
	return rsaKey, nil
}

// EncodePublicKeySPKI serializes pub to SPKI DER and base64-encodes it.
func EncodePublicKeySPKI(pub *rsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", ferrors.NewConversionError(ferrors.KindPkcs8, "marshal SPKI public key", err)
	}
	return base64.StdEncoding.EncodeToString(der), nil
}

// DecodePublicKeySPKI reverses EncodePublicKeySPKI.
func DecodePublicKeySPKI(b64 string) (*rsa.PublicKey, error) {
	der, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, ferrors.NewConversionError(ferrors.KindBase64Decode, "decode SPKI public key", err)
	}
	key, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, ferrors.NewConversionError(ferrors.KindPkcs8, "parse SPKI public key", err)
	}
	rsaKey, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, ferrors.NewConversionError(ferrors.KindPkcs8, "SPKI key is not RSA", nil)
	}
	return rsaKey, nil
}

// CheckKeyPair verifies that priv's public half equals pub, returning
// ferrors.ErrInvalidKeyPair when they diverge (§3's round-trip invariant).
func CheckKeyPair(priv *rsa.PrivateKey, pub *rsa.PublicKey) error {
	if priv.PublicKey.N.Cmp(pub.N) != 0 || priv.PublicKey.E != pub.E {
		return ferrors.ErrInvalidKeyPair
	}
	return nil
}

// RSAEncryptOAEP encrypts plaintext for pub using RSA-OAEP with SHA-512,
// base64-encoding the result (§4.1).
func RSAEncryptOAEP(pub *rsa.PublicKey, plaintext []byte) (string, error) {
	ciphertext, err := rsa.EncryptOAEP(sha512.New(), rand.Reader, pub, plaintext, nil)
	if err != nil {
		return "", ferrors.NewConversionError(ferrors.KindAeadFailure, "RSA-OAEP encrypt", err)
	}
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// RSADecryptOAEP reverses RSAEncryptOAEP.
func RSADecryptOAEP(priv *rsa.PrivateKey, b64ciphertext string) ([]byte, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(b64ciphertext)
	if err != nil {
		return nil, ferrors.NewConversionError(ferrors.KindBase64Decode, "decode RSA-OAEP ciphertext", err)
	}
	plaintext, err := rsa.DecryptOAEP(sha512.New(), rand.Reader, priv, ciphertext, nil)
	if err != nil {
		return nil, ferrors.NewConversionError(ferrors.KindAeadFailure, "RSA-OAEP decrypt", err)
	}
	return plaintext, nil
}

// DeriveNameHashKey derives the 32-byte HMAC key used for v3 name hashing
// (§3, §4.1) via HKDF-SHA256 from the RSA private key's "d" component
// (big-endian bytes), with info = "hmac-sha256-key".
func DeriveNameHashKey(priv *rsa.PrivateKey) ([32]byte, error) {
	var out [32]byte
	reader := hkdf.New(sha256.New, priv.D.Bytes(), nil, hmacKeyInfo)
	if _, err := io.ReadFull(reader, out[:]); err != nil {
		return out, ferrors.NewConversionError(ferrors.KindInvalidVersion, "derive name-hash key via HKDF", err)
	}
	return out, nil
}

// NameHashV2 implements the v2 legacy name-hash scheme: hex(SHA-1(lowercased
// UTF-8 name)).
func NameHashV2(lowercasedName string) string {
	sum := sha1.Sum([]byte(lowercasedName)) //nolint:gosec
	return hex.EncodeToString(sum[:])
}
