// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package crypto implements the cryptographic primitives of §4.1: password
// key derivation for all three auth versions, AES-256-GCM AEAD for data
// chunks and metadata envelopes, HKDF-SHA256 for the name-hashing HMAC key,
// and RSA-4096/OAEP for the sharing key pair.
//
// Grounded on the teacher's internal/crypto/keychain.go (Argon2id KEK
// derivation and AES-GCM wrap/unwrap), generalized from a single-version
// password manager KDF to the three coexisting Filen auth versions.
package crypto

import (
	"crypto/sha512"
	"encoding/hex"
	"fmt"

	"github.com/filen-go/filen-sdk-go/ferrors"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"
)

const (
	v1v2Iterations = 200_000
	v1v2KeyLen     = 64

	argon2Time    = 3
	argon2Memory  = 64 * 1024 // 64 MiB
	argon2Threads = 4
	argon2KeyLen  = 64
)

// DerivedPassword is the KDF output split into the key material handed to
// the key hierarchy and the hex-encoded password hash sent to the server
// during login.
type DerivedPassword struct {
	// Key is the first 32 bytes of KDF output: the v1/v2 master key or the
	// v3 key-encryption key, depending on version.
	Key [32]byte
	// PasswordHash is the hex-encoded value sent to the server as proof of
	// knowledge of the password.
	PasswordHash string
}

// DeriveV1 implements the legacy v1 KDF (§4.1): the salt is the password
// itself, encoded as UTF-8 bytes.
func DeriveV1(password string) DerivedPassword {
	return deriveHMACSHA512(password, []byte(password))
}

// DeriveV2 implements the v2 KDF (§4.1): identical algorithm to v1, but the
// salt is the server-supplied 16-byte value.
func DeriveV2(password string, salt []byte) (DerivedPassword, error) {
	if len(salt) != 16 {
		return DerivedPassword{}, ferrors.NewConversionError(
			ferrors.KindInvalidStringLength, "v2 salt must be 16 bytes", nil)
	}
	return deriveHMACSHA512(password, salt), nil
}

// deriveHMACSHA512 computes raw = PBKDF2-HMAC-SHA512(password, salt,
// 200_000, 64), then splits it: the first 32 bytes (hex-encoded) become the
// master key, and SHA-512(hex(raw)) (hex-encoded) becomes the derived
// password sent to the server. This matches the shared v1/v2 algorithm in
// spec.md §4.1.
func deriveHMACSHA512(password string, salt []byte) DerivedPassword {
	raw := pbkdf2.Key([]byte(password), salt, v1v2Iterations, v1v2KeyLen, sha512.New)
	rawHex := hex.EncodeToString(raw)

	keyHex := rawHex[:64] // first 32 bytes as hex
	var key [32]byte
	decoded, _ := hex.DecodeString(keyHex)
	copy(key[:], decoded)

	sum := sha512.Sum512([]byte(rawHex))
	return DerivedPassword{
		Key:          key,
		PasswordHash: hex.EncodeToString(sum[:]),
	}
}

// DeriveV3 implements the v3 KDF (§4.1): Argon2id(password, salt, t=3,
// m=65536, p=4, out=64). The first 32 bytes are the key-encryption key
// (KEK); the last 32 bytes, hex-encoded, are the derived password hash.
func DeriveV3(password string, salt []byte) (DerivedPassword, error) {
	if len(salt) != 256 {
		return DerivedPassword{}, ferrors.NewConversionError(
			ferrors.KindInvalidStringLength, "v3 salt must be 256 bytes", nil)
	}

	out := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
	if len(out) != 64 {
		return DerivedPassword{}, ferrors.NewConversionError(
			ferrors.KindArgon2, fmt.Sprintf("unexpected argon2 output length %d", len(out)), nil)
	}

	var kek [32]byte
	copy(kek[:], out[:32])

	return DerivedPassword{
		Key:          kek,
		PasswordHash: hex.EncodeToString(out[32:]),
	}, nil
}
