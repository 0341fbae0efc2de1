// Package keys implements the key hierarchy of spec.md §4.2: AuthInfo
// (v1/v2/v3), FileKey, MasterKeys, NoteKey, and the MetaCrypter capability
// that encrypts/decrypts the metadata envelope string used by every
// filesystem object.
//
// Grounded on the teacher's internal/crypto/keychain.go wrap/unwrap shape,
// generalized from a single DEK to the three coexisting auth versions and
// the per-file key variants.
package keys

import (
	"crypto/rand"
	"encoding/hex"

	sdkcrypto "github.com/filen-go/filen-sdk-go/crypto"
	"github.com/filen-go/filen-sdk-go/ferrors"
)

// fileKeyAlphabet is the character set used for v2 file keys: the key bytes
// ARE the ASCII bytes of a random 32-character string drawn from this set,
// matching the closed-vocabulary "stored as UTF-8 string" rule in §3.
const fileKeyAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// FileKeyVersion discriminates the two FileKey encodings (§3, §8 property 6).
type FileKeyVersion int

const (
	FileKeyV2 FileKeyVersion = 2
	FileKeyV3 FileKeyVersion = 3
)

// FileKey is the per-file symmetric key, tagged by the encoding version used
// to serialize it inside the file's metadata JSON ("key" field). Both
// variants wrap the same 32-byte AES-256 key; only the wire representation
// differs.
type FileKey struct {
	version FileKeyVersion
	key     [32]byte
}

// GenerateFileKey creates a fresh random FileKey in the given version.
func GenerateFileKey(version FileKeyVersion) (*FileKey, error) {
	switch version {
	case FileKeyV2:
		var key [32]byte
		raw := make([]byte, 32)
		if _, err := rand.Read(raw); err != nil {
			return nil, ferrors.NewConversionError(ferrors.KindAeadFailure, "generate v2 file key", err)
		}
		for i, b := range raw {
			key[i] = fileKeyAlphabet[int(b)%len(fileKeyAlphabet)]
		}
		return &FileKey{version: FileKeyV2, key: key}, nil
	case FileKeyV3:
		key, err := sdkcrypto.RandomKey()
		if err != nil {
			return nil, err
		}
		return &FileKey{version: FileKeyV3, key: *key}, nil
	default:
		return nil, ferrors.NewConversionError(ferrors.KindInvalidVersion, "unknown file key version", nil)
	}
}

// ParseFileKey decodes the serialized form of a FileKey. A 32-character
// string parses as v2 (the characters ARE the key bytes); a 64-character hex
// string parses as v3; any other length is a ConversionError (§8 property 6).
func ParseFileKey(s string) (*FileKey, error) {
	switch len(s) {
	case 32:
		var key [32]byte
		copy(key[:], s)
		return &FileKey{version: FileKeyV2, key: key}, nil
	case 64:
		decoded, err := hex.DecodeString(s)
		if err != nil {
			return nil, ferrors.NewConversionError(ferrors.KindHexDecode, "parse v3 file key", err)
		}
		var key [32]byte
		copy(key[:], decoded)
		return &FileKey{version: FileKeyV3, key: key}, nil
	default:
		return nil, ferrors.NewConversionError(ferrors.KindInvalidStringLength,
			"file key must be 32 (v2) or 64 (v3) characters", nil)
	}
}

// Version reports which encoding this FileKey uses.
func (k *FileKey) Version() FileKeyVersion { return k.version }

// String serializes the FileKey back to its wire representation: the raw
// 32-character string for v2, or 64-character hex for v3.
func (k *FileKey) String() string {
	switch k.version {
	case FileKeyV2:
		return string(k.key[:])
	default:
		return hex.EncodeToString(k.key[:])
	}
}

// EncryptData AEAD-encrypts plaintext with this file's key (§4.2).
func (k *FileKey) EncryptData(plaintext []byte) ([]byte, error) {
	return sdkcrypto.EncryptChunk(&k.key, plaintext)
}

// DecryptData reverses EncryptData.
func (k *FileKey) DecryptData(ciphertext []byte) ([]byte, error) {
	return sdkcrypto.DecryptChunk(&k.key, ciphertext)
}

// EncryptDataInPlace encrypts buf[:n] in place for the upload chunking path.
func (k *FileKey) EncryptDataInPlace(buf []byte, n int) (int, error) {
	return sdkcrypto.EncryptChunkInPlace(&k.key, buf, n)
}

// RawKey exposes the underlying 32-byte key, e.g. for tests.
func (k *FileKey) RawKey() [32]byte { return k.key }
