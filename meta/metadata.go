// Package meta implements the metadata codec of spec.md §4.3: the
// encrypted JSON envelope carried by every File and Directory object, and
// the name-hashing scheme used for namespace lookups.
package meta

import (
	"encoding/json"

	"github.com/filen-go/filen-sdk-go/ferrors"
	"github.com/filen-go/filen-sdk-go/keys"
)

// FileMetadata is the plaintext JSON object encrypted into a File's
// "metadata" field (§4.3). Field order matches the order emitted on the
// wire so that the plaintext JSON of decode(encode(m)) re-encodes
// byte-for-byte; the ciphertext differs on every encryption because each
// uses a fresh random nonce.
type FileMetadata struct {
	Name         string  `json:"name"`
	Size         int64   `json:"size"`
	Mime         string  `json:"mime"`
	Key          string  `json:"key"`
	LastModified int64   `json:"lastModified"`
	Created      int64   `json:"created"`
	Hash         *string `json:"hash,omitempty"`
}

// DirMetadata is the plaintext JSON object encrypted into a Directory's
// "metadata" field (§4.3). Creation is optional milliseconds-since-epoch.
type DirMetadata struct {
	Name     string `json:"name"`
	Creation *int64 `json:"creation,omitempty"`
}

// EncryptFileMetadata serializes m to JSON and encrypts it through crypter.
func EncryptFileMetadata(crypter keys.MetaCrypter, m FileMetadata) (keys.EncryptedString, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return "", ferrors.NewConversionError(ferrors.KindInvalidVersion, "marshal file metadata", err)
	}
	return crypter.EncryptMeta(string(raw))
}

// DecryptFileMetadata decrypts envelope through crypter and unmarshals the
// resulting JSON into a FileMetadata.
func DecryptFileMetadata(crypter keys.MetaCrypter, envelope keys.EncryptedString) (FileMetadata, error) {
	plaintext, err := crypter.DecryptMeta(envelope)
	if err != nil {
		return FileMetadata{}, err
	}
	var m FileMetadata
	if err := json.Unmarshal([]byte(plaintext), &m); err != nil {
		return FileMetadata{}, ferrors.NewConversionError(ferrors.KindInvalidVersion, "unmarshal file metadata", err)
	}
	return m, nil
}

// EncryptDirMetadata serializes m to JSON and encrypts it through crypter.
func EncryptDirMetadata(crypter keys.MetaCrypter, m DirMetadata) (keys.EncryptedString, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return "", ferrors.NewConversionError(ferrors.KindInvalidVersion, "marshal dir metadata", err)
	}
	return crypter.EncryptMeta(string(raw))
}

// DecryptDirMetadata decrypts envelope through crypter and unmarshals the
// resulting JSON into a DirMetadata.
func DecryptDirMetadata(crypter keys.MetaCrypter, envelope keys.EncryptedString) (DirMetadata, error) {
	plaintext, err := crypter.DecryptMeta(envelope)
	if err != nil {
		return DirMetadata{}, err
	}
	var m DirMetadata
	if err := json.Unmarshal([]byte(plaintext), &m); err != nil {
		return DirMetadata{}, ferrors.NewConversionError(ferrors.KindInvalidVersion, "unmarshal dir metadata", err)
	}
	return m, nil
}
