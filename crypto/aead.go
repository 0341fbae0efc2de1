package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"io"

	"github.com/filen-go/filen-sdk-go/ferrors"
)

const (
	// NonceSize is the AES-GCM nonce length used throughout the SDK.
	NonceSize = 12
	// TagSize is the AES-GCM authentication tag length.
	TagSize = 16
	// Overhead is the total per-chunk ciphertext overhead: nonce + tag.
	Overhead = NonceSize + TagSize
)

// EncryptChunk AEAD-encrypts plaintext with AES-256-GCM under key, using a
// fresh random 12-byte nonce. The result is nonce || ciphertext || tag,
// matching the data-chunk envelope in §4.1.
func EncryptChunk(key *[32]byte, plaintext []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, ferrors.NewConversionError(ferrors.KindAeadFailure, "generate nonce", err)
	}

	out := make([]byte, 0, len(nonce)+len(plaintext)+TagSize)
	out = append(out, nonce...)
	out = gcm.Seal(out, nonce, plaintext, nil)
	return out, nil
}

// DecryptChunk reverses EncryptChunk: it splits the leading 12-byte nonce
// from ciphertext and opens the remainder, verifying the trailing 16-byte
// tag.
func DecryptChunk(key *[32]byte, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < Overhead {
		return nil, ferrors.NewConversionError(ferrors.KindInvalidStringLength,
			"ciphertext shorter than nonce+tag overhead", nil)
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce, body := ciphertext[:NonceSize], ciphertext[NonceSize:]
	plaintext, err := gcm.Open(nil, nonce, body, nil)
	if err != nil {
		return nil, ferrors.NewConversionError(ferrors.KindAeadFailure, "decrypt chunk", err)
	}
	return plaintext, nil
}

// EncryptChunkInPlace encrypts plaintext held in buf[:n] and writes
// nonce||ciphertext||tag back into buf, returning the new length. buf must
// have capacity for n + Overhead bytes (the chunk pool guarantees this —
// see chunkpool.Chunk).
func EncryptChunkInPlace(key *[32]byte, buf []byte, n int) (int, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return 0, err
	}
	if cap(buf) < n+Overhead {
		return 0, ferrors.NewConversionError(ferrors.KindInvalidStringLength,
			"chunk buffer too small for in-place encryption", nil)
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return 0, ferrors.NewConversionError(ferrors.KindAeadFailure, "generate nonce", err)
	}

	plaintext := append([]byte(nil), buf[:n]...)
	out := buf[:0]
	out = append(out, nonce...)
	out = gcm.Seal(out, nonce, plaintext, nil)
	return len(out), nil
}

func newGCM(key *[32]byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, ferrors.NewConversionError(ferrors.KindAeadFailure, "new cipher", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, ferrors.NewConversionError(ferrors.KindAeadFailure, "new gcm", err)
	}
	return gcm, nil
}

// RandomKey returns a fresh random 32-byte key from the OS CSPRNG.
func RandomKey() (*[32]byte, error) {
	var key [32]byte
	if _, err := io.ReadFull(rand.Reader, key[:]); err != nil {
		return nil, ferrors.NewConversionError(ferrors.KindAeadFailure, "generate random key", err)
	}
	return &key, nil
}
