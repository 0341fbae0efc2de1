package meta

import (
	"crypto/hmac"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	sdkcrypto "github.com/filen-go/filen-sdk-go/crypto"
)

// NameHasher computes the name_hashed field every non-root object sends on
// create (§3, §4.3): hash(lowercase(name)) must match what was submitted,
// and two files may collide on name_hashed but (parent_uuid, name_hashed)
// stays unique within the namespace — enforced server-side, not here.
type NameHasher interface {
	HashName(name string) string
}

// v2NameHasher implements the legacy scheme: hex(SHA-1(lowercased name)).
type v2NameHasher struct{}

// NewV2NameHasher returns the stateless v2/v1 name hasher.
func NewV2NameHasher() NameHasher { return v2NameHasher{} }

func (v2NameHasher) HashName(name string) string {
	return sdkcrypto.NameHashV2(strings.ToLower(name))
}

// v3NameHasher implements the v3 scheme: hex(HMAC-SHA256(lowercased name))
// keyed by a key derived via HKDF-SHA256 from the RSA private key's
// modular-inverse ("d") bytes.
type v3NameHasher struct {
	key [32]byte
}

// NewV3NameHasher derives the HMAC key from priv and returns a NameHasher.
func NewV3NameHasher(priv *rsa.PrivateKey) (NameHasher, error) {
	key, err := sdkcrypto.DeriveNameHashKey(priv)
	if err != nil {
		return nil, err
	}
	return &v3NameHasher{key: key}, nil
}

func (h *v3NameHasher) HashName(name string) string {
	mac := hmac.New(sha256.New, h.key[:])
	mac.Write([]byte(strings.ToLower(name)))
	return hex.EncodeToString(mac.Sum(nil))
}
