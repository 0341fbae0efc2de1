package keys

import (
	"crypto/rsa"

	sdkcrypto "github.com/filen-go/filen-sdk-go/crypto"
)

// AuthVersion discriminates the three coexisting login protocols (§3).
type AuthVersion int

const (
	AuthV1 AuthVersion = 1
	AuthV2 AuthVersion = 2
	AuthV3 AuthVersion = 3
)

// AuthInfo is the closed tagged union described in §3/§9: new variants may
// be added in the future, but v1, v2, and v3 must always remain
// constructable from persisted state. Every variant is also a MetaCrypter:
// v1 and v2 crypt through their MasterKeys, v3 crypts through its DEK.
type AuthInfo interface {
	MetaCrypter
	Version() AuthVersion
	// PasswordHash is the hex-encoded proof-of-knowledge value sent to the
	// server during login.
	PasswordHash() string
}

// dekCrypter is a MetaCrypter backed by a single 32-byte key (the v3 DEK),
// emitting and accepting only the v3 envelope shape, but ABLE to fall back
// to decrypting legacy envelopes too, since "all three clients must decrypt
// v1 and v2 envelopes" (§4.2) — a v3 account can still encounter legacy
// metadata left over from before a client upgrade.
type dekCrypter struct {
	key        [32]byte
	legacyKeys *MasterKeys // optional, for decrypting inherited legacy envelopes
}

func (d *dekCrypter) EncryptMeta(plaintext string) (EncryptedString, error) {
	return encryptV3(&d.key, plaintext)
}

func (d *dekCrypter) DecryptMeta(envelope EncryptedString) (string, error) {
	if isV3Envelope(envelope) {
		return decryptV3(&d.key, envelope)
	}
	if d.legacyKeys != nil {
		if s, err := d.legacyKeys.DecryptMeta(envelope); err == nil {
			return s, nil
		}
	}
	return decryptLegacy(&d.key, envelope)
}

// AuthInfoV1 is the legacy variant: master key and password hash are
// derived from the password alone (no server-supplied salt). Per spec.md
// §9's open question, only the read path (decrypting v1/legacy envelopes
// restored from persisted config) is implemented; v1 accounts never log in
// fresh through this SDK.
type AuthInfoV1 struct {
	masterKeys   *MasterKeys
	passwordHash string
}

// NewAuthInfoV1 derives the v1 master key and password hash from password
// alone.
func NewAuthInfoV1(password string) *AuthInfoV1 {
	d := sdkcrypto.DeriveV1(password)
	return &AuthInfoV1{masterKeys: NewMasterKeys(d.Key), passwordHash: d.PasswordHash}
}

func (a *AuthInfoV1) Version() AuthVersion       { return AuthV1 }
func (a *AuthInfoV1) PasswordHash() string       { return a.passwordHash }
func (a *AuthInfoV1) EncryptMeta(p string) (EncryptedString, error) { return a.masterKeys.EncryptMeta(p) }
func (a *AuthInfoV1) DecryptMeta(e EncryptedString) (string, error) { return a.masterKeys.DecryptMeta(e) }

// AuthInfoV2 derives the master key and password hash from password + a
// server-provided 16-byte salt, and keeps the full append-only MasterKeys
// list the server returns (possibly more than one key, across password
// changes).
type AuthInfoV2 struct {
	masterKeys   *MasterKeys
	passwordHash string
}

// NewAuthInfoV2 derives the v2 master key from password+salt and seeds a
// MasterKeys list. If the server already returned prior keys (a password
// rotation history), append them oldest-first via MasterKeys.Append before
// use.
func NewAuthInfoV2(password string, salt []byte) (*AuthInfoV2, error) {
	d, err := sdkcrypto.DeriveV2(password, salt)
	if err != nil {
		return nil, err
	}
	return &AuthInfoV2{masterKeys: NewMasterKeys(d.Key), passwordHash: d.PasswordHash}, nil
}

func (a *AuthInfoV2) Version() AuthVersion       { return AuthV2 }
func (a *AuthInfoV2) PasswordHash() string       { return a.passwordHash }
func (a *AuthInfoV2) MasterKeys() *MasterKeys    { return a.masterKeys }
func (a *AuthInfoV2) EncryptMeta(p string) (EncryptedString, error) { return a.masterKeys.EncryptMeta(p) }
func (a *AuthInfoV2) DecryptMeta(e EncryptedString) (string, error) { return a.masterKeys.DecryptMeta(e) }

// AuthInfoV3 derives a KEK from password + a 256-byte salt; the server
// returns an encrypted DEK, itself wrapped as a metadata envelope under the
// KEK, which AuthInfoV3 unwraps during construction. DEK is the only
// metadata crypter for v3 accounts (§3).
type AuthInfoV3 struct {
	passwordHash string
	crypter      *dekCrypter
}

// NewAuthInfoV3 derives the KEK from password+salt, decrypts encryptedDEK
// (a KEK-encrypted metadata envelope) to recover the plaintext DEK hex
// string, and parses it as a 32-byte key.
func NewAuthInfoV3(password string, salt []byte, encryptedDEK EncryptedString) (*AuthInfoV3, error) {
	d, err := sdkcrypto.DeriveV3(password, salt)
	if err != nil {
		return nil, err
	}
	kek := d.Key

	dekHex, err := decryptV3(&kek, encryptedDEK)
	if err != nil {
		// v3 KEKs may also receive a legacy-shaped envelope in edge cases;
		// fall back before failing outright.
		dekHex, err = decryptLegacy(&kek, encryptedDEK)
		if err != nil {
			return nil, err
		}
	}

	fk, err := ParseFileKey(dekHex)
	if err != nil {
		return nil, err
	}

	return &AuthInfoV3{
		passwordHash: d.PasswordHash,
		crypter:      &dekCrypter{key: fk.RawKey()},
	}, nil
}

func (a *AuthInfoV3) Version() AuthVersion       { return AuthV3 }
func (a *AuthInfoV3) PasswordHash() string       { return a.passwordHash }
func (a *AuthInfoV3) EncryptMeta(p string) (EncryptedString, error) { return a.crypter.EncryptMeta(p) }
func (a *AuthInfoV3) DecryptMeta(e EncryptedString) (string, error) { return a.crypter.DecryptMeta(e) }

// SetLegacyKeys equips a v3 account's crypter with a MasterKeys list so it
// can decrypt metadata left over from before the account upgraded to v3
// (§4.2: "all three clients must decrypt v1 and v2 envelopes").
func (a *AuthInfoV3) SetLegacyKeys(mk *MasterKeys) {
	a.crypter.legacyKeys = mk
}

// RSAKeyPairFromMeta decrypts a metadata-encrypted PKCS#8 private key
// envelope and verifies it against the server-stored public key, returning
// ferrors.ErrInvalidKeyPair on mismatch (§3).
func RSAKeyPairFromMeta(crypter MetaCrypter, encryptedPrivateKey EncryptedString, publicKeyB64 string) (*rsa.PrivateKey, *rsa.PublicKey, error) {
	privB64, err := crypter.DecryptMeta(encryptedPrivateKey)
	if err != nil {
		return nil, nil, err
	}
	priv, err := sdkcrypto.DecodePrivateKeyPKCS8(privB64)
	if err != nil {
		return nil, nil, err
	}
	pub, err := sdkcrypto.DecodePublicKeySPKI(publicKeyB64)
	if err != nil {
		return nil, nil, err
	}
	if err := sdkcrypto.CheckKeyPair(priv, pub); err != nil {
		return nil, nil, err
	}
	return priv, pub, nil
}
