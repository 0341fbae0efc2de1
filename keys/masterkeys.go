package keys

import "github.com/filen-go/filen-sdk-go/ferrors"

// MasterKeys is the v2 (and v1) analogue of the DEK: an ordered, non-empty
// list of 32-byte symmetric keys. Encryption always uses the newest
// (last) key; decryption tries every key newest-first, so access survives a
// password change that appends a new key without invalidating envelopes
// written under an older one (§4.2).
//
// The list is append-only after login (§5): never mutated concurrently with
// reads.
type MasterKeys struct {
	keys [][32]byte
}

// NewMasterKeys builds a MasterKeys list from one or more 32-byte keys,
// oldest first.
func NewMasterKeys(first [32]byte, rest ...[32]byte) *MasterKeys {
	keys := make([][32]byte, 0, 1+len(rest))
	keys = append(keys, first)
	keys = append(keys, rest...)
	return &MasterKeys{keys: keys}
}

// Append adds a new, newest key to the list (used after a password change).
func (m *MasterKeys) Append(key [32]byte) {
	m.keys = append(m.keys, key)
}

// Newest returns the most recently appended key, the one used for
// encryption.
func (m *MasterKeys) Newest() [32]byte {
	return m.keys[len(m.keys)-1]
}

// Len reports how many keys are in the list.
func (m *MasterKeys) Len() int { return len(m.keys) }

// EncryptMeta implements MetaCrypter using the newest key and the legacy
// (v1/v2) envelope shape.
func (m *MasterKeys) EncryptMeta(plaintext string) (EncryptedString, error) {
	key := m.Newest()
	return encryptLegacy(&key, plaintext)
}

// DecryptMeta implements MetaCrypter. It tries every key newest-first,
// returning the first successful decryption; all keys failing is a fatal
// ConversionError.
func (m *MasterKeys) DecryptMeta(envelope EncryptedString) (string, error) {
	var lastErr error
	for i := len(m.keys) - 1; i >= 0; i-- {
		key := m.keys[i]
		plaintext, err := decryptLegacy(&key, envelope)
		if err == nil {
			return plaintext, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = ferrors.NewConversionError(ferrors.KindAeadFailure, "no master keys configured", nil)
	}
	return "", lastErr
}
