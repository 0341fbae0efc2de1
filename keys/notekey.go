package keys

// NoteKey is a FileKey-shaped symmetric key used to encrypt note content.
// spec.md §9 names AuthInfo, FileKey, NoteKey, and ParentUuid as the
// closed tagged-union set of the key hierarchy; notes themselves are out of
// this SDK's explicit scope (§1), so NoteKey exists only as a parseable
// sibling type, with no note CRUD built on top of it.
type NoteKey struct {
	inner *FileKey
}

// ParseNoteKey decodes a serialized NoteKey using the same 32/64-length
// disambiguation rule as FileKey.
func ParseNoteKey(s string) (*NoteKey, error) {
	fk, err := ParseFileKey(s)
	if err != nil {
		return nil, err
	}
	return &NoteKey{inner: fk}, nil
}

// GenerateNoteKey creates a fresh random NoteKey in the given version.
func GenerateNoteKey(version FileKeyVersion) (*NoteKey, error) {
	fk, err := GenerateFileKey(version)
	if err != nil {
		return nil, err
	}
	return &NoteKey{inner: fk}, nil
}

func (k *NoteKey) String() string { return k.inner.String() }

func (k *NoteKey) EncryptData(plaintext []byte) ([]byte, error) { return k.inner.EncryptData(plaintext) }

func (k *NoteKey) DecryptData(ciphertext []byte) ([]byte, error) { return k.inner.DecryptData(ciphertext) }
