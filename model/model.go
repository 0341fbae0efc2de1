// Package model holds the client-side representations of the objects the
// service stores: files, directories, and the chunk buffer that carries
// data between the crypto layer and the transport layer (§3).
package model

import (
	"github.com/filen-go/filen-sdk-go/keys"
)

// PlainChunkSize is the fixed plaintext window size every non-final chunk
// is encrypted from (§3: "Plaintext chunk size is exactly 1 MiB except the
// final chunk").
const PlainChunkSize = 1 << 20 // 1 MiB

// ChunkOverhead is the AEAD overhead added to every ciphertext chunk: a
// 12-byte nonce prepended and a 16-byte tag appended.
const ChunkOverhead = 28

// ChunkCapacity is the buffer capacity every chunk is allocated at,
// regardless of how much of it a given transfer actually uses.
const ChunkCapacity = PlainChunkSize + ChunkOverhead

// ChunkCount returns the number of ciphertext chunks a file of the given
// plaintext size is split into: ⌈size/1MiB⌉, except a zero-length file
// still counts as one chunk on the wire (§3).
func ChunkCount(size int64) int64 {
	if size <= 0 {
		return 1
	}
	n := size / PlainChunkSize
	if size%PlainChunkSize != 0 {
		n++
	}
	return n
}

// ParentKind discriminates the non-UUID parent sentinels a Directory may
// carry (§3).
type ParentKind int

const (
	// ParentUUID means Parent.UUID names the actual parent directory.
	ParentUUID ParentKind = iota
	ParentBase
	ParentSharedIn
	ParentSharedOut
	ParentNone
)

// Parent is the tagged union of a Directory's parent reference: either a
// concrete directory UUID or one of the sentinel roots the server uses for
// the base folder and the two shared-item views.
type Parent struct {
	Kind ParentKind
	UUID string // meaningful only when Kind == ParentUUID
}

// ParentOf builds a concrete-UUID Parent.
func ParentOf(uuid string) Parent { return Parent{Kind: ParentUUID, UUID: uuid} }

// File is the client-side view of a server file row (§3): encrypted name
// and metadata are opaque until decrypted through the account's MetaCrypter
// and the FileKey that Key unwraps.
type File struct {
	UUID             string
	ParentUUID       string
	Region           string
	Bucket           string
	EncryptedName    keys.EncryptedString
	NameHashed       string
	EncryptedMeta    keys.EncryptedString
	Chunks           int64
	Size             int64
	Mime             string
	Key              keys.FileKey
	Created          int64
	LastModified     int64
	Hash             *string // hex SHA-512 of ciphertext, optional
	Favorited        bool
	Trash            bool
	Versioned        bool
	EncryptionVersion int
}

// Directory is the client-side view of a server directory row (§3). The
// root directory is distinguished: Parent.Kind is never ParentUUID for it,
// and it carries no encrypted metadata.
type Directory struct {
	UUID          string
	Parent        Parent
	EncryptedMeta keys.EncryptedString // empty for the root directory
	Color         *string
	Favorited     bool
	IsRoot        bool
}

// RemoteFile is the result of a completed upload: enough of File's fields
// to address and re-download the object, plus the caller's FileKey (never
// persisted server-side in plaintext form).
type RemoteFile struct {
	UUID       string
	ParentUUID string
	Region     string
	Bucket     string
	Chunks     int64
	Size       int64
	Key        keys.FileKey
}
