// Package filen is a Go client SDK for Filen.io's end-to-end encrypted
// cloud storage service.
//
// Login establishes an authenticated session:
//
//	client, err := filen.Login(ctx, email, password, "", filen.DefaultClientOptions())
//
// The returned Client exposes the directory tree (DirContent), file
// transfer engines (Upload, Download), the typed RPC surface for
// operations the facade does not wrap directly (API), the distributed
// resource lock (see the lock package), and the authenticated event
// socket (Socket). A session can be persisted with ToConfigString and
// later resumed with FromConfigString without re-prompting for a
// password, at the cost of needing WithMetaCrypter to regain
// metadata-decrypt capability.
//
// Sub-packages implement the pieces Client wires together: crypto (key
// derivation and AEAD), keys (the auth-version key hierarchy), meta (name
// hashing and metadata encryption), chunkpool (bounded in-flight transfer
// budget), transport (the HTTP pipeline), api (typed gateway/ingest/egest
// calls), upload and download (the chunked transfer engines), socket (the
// realtime event feed), lock (the distributed resource lock), config
// (client construction options), and ferrors (the error taxonomy).
package filen
