// Package ferrors defines the error taxonomy shared across the SDK:
// transport failures, server-reported business errors, cryptographic /
// encoding conversion failures, programmer errors, and local I/O errors.
//
// Every type here implements error; TransportError, ConversionError and
// WalkError also implement Unwrap() error so callers can use errors.Is /
// errors.As on their causes, and every Error() method chains
// "outer: inner: root cause" by construction rather than by a special
// rendering step.
package ferrors

import (
	"errors"
	"fmt"
	"net/http"
)

// TransportError wraps a connection-, DNS-, TLS-, or body-stream-level
// failure. These are the only errors the retry layer (§4.4) treats as
// retryable, alongside 5xx ResponseErrors.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ResponseError represents a server-reported business error: either an
// envelope with status=false, or an HTTP status code outside the accepted
// 2xx range. Not retryable unless Status is 5xx.
type ResponseError struct {
	Endpoint string
	Status   int
	Code     string
	Message  string
}

func (e *ResponseError) Error() string {
	if e.Endpoint != "" {
		return fmt.Sprintf("%s: response %d [%s]: %s", e.Endpoint, e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("response %d [%s]: %s", e.Status, e.Code, e.Message)
}

// Retryable reports whether the response status is a server error (5xx).
// 4xx is always treated as fatal per spec.md §9.
func (e *ResponseError) Retryable() bool {
	return e.Status >= http.StatusInternalServerError
}

// ConversionKind discriminates the reason a ConversionError occurred.
type ConversionKind string

const (
	KindHexDecode            ConversionKind = "HexDecode"
	KindBase64Decode         ConversionKind = "Base64Decode"
	KindInvalidStringLength  ConversionKind = "InvalidStringLength"
	KindAeadFailure          ConversionKind = "AeadFailure"
	KindInvalidVersion       ConversionKind = "InvalidVersion"
	KindArgon2               ConversionKind = "Argon2"
	KindPkcs8                ConversionKind = "Pkcs8"
	KindInvalidKeyPair       ConversionKind = "InvalidKeyPair"
)

// ConversionError is raised for metadata decrypt, base64/hex decode, PKCS#8
// parse, invalid key length, and version mismatch failures (§4.1, §7). It is
// fatal for the item being converted and is never retried.
type ConversionError struct {
	Kind    ConversionKind
	Context string
	Err     error
}

func (e *ConversionError) Error() string {
	if e.Err != nil {
		if e.Context != "" {
			return fmt.Sprintf("conversion[%s] %s: %v", e.Kind, e.Context, e.Err)
		}
		return fmt.Sprintf("conversion[%s]: %v", e.Kind, e.Err)
	}
	if e.Context != "" {
		return fmt.Sprintf("conversion[%s]: %s", e.Kind, e.Context)
	}
	return fmt.Sprintf("conversion[%s]", e.Kind)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// NewConversionError builds a ConversionError around an underlying cause.
func NewConversionError(kind ConversionKind, context string, err error) *ConversionError {
	return &ConversionError{Kind: kind, Context: context, Err: err}
}

// InvalidStateError is a programming error: the caller supplied incompatible
// inputs, e.g. a bandwidth quota below the 16 KiB/s floor (§4.4, §9).
type InvalidStateError struct {
	Reason string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid state: %s", e.Reason)
}

// ChunkTooLargeError is an integrity failure: a download chunk exceeded the
// expected ciphertext cap of 1 MiB + 28 bytes (§4.7).
type ChunkTooLargeError struct {
	Index int
	Got   int
	Max   int
}

func (e *ChunkTooLargeError) Error() string {
	return fmt.Sprintf("chunk %d too large: got %d bytes, max %d", e.Index, e.Got, e.Max)
}

// WalkError wraps a local filesystem error with the path that produced it.
type WalkError struct {
	Path string
	Err  error
}

func (e *WalkError) Error() string {
	return fmt.Sprintf("walk %s: %v", e.Path, e.Err)
}

func (e *WalkError) Unwrap() error { return e.Err }

// ErrInvalidKeyPair is returned when a decrypted RSA private key's public
// half does not match the server-stored public key (§3, §7).
var ErrInvalidKeyPair = &ConversionError{Kind: KindInvalidKeyPair, Context: "RSA key pair mismatch"}

// IsRetryable implements the table-driven retry classification design note
// in spec.md §9: transport-level errors and 5xx ResponseErrors are
// retryable; everything else (4xx, conversion, invalid state, chunk
// integrity) is fatal.
func IsRetryable(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return true
	}
	var re *ResponseError
	if errors.As(err, &re) {
		return re.Retryable()
	}
	return false
}
