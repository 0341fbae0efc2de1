// Package download implements the download engine of §4.7: GET each
// ciphertext chunk of a RemoteFile from an egest host picked by the API
// client's pool, AEAD-decrypt it, and deliver plaintext to the caller's sink
// in ascending index order.
package download

import (
	"context"

	"github.com/filen-go/filen-sdk-go/api"
	"github.com/filen-go/filen-sdk-go/chunkpool"
	"github.com/filen-go/filen-sdk-go/ferrors"
	"github.com/filen-go/filen-sdk-go/filenlog"
	"github.com/filen-go/filen-sdk-go/model"
)

// Engine downloads and decrypts a RemoteFile's chunks.
type Engine struct {
	api  *api.Client
	pool *chunkpool.Pool
	log  *filenlog.Logger
}

// New constructs a download Engine.
func New(apiClient *api.Client, pool *chunkpool.Pool, log *filenlog.Logger) *Engine {
	if log == nil {
		log = filenlog.Nop()
	}
	return &Engine{api: apiClient, pool: pool, log: log}
}

// Sink receives decrypted plaintext in ascending chunk-index order.
type Sink interface {
	WriteChunk(index int64, plaintext []byte) error
}

// Download fetches and decrypts every chunk of file, delivering plaintext
// to sink in order. The file.Chunks chunks are fetched one after another;
// no GETs run in parallel.
func (e *Engine) Download(ctx context.Context, file model.RemoteFile, sink Sink) error {
	hosts := e.api.EgestHosts()
	if len(hosts) == 0 {
		return &ferrors.InvalidStateError{Reason: "no egest hosts configured"}
	}

	for i := int64(0); i < file.Chunks; i++ {
		chunk, err := e.pool.AcquireChunkBuf(ctx)
		if err != nil {
			return err
		}

		url := e.api.EgestURL(file.Region, file.Bucket, file.UUID, i)
		body, err := e.api.GetRaw(ctx, url)
		if err != nil {
			chunk.Release()
			return err
		}

		if len(body) > model.ChunkCapacity {
			chunk.Release()
			return &ferrors.ChunkTooLargeError{Index: int(i), Got: len(body), Max: model.ChunkCapacity}
		}
		if len(body) == 0 && !(i == 0 && file.Size == 0) {
			chunk.Release()
			return ferrors.NewConversionError(ferrors.KindInvalidStringLength, "empty chunk body", nil)
		}

		if len(body) == 0 {
			chunk.Release()
			continue
		}

		plaintext, err := file.Key.DecryptData(body)
		chunk.Release()
		if err != nil {
			// Integrity failures are not transient (§4.7): no retry.
			return &ferrors.ConversionError{Kind: ferrors.KindAeadFailure, Context: "chunk decrypt", Err: err}
		}

		if err := sink.WriteChunk(i, plaintext); err != nil {
			return &ferrors.WalkError{Path: file.UUID, Err: err}
		}
	}

	return nil
}

// WriterSink adapts an io.Writer to the Sink interface for the common case
// of a strictly sequential, non-reordering download.
type WriterSink struct {
	w writer
}

type writer interface {
	Write(p []byte) (n int, err error)
}

// NewWriterSink wraps w as a Sink.
func NewWriterSink(w writer) *WriterSink { return &WriterSink{w: w} }

func (s *WriterSink) WriteChunk(_ int64, plaintext []byte) error {
	_, err := s.w.Write(plaintext)
	return err
}
