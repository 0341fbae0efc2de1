package download

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/filen-go/filen-sdk-go/api"
	"github.com/filen-go/filen-sdk-go/chunkpool"
	"github.com/filen-go/filen-sdk-go/keys"
	"github.com/filen-go/filen-sdk-go/model"
	"github.com/filen-go/filen-sdk-go/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, handler http.Handler) *Engine {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	pool := transport.NewHostPool(u.Scheme+"://"+u.Host, nil, true)
	tc := transport.New(transport.Options{})
	apiClient := api.New(tc, pool, pool, pool)
	return New(apiClient, chunkpool.New(chunkpool.DesktopChunkBudget), nil)
}

func TestDownloadSmallFile(t *testing.T) {
	fileKey, err := keys.GenerateFileKey(keys.FileKeyV3)
	require.NoError(t, err)

	plaintext := []byte("0123456789")
	ciphertext, err := fileKey.EncryptData(plaintext)
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("/r1/b1/file-1/0", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(ciphertext)
	})

	e := newTestEngine(t, mux)

	file := model.RemoteFile{
		UUID:   "file-1",
		Region: "r1",
		Bucket: "b1",
		Chunks: 1,
		Size:   int64(len(plaintext)),
		Key:    *fileKey,
	}

	var out bytes.Buffer
	err = e.Download(context.Background(), file, NewWriterSink(&out))
	require.NoError(t, err)
	assert.Equal(t, plaintext, out.Bytes())
}

func TestDownloadEmptyFile(t *testing.T) {
	fileKey, err := keys.GenerateFileKey(keys.FileKeyV3)
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("/r1/b1/file-2/0", func(w http.ResponseWriter, r *http.Request) {
		// no body written: empty response, permitted only for chunk 0 of a
		// zero-length file.
	})

	e := newTestEngine(t, mux)

	file := model.RemoteFile{UUID: "file-2", Region: "r1", Bucket: "b1", Chunks: 1, Size: 0, Key: *fileKey}

	var out bytes.Buffer
	err = e.Download(context.Background(), file, NewWriterSink(&out))
	require.NoError(t, err)
	assert.Equal(t, 0, out.Len())
}

func TestDownloadChunkTooLarge(t *testing.T) {
	fileKey, err := keys.GenerateFileKey(keys.FileKeyV3)
	require.NoError(t, err)

	oversized := make([]byte, model.ChunkCapacity+1)

	mux := http.NewServeMux()
	mux.HandleFunc("/r1/b1/file-3/0", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(oversized)
	})

	e := newTestEngine(t, mux)

	file := model.RemoteFile{UUID: "file-3", Region: "r1", Bucket: "b1", Chunks: 1, Size: 100, Key: *fileKey}

	var out bytes.Buffer
	err = e.Download(context.Background(), file, NewWriterSink(&out))
	require.Error(t, err)
}

func TestDownloadTwoChunksOrdered(t *testing.T) {
	fileKey, err := keys.GenerateFileKey(keys.FileKeyV3)
	require.NoError(t, err)

	plain0 := bytes.Repeat([]byte{0xAA}, model.PlainChunkSize)
	plain1 := []byte{0xBB}
	cipher0, err := fileKey.EncryptData(plain0)
	require.NoError(t, err)
	cipher1, err := fileKey.EncryptData(plain1)
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("/r1/b1/file-4/0", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write(cipher0) })
	mux.HandleFunc("/r1/b1/file-4/1", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write(cipher1) })

	e := newTestEngine(t, mux)

	file := model.RemoteFile{
		UUID: "file-4", Region: "r1", Bucket: "b1",
		Chunks: 2, Size: int64(len(plain0) + len(plain1)), Key: *fileKey,
	}

	var out bytes.Buffer
	err = e.Download(context.Background(), file, NewWriterSink(&out))
	require.NoError(t, err)
	assert.Equal(t, append(append([]byte{}, plain0...), plain1...), out.Bytes())
}
