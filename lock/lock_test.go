package lock

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/filen-go/filen-sdk-go/api"
	"github.com/filen-go/filen-sdk-go/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *api.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	pool := transport.NewHostPool(u.Scheme+"://"+u.Host, nil, true)
	tc := transport.New(transport.Options{})
	return api.New(tc, pool, pool, pool)
}

func TestAcquireSucceedsFirstTry(t *testing.T) {
	var calls int
	mux := http.NewServeMux()
	mux.HandleFunc("/v3/user/lock", func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req api.LockRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, api.LockTypeAcquire, req.Type)
		assert.Equal(t, "my-resource", req.Resource)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(api.Envelope[api.LockResponse]{
			Status: true,
			Data:   api.LockResponse{Acquired: true},
		})
	})

	client := newTestClient(t, mux)
	l, err := Acquire(context.Background(), client, "my-resource", time.Millisecond, 3, nil)
	require.NoError(t, err)
	assert.Equal(t, "my-resource", l.Resource())
	assert.Equal(t, 1, calls)
}

func TestAcquireRetriesThenSucceeds(t *testing.T) {
	var calls int
	mux := http.NewServeMux()
	mux.HandleFunc("/v3/user/lock", func(w http.ResponseWriter, r *http.Request) {
		calls++
		acquired := calls >= 3
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(api.Envelope[api.LockResponse]{
			Status: true,
			Data:   api.LockResponse{Acquired: acquired},
		})
	})

	client := newTestClient(t, mux)
	l, err := Acquire(context.Background(), client, "my-resource", time.Millisecond, 5, nil)
	require.NoError(t, err)
	require.NotNil(t, l)
	assert.Equal(t, 3, calls)
}

func TestAcquireExhaustsAttempts(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v3/user/lock", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(api.Envelope[api.LockResponse]{
			Status: true,
			Data:   api.LockResponse{Acquired: false},
		})
	})

	client := newTestClient(t, mux)
	_, err := Acquire(context.Background(), client, "my-resource", time.Millisecond, 3, nil)
	require.Error(t, err)
}

func TestReleaseIsIdempotent(t *testing.T) {
	var releaseCalls int
	mux := http.NewServeMux()
	mux.HandleFunc("/v3/user/lock", func(w http.ResponseWriter, r *http.Request) {
		var req api.LockRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		if req.Type == api.LockTypeAcquire {
			_ = json.NewEncoder(w).Encode(api.Envelope[api.LockResponse]{Status: true, Data: api.LockResponse{Acquired: true}})
			return
		}
		releaseCalls++
		_ = json.NewEncoder(w).Encode(api.Envelope[api.LockResponse]{Status: true, Data: api.LockResponse{Released: true}})
	})

	client := newTestClient(t, mux)
	l, err := Acquire(context.Background(), client, "my-resource", time.Millisecond, 1, nil)
	require.NoError(t, err)

	require.NoError(t, l.Release(context.Background()))
	require.NoError(t, l.Release(context.Background()))
	assert.Equal(t, 1, releaseCalls)
}
