package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/filen-go/filen-sdk-go/ferrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostJSON_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":true}`))
	}))
	defer srv.Close()

	c := New(Options{})
	c.SetAPIKey("abc")

	var result struct{ Status bool }
	err := c.PostJSON(context.Background(), srv.URL+"/v3/login", map[string]string{"email": "a@b"}, &result, false)
	require.NoError(t, err)
	assert.True(t, result.Status)
}

func TestPostJSON_ResponseErrorNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := New(Options{RetryBudget: 3})
	err := c.PostJSON(context.Background(), srv.URL+"/v3/login", nil, nil, true)

	require.Error(t, err)
	var respErr *ferrors.ResponseError
	require.ErrorAs(t, err, &respErr)
	assert.Equal(t, 1, calls)
}

func TestPostJSON_ServerErrorRetriesUnderBudget(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(Options{RetryBudget: 5})
	err := c.PostJSON(context.Background(), srv.URL+"/v3/login", nil, nil, true)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestGetRaw(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ciphertext-bytes"))
	}))
	defer srv.Close()

	c := New(Options{})
	body, err := c.GetRaw(context.Background(), srv.URL+"/region/bucket/uuid/0")
	require.NoError(t, err)
	assert.Equal(t, "ciphertext-bytes", string(body))
}

func TestBandwidthLimiterRejectsBelowFloor(t *testing.T) {
	_, err := NewBandwidthLimiter(8)
	require.Error(t, err)
	var invalid *ferrors.InvalidStateError
	require.ErrorAs(t, err, &invalid)
}

func TestBandwidthLimiterAcceptsFloor(t *testing.T) {
	l, err := NewBandwidthLimiter(16)
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestPostRawThrottlesUploadBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	limiter, err := NewBandwidthLimiter(MinBandwidthKiBPerSec)
	require.NoError(t, err)
	c := New(Options{UploadLimiter: limiter})

	// twice the token bucket's burst size, so the second half must wait a
	// full second for the bucket to refill at the configured floor.
	body := make([]byte, 2*MinBandwidthKiBPerSec*1024)

	start := time.Now()
	err = c.PostRaw(context.Background(), srv.URL, body, nil)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.GreaterOrEqual(t, elapsed, 900*time.Millisecond)
}

func TestGetRawThrottlesDownloadBody(t *testing.T) {
	payload := make([]byte, 2*MinBandwidthKiBPerSec*1024)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	limiter, err := NewBandwidthLimiter(MinBandwidthKiBPerSec)
	require.NoError(t, err)
	c := New(Options{DownloadLimiter: limiter})

	start := time.Now()
	body, err := c.GetRaw(context.Background(), srv.URL)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Len(t, body, len(payload))
	assert.GreaterOrEqual(t, elapsed, 900*time.Millisecond)
}

func TestHostPoolNativePinsToPrimary(t *testing.T) {
	p := NewHostPool("ingest.filen.io", []string{"ingest1.filen.io", "ingest2.filen.io"}, true)
	for i := 0; i < 5; i++ {
		assert.Equal(t, "ingest.filen.io", p.Pick())
	}
}
