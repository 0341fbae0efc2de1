// Package transport implements the layered HTTP pipeline of §4.4: URL
// validation, JSON body serialization, bearer-token auth headers, optional
// bandwidth shaping, retry-under-budget, and structured logging — wrapping
// go-resty/resty, the teacher's HTTP client of choice (internal/adapter).
package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/filen-go/filen-sdk-go/ferrors"
	"github.com/filen-go/filen-sdk-go/filenlog"
	"github.com/go-resty/resty/v2"
)

// Client wraps a resty.Client with the pipeline described in §4.4. Safe for
// concurrent use; the API key is held behind a reader-writer lock so key
// rotation never blocks in-flight reads of it (§5).
type Client struct {
	http *resty.Client
	log  *filenlog.Logger

	keyMu  sync.RWMutex
	apiKey string

	retryBudget *RetryBudget

	uploadLimiter   *BandwidthLimiter
	downloadLimiter *BandwidthLimiter
}

// Options configures a Client.
type Options struct {
	Timeout         time.Duration
	RetryBudget     int
	UploadLimiter   *BandwidthLimiter
	DownloadLimiter *BandwidthLimiter
	Logger          *filenlog.Logger
}

// New constructs a transport Client. A zero Options produces a client with
// a 30s timeout, a retry budget of 3, no bandwidth limiters, and a no-op
// logger.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RetryBudget <= 0 {
		opts.RetryBudget = 3
	}
	if opts.Logger == nil {
		opts.Logger = filenlog.Nop()
	}

	return &Client{
		http:            resty.New().SetTimeout(opts.Timeout),
		log:             opts.Logger,
		retryBudget:     NewRetryBudget(opts.RetryBudget),
		uploadLimiter:   opts.UploadLimiter,
		downloadLimiter: opts.DownloadLimiter,
	}
}

// SetAPIKey rotates the bearer token used for subsequent authenticated
// requests (§3: "API key (rotatable)").
func (c *Client) SetAPIKey(key string) {
	c.keyMu.Lock()
	defer c.keyMu.Unlock()
	c.apiKey = key
}

// APIKey returns the currently held bearer token.
func (c *Client) APIKey() string {
	c.keyMu.RLock()
	defer c.keyMu.RUnlock()
	return c.apiKey
}

// PostJSON validates rawURL, serializes body as JSON (or sends no body if
// body is nil), attaches the Authorization header unless unauthenticated is
// true, and decodes the response into result. The whole round trip runs
// under the retry budget.
func (c *Client) PostJSON(ctx context.Context, rawURL string, body, result any, unauthenticated bool) error {
	if _, err := url.Parse(rawURL); err != nil {
		return ferrors.NewConversionError(ferrors.KindInvalidVersion, "parse request url", err)
	}

	endpoint := endpointLabel(rawURL)
	return Do(ctx, c.retryBudget, func(ctx context.Context) error {
		req := c.http.R().SetContext(ctx)
		if body != nil {
			req.SetHeader("Content-Type", "application/json").SetBody(body)
		}
		if !unauthenticated {
			if key := c.APIKey(); key != "" {
				req.SetHeader("Authorization", "Bearer "+key)
			}
		}
		if result != nil {
			req.SetResult(result)
		}

		c.log.With("endpoint", endpoint).Debug().Msg("request")

		resp, err := req.Post(rawURL)
		if err != nil {
			c.log.With("endpoint", endpoint).Trace().Err(err).Msg("transport error")
			return &ferrors.TransportError{Endpoint: endpoint, Err: err}
		}
		if respErr := mapResponseError(endpoint, resp); respErr != nil {
			c.log.With("endpoint", endpoint).Trace().Err(respErr).Msg("response error")
			return respErr
		}
		return nil
	})
}

// PostRaw performs a POST with an opaque ciphertext body (used by the
// upload engine, §4.6) and decodes the JSON response into result. When an
// upload limiter is configured, the body is paced through it before the
// request is sent, so a slow quota throttles the whole upload, not just its
// accounting.
func (c *Client) PostRaw(ctx context.Context, rawURL string, body []byte, result any) error {
	if _, err := url.Parse(rawURL); err != nil {
		return ferrors.NewConversionError(ferrors.KindInvalidVersion, "parse request url", err)
	}

	endpoint := endpointLabel(rawURL)
	return Do(ctx, c.retryBudget, func(ctx context.Context) error {
		if c.uploadLimiter != nil {
			throttled := NewThrottledReader(ctx, bytes.NewReader(body), c.uploadLimiter)
			if _, err := io.Copy(io.Discard, throttled); err != nil {
				return &ferrors.TransportError{Endpoint: endpoint, Err: err}
			}
		}

		req := c.http.R().SetContext(ctx).SetBody(body)
		if key := c.APIKey(); key != "" {
			req.SetHeader("Authorization", "Bearer "+key)
		}
		if result != nil {
			req.SetResult(result)
		}

		resp, err := req.Post(rawURL)
		if err != nil {
			return &ferrors.TransportError{Endpoint: endpoint, Err: err}
		}
		return mapResponseError(endpoint, resp)
	})
}

// GetRaw issues an authenticated GET and returns the raw response body
// (used by the download engine against egest hosts, §4.7). The response
// body is streamed through the download limiter, if one is configured, so
// the wait is paid while the bytes are actually read rather than skipped.
func (c *Client) GetRaw(ctx context.Context, rawURL string) ([]byte, error) {
	if _, err := url.Parse(rawURL); err != nil {
		return nil, ferrors.NewConversionError(ferrors.KindInvalidVersion, "parse request url", err)
	}

	endpoint := endpointLabel(rawURL)
	var out []byte
	err := Do(ctx, c.retryBudget, func(ctx context.Context) error {
		req := c.http.R().SetContext(ctx).SetDoNotParseResponse(true)
		if key := c.APIKey(); key != "" {
			req.SetHeader("Authorization", "Bearer "+key)
		}

		resp, err := req.Get(rawURL)
		if err != nil {
			return &ferrors.TransportError{Endpoint: endpoint, Err: err}
		}
		defer resp.RawBody().Close()

		body, err := io.ReadAll(NewThrottledReader(ctx, resp.RawBody(), c.downloadLimiter))
		if err != nil {
			return &ferrors.TransportError{Endpoint: endpoint, Err: err}
		}

		if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
			return &ferrors.ResponseError{
				Endpoint: endpoint,
				Status:   resp.StatusCode(),
				Message:  strings.TrimSpace(string(body)),
			}
		}
		out = body
		return nil
	})
	return out, err
}

func mapResponseError(endpoint string, resp *resty.Response) error {
	if resp.StatusCode() >= 200 && resp.StatusCode() < 300 {
		return nil
	}
	return &ferrors.ResponseError{
		Endpoint: endpoint,
		Status:   resp.StatusCode(),
		Message:  strings.TrimSpace(string(resp.Body())),
	}
}

func endpointLabel(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return fmt.Sprintf("%s%s", u.Host, u.Path)
}
