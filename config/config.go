// Package config assembles the host pools, timeouts, pool budgets, and
// bandwidth limits that the rest of the SDK is built from, grounded on the
// teacher's ClientConfig split (internal/config/config_client.go): a single
// struct describing "everything a running client instance needs," built by
// a constructor with documented defaults rather than scattered zero values.
package config

import (
	"time"

	"github.com/filen-go/filen-sdk-go/chunkpool"
	"github.com/filen-go/filen-sdk-go/filenlog"
	"github.com/filen-go/filen-sdk-go/transport"
)

// HostSelectionMode controls how a HostPool picks among its interchangeable
// hosts. Go has no browser/native build-target distinction, so the
// selection strategy that spec.md ties to that distinction (§6) is exposed
// as an explicit enum instead of a build tag.
type HostSelectionMode int

const (
	// HostSelectNative always returns the primary host — the behavior the
	// spec describes for a native client that pins to one gateway.
	HostSelectNative HostSelectionMode = iota
	// HostSelectRandom draws a fresh random host (primary or peer) per
	// request — the behavior the spec describes for a browser client that
	// spreads load across the pool.
	HostSelectRandom
)

func (m HostSelectionMode) native() bool { return m == HostSelectNative }

// ClientOptions holds every tunable the SDK's long-lived components need at
// construction time.
type ClientOptions struct {
	HostSelection HostSelectionMode

	Gateway transport.HostPool
	Ingest  transport.HostPool
	Egest   transport.HostPool

	HTTPTimeout time.Duration
	RetryBudget int

	// ChunkBudget bounds the bytes-in-flight across all concurrent chunk
	// transfers (§4.5); use chunkpool.DesktopChunkBudget or
	// chunkpool.MobileChunkBudget, or a custom value.
	ChunkBudget int64

	// UploadKiBPerSec and DownloadKiBPerSec cap bandwidth; 0 means
	// unlimited. transport.NewBandwidthLimiter rejects a non-zero value below
	// transport.MinBandwidthKiBPerSec (§4.4, §9); Transport() discards that
	// error and builds the client without a limiter for that direction, so
	// such a value leaves the direction unlimited and no error is reported.
	UploadKiBPerSec   int
	DownloadKiBPerSec int

	// SocketHeartbeatInterval overrides the event socket's ping interval
	// (§4.8 default: 15s). Zero means use the package default.
	SocketHeartbeatInterval time.Duration

	// SocketURL is the socket.io base URL passed to socket.New (§4.8).
	// Empty means use the production default.
	SocketURL string

	Logger *filenlog.Logger
}

// DefaultSocketURL is the production event-socket endpoint (§4.8).
const DefaultSocketURL = "wss://socket.filen.io/socket.io/"

// DefaultClientOptions returns the documented defaults: native host
// selection, the production gateway/ingest/egest pools, a 30s HTTP timeout,
// a retry budget of 3, the desktop chunk-pool budget, unlimited bandwidth,
// the default 15s socket heartbeat, and a no-op logger.
func DefaultClientOptions() ClientOptions {
	native := HostSelectNative.native()
	return ClientOptions{
		HostSelection:           HostSelectNative,
		Gateway:                 transport.DefaultGatewayPool(native),
		Ingest:                  transport.DefaultIngestPool(native),
		Egest:                   transport.DefaultEgestPool(native),
		HTTPTimeout:             30 * time.Second,
		RetryBudget:             3,
		ChunkBudget:             chunkpool.DesktopChunkBudget,
		SocketHeartbeatInterval: 15 * time.Second,
		SocketURL:               DefaultSocketURL,
		Logger:                  filenlog.Nop(),
	}
}

// Defaulted returns a copy of o with every zero-valued field replaced by its
// documented default, so a caller that only customizes a couple of fields
// of a bare ClientOptions{} does not have to know the rest. Host pools are
// treated as "unset" when their primary hostname is empty.
func (o ClientOptions) Defaulted() ClientOptions {
	defaults := DefaultClientOptions()

	if o.Gateway.Pick() == "" {
		o.Gateway = defaults.Gateway
	}
	if o.Ingest.Pick() == "" {
		o.Ingest = defaults.Ingest
	}
	if o.Egest.Pick() == "" {
		o.Egest = defaults.Egest
	}
	if o.HTTPTimeout <= 0 {
		o.HTTPTimeout = defaults.HTTPTimeout
	}
	if o.RetryBudget <= 0 {
		o.RetryBudget = defaults.RetryBudget
	}
	if o.ChunkBudget <= 0 {
		o.ChunkBudget = defaults.ChunkBudget
	}
	if o.SocketHeartbeatInterval <= 0 {
		o.SocketHeartbeatInterval = defaults.SocketHeartbeatInterval
	}
	if o.SocketURL == "" {
		o.SocketURL = defaults.SocketURL
	}
	if o.Logger == nil {
		o.Logger = defaults.Logger
	}
	return o
}

// DefaultMobileClientOptions is DefaultClientOptions with the lighter
// mobile chunk-pool budget (§4.5: "2x chunk capacity on mobile").
func DefaultMobileClientOptions() ClientOptions {
	opts := DefaultClientOptions()
	opts.ChunkBudget = chunkpool.MobileChunkBudget
	return opts
}

// rebuildPools re-derives the Gateway/Ingest/Egest pools from HostSelection
// when it has been changed after DefaultClientOptions was called, so
// toggling HostSelection alone (without manually rebuilding each pool) still
// takes effect.
func (o ClientOptions) rebuildPools() ClientOptions {
	native := o.HostSelection.native()
	o.Gateway = transport.DefaultGatewayPool(native)
	o.Ingest = transport.DefaultIngestPool(native)
	o.Egest = transport.DefaultEgestPool(native)
	return o
}

// WithHostSelection returns a copy of o with HostSelection set and its host
// pools rebuilt accordingly.
func (o ClientOptions) WithHostSelection(mode HostSelectionMode) ClientOptions {
	o.HostSelection = mode
	return o.rebuildPools()
}

// Transport builds the transport.Client described by these options.
func (o ClientOptions) Transport() *transport.Client {
	var uploadLimiter, downloadLimiter *transport.BandwidthLimiter
	if o.UploadKiBPerSec > 0 {
		uploadLimiter, _ = transport.NewBandwidthLimiter(o.UploadKiBPerSec)
	}
	if o.DownloadKiBPerSec > 0 {
		downloadLimiter, _ = transport.NewBandwidthLimiter(o.DownloadKiBPerSec)
	}
	return transport.New(transport.Options{
		Timeout:         o.HTTPTimeout,
		RetryBudget:     o.RetryBudget,
		UploadLimiter:   uploadLimiter,
		DownloadLimiter: downloadLimiter,
		Logger:          o.Logger,
	})
}

// ChunkPool builds the chunkpool.Pool described by these options.
func (o ClientOptions) ChunkPool() *chunkpool.Pool {
	budget := o.ChunkBudget
	if budget <= 0 {
		budget = chunkpool.DesktopChunkBudget
	}
	return chunkpool.New(budget)
}
