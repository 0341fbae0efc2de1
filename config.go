package filen

import "github.com/filen-go/filen-sdk-go/config"

// ClientOptions configures Login and FromConfigString. It is a type alias
// for config.ClientOptions: the host-pool/bandwidth/chunk-budget wiring
// lives in the config package so it can be reused without importing the
// whole filen facade, but Login/FromConfigString callers only need to know
// about filen.ClientOptions.
type ClientOptions = config.ClientOptions

// HostSelectionMode controls how a host pool picks among its interchangeable
// hosts (§6). See config.HostSelectionMode.
type HostSelectionMode = config.HostSelectionMode

const (
	HostSelectNative = config.HostSelectNative
	HostSelectRandom = config.HostSelectRandom
)

// DefaultClientOptions returns the documented defaults (§4.5, §4.8): native
// host selection, the production gateway/ingest/egest pools, a 30s HTTP
// timeout, a retry budget of 3, the desktop chunk-pool budget, unlimited
// bandwidth, and a no-op logger.
func DefaultClientOptions() ClientOptions { return config.DefaultClientOptions() }

// DefaultMobileClientOptions is DefaultClientOptions with the lighter
// mobile chunk-pool budget.
func DefaultMobileClientOptions() ClientOptions { return config.DefaultMobileClientOptions() }
