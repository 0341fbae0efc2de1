package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvOverrides holds the subset of ClientOptions a CLI-adjacent caller
// typically wants to source from the process environment rather than hard
// code, grounded on the teacher's caarlos0/env struct-tag style
// (internal/config/env.go). It is additive: callers who build ClientOptions
// directly never need this type.
type EnvOverrides struct {
	HTTPTimeout             time.Duration `env:"FILEN_HTTP_TIMEOUT"`
	RetryBudget             int           `env:"FILEN_RETRY_BUDGET"`
	UploadKiBPerSec         int           `env:"FILEN_UPLOAD_KIB_PER_SEC"`
	DownloadKiBPerSec       int           `env:"FILEN_DOWNLOAD_KIB_PER_SEC"`
	SocketHeartbeatInterval time.Duration `env:"FILEN_SOCKET_HEARTBEAT"`
}

// LoadEnvOverrides parses EnvOverrides from the process environment.
func LoadEnvOverrides() (EnvOverrides, error) {
	var o EnvOverrides
	if err := env.Parse(&o); err != nil {
		return EnvOverrides{}, fmt.Errorf("error getting env configs: %w", err)
	}
	return o, nil
}

// Apply overlays any non-zero EnvOverrides field onto opts and returns the
// result; fields left at their zero value in o are left untouched in opts.
func (o EnvOverrides) Apply(opts ClientOptions) ClientOptions {
	if o.HTTPTimeout > 0 {
		opts.HTTPTimeout = o.HTTPTimeout
	}
	if o.RetryBudget > 0 {
		opts.RetryBudget = o.RetryBudget
	}
	if o.UploadKiBPerSec > 0 {
		opts.UploadKiBPerSec = o.UploadKiBPerSec
	}
	if o.DownloadKiBPerSec > 0 {
		opts.DownloadKiBPerSec = o.DownloadKiBPerSec
	}
	if o.SocketHeartbeatInterval > 0 {
		opts.SocketHeartbeatInterval = o.SocketHeartbeatInterval
	}
	return opts
}
