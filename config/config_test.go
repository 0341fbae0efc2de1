package config

import (
	"testing"
	"time"

	"github.com/filen-go/filen-sdk-go/chunkpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultClientOptions(t *testing.T) {
	opts := DefaultClientOptions()
	assert.Equal(t, HostSelectNative, opts.HostSelection)
	assert.Equal(t, 30*time.Second, opts.HTTPTimeout)
	assert.Equal(t, 3, opts.RetryBudget)
	assert.Equal(t, int64(chunkpool.DesktopChunkBudget), opts.ChunkBudget)
	assert.Equal(t, 15*time.Second, opts.SocketHeartbeatInterval)
}

func TestDefaultMobileClientOptionsUsesMobileBudget(t *testing.T) {
	opts := DefaultMobileClientOptions()
	assert.Equal(t, int64(chunkpool.MobileChunkBudget), opts.ChunkBudget)
}

func TestWithHostSelectionRebuildsPools(t *testing.T) {
	opts := DefaultClientOptions().WithHostSelection(HostSelectRandom)
	assert.Equal(t, HostSelectRandom, opts.HostSelection)
	// a random pool must be able to return a peer, not just the primary.
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		seen[opts.Gateway.Pick()] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestTransportAndChunkPoolBuild(t *testing.T) {
	opts := DefaultClientOptions()
	tc := opts.Transport()
	require.NotNil(t, tc)
	pool := opts.ChunkPool()
	require.NotNil(t, pool)
}

func TestEnvOverridesApply(t *testing.T) {
	o := EnvOverrides{RetryBudget: 7, UploadKiBPerSec: 64}
	opts := o.Apply(DefaultClientOptions())
	assert.Equal(t, 7, opts.RetryBudget)
	assert.Equal(t, 64, opts.UploadKiBPerSec)
	assert.Equal(t, 30*time.Second, opts.HTTPTimeout) // untouched field keeps default
}
