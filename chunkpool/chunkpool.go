// Package chunkpool implements the process-wide memory and concurrency
// budgets of §4.5: a bytes-in-flight semaphore for data chunks, a handle
// semaphore for local file descriptors, and a small-request semaphore for
// control-plane fan-out — all built on golang.org/x/sync/semaphore, whose
// Weighted primitive gives FIFO-fair, cancellation-safe acquisition for
// free.
package chunkpool

import (
	"context"

	"github.com/filen-go/filen-sdk-go/model"
	"golang.org/x/sync/semaphore"
)

// Defaults per §4.5.
const (
	DesktopChunkBudget = 4 * model.ChunkCapacity
	MobileChunkBudget  = 2 * model.ChunkCapacity

	DefaultFileHandles   = 64
	DefaultSmallRequests = 64
)

// Pool bundles the three semaphores that gate a transfer's resource usage.
type Pool struct {
	chunks        *semaphore.Weighted
	fileHandles   *semaphore.Weighted
	smallRequests *semaphore.Weighted
}

// New constructs a Pool with the given in-flight chunk-byte budget. Pass
// DesktopChunkBudget or MobileChunkBudget, or a custom value.
func New(chunkBudget int64) *Pool {
	return &Pool{
		chunks:        semaphore.NewWeighted(chunkBudget),
		fileHandles:   semaphore.NewWeighted(DefaultFileHandles),
		smallRequests: semaphore.NewWeighted(DefaultSmallRequests),
	}
}

// AcquireChunk blocks until chunk_size permits are available or ctx is
// done. A cancelled acquire releases its partial claim automatically
// (semaphore.Weighted's contract), satisfying the cancellation-safety
// requirement of §5.
func (p *Pool) AcquireChunk(ctx context.Context, size int64) error {
	return p.chunks.Acquire(ctx, size)
}

// ReleaseChunk returns size permits to the chunk budget.
func (p *Pool) ReleaseChunk(size int64) {
	p.chunks.Release(size)
}

// AcquireFileHandle blocks until a file-handle slot is free.
func (p *Pool) AcquireFileHandle(ctx context.Context) error {
	return p.fileHandles.Acquire(ctx, 1)
}

// ReleaseFileHandle returns a file-handle slot.
func (p *Pool) ReleaseFileHandle() {
	p.fileHandles.Release(1)
}

// AcquireSmallRequest blocks until a control-plane request slot is free.
func (p *Pool) AcquireSmallRequest(ctx context.Context) error {
	return p.smallRequests.Acquire(ctx, 1)
}

// ReleaseSmallRequest returns a control-plane request slot.
func (p *Pool) ReleaseSmallRequest() {
	p.smallRequests.Release(1)
}

// Chunk is a fixed-capacity buffer for one chunk's worth of data, carrying
// a live reservation against the pool it was acquired from (§3). Release
// must be called exactly once, however the chunk's transfer ends.
type Chunk struct {
	Buf  []byte // len 0, cap model.ChunkCapacity
	pool *Pool
}

// AcquireChunkBuf acquires a full chunk-sized reservation from the pool and
// returns a Chunk with a freshly allocated, zero-length buffer of capacity
// model.ChunkCapacity.
func (p *Pool) AcquireChunkBuf(ctx context.Context) (*Chunk, error) {
	if err := p.AcquireChunk(ctx, model.ChunkCapacity); err != nil {
		return nil, err
	}
	return &Chunk{Buf: make([]byte, 0, model.ChunkCapacity), pool: p}, nil
}

// Release returns the chunk's reservation to its pool. Safe to call once;
// calling it twice double-releases the semaphore and is a caller bug.
func (c *Chunk) Release() {
	c.pool.ReleaseChunk(model.ChunkCapacity)
}
