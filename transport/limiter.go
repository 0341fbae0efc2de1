package transport

import (
	"context"
	"io"

	"github.com/filen-go/filen-sdk-go/ferrors"
	"golang.org/x/time/rate"
)

// MinBandwidthKiBPerSec is the smallest accepted token-bucket quota (§4.4):
// below this a single 16 KiB slice would require a fractional token.
const MinBandwidthKiBPerSec = 16

// uploadSliceSize is the size of the body slices the upload path awaits
// tokens for (§4.4).
const uploadSliceSize = 16 * 1024

// BandwidthLimiter throttles a byte stream to a configured KiB/s quota using
// a token bucket (one token per byte, refilled at quota*1024/s).
type BandwidthLimiter struct {
	limiter *rate.Limiter
}

// NewBandwidthLimiter constructs a limiter for quotaKiBPerSec. Returns
// InvalidState if the quota is below MinBandwidthKiBPerSec (§4.4).
func NewBandwidthLimiter(quotaKiBPerSec int) (*BandwidthLimiter, error) {
	if quotaKiBPerSec < MinBandwidthKiBPerSec {
		return nil, &ferrors.InvalidStateError{
			Reason: "bandwidth quota below 16 KiB/s floor",
		}
	}
	bytesPerSec := float64(quotaKiBPerSec) * 1024
	burst := uploadSliceSize
	return &BandwidthLimiter{limiter: rate.NewLimiter(rate.Limit(bytesPerSec), burst)}, nil
}

// WaitN blocks until n bytes' worth of tokens are available or ctx is done.
func (b *BandwidthLimiter) WaitN(ctx context.Context, n int) error {
	if b == nil {
		return nil
	}
	return b.limiter.WaitN(ctx, n)
}

// ThrottledReader wraps r so that reads are paced to the limiter's quota,
// awaiting tokens before each chunk is returned to the caller. Used to wrap
// the upload body (sliced into 16 KiB pieces) and the download response
// body stream (§4.4).
type ThrottledReader struct {
	ctx     context.Context
	r       io.Reader
	limiter *BandwidthLimiter
}

// NewThrottledReader wraps r with limiter, or returns r unwrapped if
// limiter is nil (no bandwidth cap configured).
func NewThrottledReader(ctx context.Context, r io.Reader, limiter *BandwidthLimiter) io.Reader {
	if limiter == nil {
		return r
	}
	return &ThrottledReader{ctx: ctx, r: r, limiter: limiter}
}

func (t *ThrottledReader) Read(p []byte) (int, error) {
	if len(p) > uploadSliceSize {
		p = p[:uploadSliceSize]
	}
	n, err := t.r.Read(p)
	if n > 0 {
		if waitErr := t.limiter.WaitN(t.ctx, n); waitErr != nil {
			return n, waitErr
		}
	}
	return n, err
}
