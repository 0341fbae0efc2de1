package transport

import (
	"context"
	"sync"
	"time"

	"github.com/filen-go/filen-sdk-go/ferrors"
	"github.com/sethvargo/go-retry"
)

// RetryBudget gates how many retries the retry layer may spend (§4.4): it
// refills on success (Deposit) and drains on retry (Withdraw); once empty,
// a retryable error is surfaced instead of retried.
type RetryBudget struct {
	mu      sync.Mutex
	balance int
	max     int
}

// NewRetryBudget returns a budget that starts (and caps) at max retries.
func NewRetryBudget(max int) *RetryBudget {
	return &RetryBudget{balance: max, max: max}
}

// Withdraw consumes one unit of budget. Reports false if the budget is
// empty.
func (b *RetryBudget) Withdraw() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.balance <= 0 {
		return false
	}
	b.balance--
	return true
}

// Deposit restores one unit of budget, up to max, called after a request
// succeeds.
func (b *RetryBudget) Deposit() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.balance < b.max {
		b.balance++
	}
}

// Do runs fn under an exponential backoff (100ms base, capped at 5s),
// retrying only errors ferrors.IsRetryable classifies as transient, and
// only while budget has not been exhausted. The last underlying error is
// returned verbatim when the budget runs out or fn's error is not
// retryable.
func Do(ctx context.Context, budget *RetryBudget, fn func(ctx context.Context) error) error {
	backoff := retry.NewExponential(100 * time.Millisecond)
	backoff = retry.WithCapped(5*time.Second, backoff)

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if err == nil {
			budget.Deposit()
			return nil
		}
		if !ferrors.IsRetryable(err) {
			return err
		}
		if !budget.Withdraw() {
			return err
		}
		return retry.RetryableError(err)
	})
}
