package transfer

import (
	"context"
	"time"

	"github.com/layerist/ethereum-transfer-script/log"
)

// Retrier retries an idempotent operation a fixed number of times with
// a fixed delay between attempts. It must only wrap calls that are safe
// to repeat; in particular it never wraps transaction broadcast, which
// may have landed even when the call reports an error.
type Retrier struct {
	attempts int
	delay    time.Duration
	logger   *log.Logger
	sleep    func(time.Duration)
}

// NewRetrier creates a retrier with the given attempt budget and
// inter-attempt delay.
func NewRetrier(attempts int, delay time.Duration, logger *log.Logger) *Retrier {
	return &Retrier{
		attempts: attempts,
		delay:    delay,
		logger:   logger,
		sleep:    time.Sleep,
	}
}

// Do runs op until it succeeds or the attempt budget is exhausted.
// Every failed attempt is logged; exhaustion returns a single
// RetryExhaustedError naming the operation.
func (r *Retrier) Do(ctx context.Context, op string, fn func(context.Context) error) error {
	var err error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		r.logger.Warn("operation failed",
			"op", op,
			"attempt", attempt,
			"max_attempts", r.attempts,
			"err", err,
		)
		if attempt < r.attempts {
			r.sleep(r.delay)
		}
	}
	return &RetryExhaustedError{Op: op, Attempts: r.attempts, Err: err}
}

// RetryValue runs fn under r and returns its result.
func RetryValue[T any](ctx context.Context, r *Retrier, op string, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := r.Do(ctx, op, func(ctx context.Context) error {
		var opErr error
		out, opErr = fn(ctx)
		return opErr
	})
	return out, err
}
