package webclient

import (
	"context"
	"net/http"
	"time"
)

const maxRetryDelay = 30 * time.Second

// AttemptFunc performs one HTTP exchange and reports its status and body.
type AttemptFunc func() (status int, body []byte, err error)

// DoWithRetry retries transport errors, 429 and 5xx responses with doubling
// delays. The last attempt's result is returned as is.
func DoWithRetry(ctx context.Context, attempts int, initialDelay time.Duration, fn AttemptFunc) (int, []byte, error) {
	if attempts <= 0 {
		attempts = 1
	}
	if initialDelay <= 0 {
		initialDelay = time.Second
	}
	delay := initialDelay
	for i := 0; ; i++ {
		status, body, err := fn()
		if err == nil && status != http.StatusTooManyRequests && status < 500 {
			return status, body, nil
		}
		if i >= attempts-1 {
			return status, body, err
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return status, body, ctx.Err()
		case <-timer.C:
		}
		if delay < maxRetryDelay {
			delay *= 2
		}
	}
}
