package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// RetryPolicy はモデル一覧取得の再試行方針です。
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
	// Timeout は1回の試行あたりの上限なのだ。
	Timeout time.Duration
}

// DefaultRetryPolicy は 3 回・1 秒間隔・1 回 15 秒の方針を返します。
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Delay: time.Second, Timeout: 15 * time.Second}
}

// Retry は fn を方針に従って再試行します。最後の失敗をラップして返すのだ。
func Retry[T any](ctx context.Context, p RetryPolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	tried := 0
	for i := 1; i <= attempts; i++ {
		tried = i
		v, err := attempt(ctx, p.Timeout, fn)
		if err == nil {
			return v, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		if i < attempts {
			slog.DebugContext(ctx, "取得に失敗したため再試行します", "attempt", i, "error", err)
			select {
			case <-ctx.Done():
				return zero, fmt.Errorf("retry aborted after %d attempt(s): %w", i, ctx.Err())
			case <-time.After(p.Delay):
			}
		}
	}
	return zero, fmt.Errorf("failed after %d attempt(s): %w", tried, lastErr)
}

func attempt[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return fn(ctx)
}
