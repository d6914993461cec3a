package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shouni/go-comic-kit/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetry(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, Delay: time.Millisecond, Timeout: 50 * time.Millisecond}

	t.Run("Success/2回目で成功するのだ", func(t *testing.T) {
		calls := 0
		v, err := Retry(context.Background(), p, func(ctx context.Context) (string, error) {
			calls++
			if calls < 2 {
				return "", errors.New("flaky")
			}
			return "ok", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", v)
		assert.Equal(t, 2, calls)
	})

	t.Run("Error/上限回数で諦めるのだ", func(t *testing.T) {
		calls := 0
		_, err := Retry(context.Background(), p, func(ctx context.Context) (int, error) {
			calls++
			return 0, errors.New("always")
		})
		require.Error(t, err)
		assert.Equal(t, 3, calls)
		assert.Contains(t, err.Error(), "3 attempt")
	})

	t.Run("Error/試行ごとにタイムアウトが掛かるのだ", func(t *testing.T) {
		_, err := Retry(context.Background(), RetryPolicy{MaxAttempts: 1, Timeout: 5 * time.Millisecond}, func(ctx context.Context) (int, error) {
			<-ctx.Done()
			return 0, ctx.Err()
		})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("Error/親のキャンセルで打ち切るのだ", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		calls := 0
		_, err := Retry(ctx, p, func(ctx context.Context) (int, error) {
			calls++
			return 0, ctx.Err()
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}

func TestFilterFetched(t *testing.T) {
	in := []domain.ModelOption{
		{ID: "flux"}, {ID: ""}, {ID: "0"}, {ID: "dream"}, {ID: "old-Deprecated-v1"}, {ID: " turbo "},
	}
	assert.Equal(t, []string{"flux", "turbo"}, ids(FilterFetched(in)))
}
