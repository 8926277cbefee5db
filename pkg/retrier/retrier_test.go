package retrier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetrier_Do(t *testing.T) {
	t.Run("success on first attempt", func(t *testing.T) {
		r := New()
		attempts := 0
		err := r.Do(context.Background(), func(ctx context.Context) error {
			attempts++
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("success after retries", func(t *testing.T) {
		r := New(WithMaxRetries(3), WithInitialInterval(1*time.Millisecond))
		attempts := 0
		err := r.Do(context.Background(), func(ctx context.Context) error {
			attempts++
			if attempts < 3 {
				return errors.New("fail")
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("fail after max retries", func(t *testing.T) {
		r := New(WithMaxRetries(2), WithInitialInterval(1*time.Millisecond))
		attempts := 0
		err := r.Do(context.Background(), func(ctx context.Context) error {
			attempts++
			return errors.New("fail")
		})
		assert.Error(t, err)
		assert.Equal(t, 3, attempts) // 1 initial + 2 retries
	})

	t.Run("context cancellation", func(t *testing.T) {
		r := New(WithMaxRetries(5), WithInitialInterval(100*time.Millisecond))
		ctx, cancel := context.WithCancel(context.Background())

		attempts := 0
		err := r.Do(ctx, func(ctx context.Context) error {
			attempts++
			if attempts == 2 {
				cancel()
			}
			return errors.New("fail")
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 2, attempts)
	})
}

func TestRetrier_RetryIf(t *testing.T) {
	permanent := errors.New("bad request")
	transient := errors.New("too many requests")

	r := New(
		WithMaxRetries(5),
		WithInitialInterval(1*time.Millisecond),
		WithRetryIf(func(err error) bool { return errors.Is(err, transient) }),
	)

	attempts := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return transient
		}
		return permanent
	})
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 3, attempts)
}

func TestRetrier_DoWithData(t *testing.T) {
	t.Run("success returns data", func(t *testing.T) {
		r := New()
		val, err := DoWithData(r, context.Background(), func(ctx context.Context) (string, error) {
			return "success", nil
		})
		assert.NoError(t, err)
		assert.Equal(t, "success", val)
	})

	t.Run("fail returns error", func(t *testing.T) {
		r := New(WithMaxRetries(1), WithInitialInterval(1*time.Millisecond))
		val, err := DoWithData(r, context.Background(), func(ctx context.Context) (string, error) {
			return "", errors.New("fail")
		})
		assert.Error(t, err)
		assert.Empty(t, val)
	})
}

func TestRetrier_OnRetry(t *testing.T) {
	var seen []int
	r := New(
		WithMaxRetries(2),
		WithInitialInterval(1*time.Millisecond),
		WithOnRetry(func(attempt int, wait time.Duration, err error) {
			assert.EqualError(t, err, "fail")
			assert.Greater(t, wait, time.Duration(0))
			seen = append(seen, attempt)
		}),
	)

	err := r.Do(context.Background(), func(ctx context.Context) error {
		return errors.New("fail")
	})
	assert.Error(t, err)
	assert.Equal(t, []int{1, 2}, seen)
}

type rateLimited struct{ after time.Duration }

func (e rateLimited) Error() string              { return "429" }
func (e rateLimited) RetryAfter() time.Duration { return e.after }

func TestRetrier_Backoff(t *testing.T) {
	r := New(WithInitialInterval(time.Second), WithMaxInterval(10*time.Second))
	r.random = func() float64 { return 0.5 } // no jitter

	plain := errors.New("fail")
	assert.Equal(t, time.Second, r.Backoff(0, plain))
	assert.Equal(t, 2*time.Second, r.Backoff(1, plain))
	assert.Equal(t, 8*time.Second, r.Backoff(3, plain))
	assert.Equal(t, 10*time.Second, r.Backoff(4, plain), "capped")

	assert.Equal(t, 5*time.Second, r.Backoff(0, rateLimited{after: 5 * time.Second}), "hint is longer")
	assert.Equal(t, 2*time.Second, r.Backoff(1, rateLimited{after: time.Second}), "hint is shorter")
	assert.Equal(t, 10*time.Second, r.Backoff(0, rateLimited{after: time.Minute}), "hint capped")
}

func TestRetrier_BackoffJitterBounds(t *testing.T) {
	r := New(WithInitialInterval(time.Second), WithJitter(0.2))

	r.random = func() float64 { return 0 }
	assert.Equal(t, 800*time.Millisecond, r.Backoff(0, errors.New("x")))

	r.random = func() float64 { return 1 }
	assert.Equal(t, 1200*time.Millisecond, r.Backoff(0, errors.New("x")))
}
