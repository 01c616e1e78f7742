package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFull = errors.New("buffer full")

// fixed returns a jitter-free config for timing assertions.
func fixed(attempts int, initial, maxDelay time.Duration, multiplier float64) Config {
	return Config{
		MaxAttempts:  attempts,
		InitialDelay: initial,
		MaxDelay:     maxDelay,
		Multiplier:   multiplier,
	}
}

// drainsAfter simulates a full buffer that accepts on call n.
func drainsAfter(n int, calls *int) func() error {
	return func() error {
		*calls++
		if *calls < n {
			return errFull
		}
		return nil
	}
}

func TestDo_SucceedsOnceDrained(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fixed(3, time.Millisecond, 10*time.Millisecond, 2), drainsAfter(3, &calls))

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_GivesUp(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fixed(3, time.Millisecond, 10*time.Millisecond, 2), drainsAfter(100, &calls))

	require.ErrorIs(t, err, errFull)
	assert.Contains(t, err.Error(), "failed after 3 attempts")
	assert.Equal(t, 3, calls)
}

func TestDo_ZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Config{}, drainsAfter(100, &calls))

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_CancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	calls := 0
	start := time.Now()
	err := Do(ctx, fixed(5, 200*time.Millisecond, time.Second, 2), drainsAfter(100, &calls))

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "retry cancelled")
	assert.Equal(t, 1, calls)
	assert.Less(t, time.Since(start), 150*time.Millisecond)
}

func TestDo_CancelledBeforeRetry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := Do(ctx, fixed(5, time.Millisecond, time.Millisecond, 1), func() error {
		calls++
		cancel()
		return errFull
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDo_BackoffTiming(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		atLeast time.Duration
	}{
		// 10 + 20 + 40
		{"exponential", fixed(4, 10*time.Millisecond, 100*time.Millisecond, 2), 70 * time.Millisecond},
		// 10 + 25 + 25
		{"capped", fixed(4, 10*time.Millisecond, 25*time.Millisecond, 10), 60 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := time.Now()
			_ = Do(context.Background(), tt.cfg, func() error { return errFull })
			elapsed := time.Since(start)

			assert.GreaterOrEqual(t, elapsed, tt.atLeast)
			assert.Less(t, elapsed, tt.atLeast+100*time.Millisecond)
		})
	}
}

func TestDo_OnRetry(t *testing.T) {
	cfg := fixed(4, time.Millisecond, 4*time.Millisecond, 2)

	var attempts []int
	var delays []time.Duration
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		assert.ErrorIs(t, err, errFull)
		attempts = append(attempts, attempt)
		delays = append(delays, delay)
	}

	calls := 0
	require.NoError(t, Do(context.Background(), cfg, drainsAfter(4, &calls)))

	assert.Equal(t, []int{1, 2, 3}, attempts)
	assert.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond, 4 * time.Millisecond}, delays)
}

func TestDo_OnRetryNotCalledAfterLastAttempt(t *testing.T) {
	cfg := fixed(2, time.Millisecond, time.Millisecond, 1)
	hooks := 0
	cfg.OnRetry = func(int, error, time.Duration) { hooks++ }

	calls := 0
	require.Error(t, Do(context.Background(), cfg, drainsAfter(100, &calls)))
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, hooks)
}

func TestDo_RetryablePredicate(t *testing.T) {
	errBroken := errors.New("broken")
	cfg := fixed(5, time.Millisecond, 5*time.Millisecond, 2)
	cfg.Retryable = func(err error) bool { return errors.Is(err, errFull) }

	calls := 0
	err := Do(context.Background(), cfg, func() error {
		calls++
		if calls == 2 {
			return errBroken
		}
		return errFull
	})

	assert.ErrorIs(t, err, errBroken)
	assert.Equal(t, 2, calls)
}

func TestDo_NonRetryable(t *testing.T) {
	cause := errors.New("bad input")
	calls := 0
	err := Do(context.Background(), DefaultConfig(), func() error {
		calls++
		return NonRetryable(cause)
	})

	assert.ErrorIs(t, err, cause)
	assert.True(t, IsNonRetryable(err))
	assert.Equal(t, 1, calls)
	assert.Nil(t, NonRetryable(nil))
}

func TestDo_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"negative initial delay", Config{InitialDelay: -1}},
		{"negative max delay", Config{MaxDelay: -1}},
		{"negative multiplier", Config{Multiplier: -2}},
		{"max below initial", Config{InitialDelay: time.Second, MaxDelay: time.Millisecond}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := Do(context.Background(), tt.cfg, func() error { calls++; return nil })
			assert.Error(t, err)
			assert.Zero(t, calls)
		})
	}
}

func TestDoWithResult(t *testing.T) {
	calls := 0
	got, err := DoWithResult(context.Background(), fixed(3, time.Millisecond, 10*time.Millisecond, 2), func() (int, error) {
		calls++
		if calls < 3 {
			return 0, errFull
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestPresets(t *testing.T) {
	def := DefaultConfig()
	assert.Equal(t, 3, def.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, def.InitialDelay)
	assert.Equal(t, 5*time.Second, def.MaxDelay)
	assert.True(t, def.AddJitter)

	bp := Backpressure()
	assert.Equal(t, 8, bp.MaxAttempts)
	assert.Equal(t, time.Millisecond, bp.InitialDelay)
	assert.Equal(t, 50*time.Millisecond, bp.MaxDelay)
	assert.Nil(t, bp.Retryable)
}

func TestConfig_Delay(t *testing.T) {
	cfg := fixed(0, 10*time.Millisecond, 50*time.Millisecond, 2)

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{-1, 10 * time.Millisecond},
		{0, 10 * time.Millisecond},
		{1, 20 * time.Millisecond},
		{2, 40 * time.Millisecond},
		{3, 50 * time.Millisecond},
		{60, 50 * time.Millisecond},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, cfg.Delay(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestConfig_JitterBounded(t *testing.T) {
	cfg := fixed(0, 100*time.Millisecond, time.Second, 2)
	cfg.AddJitter = true

	for range 50 {
		d := cfg.backoff(1)
		assert.GreaterOrEqual(t, d, 100*time.Millisecond)
		assert.Less(t, d, 125*time.Millisecond)
	}
}

func BenchmarkDo_Success(b *testing.B) {
	ctx := context.Background()
	cfg := DefaultConfig()
	for i := 0; i < b.N; i++ {
		_ = Do(ctx, cfg, func() error { return nil })
	}
}
