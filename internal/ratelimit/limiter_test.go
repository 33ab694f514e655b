package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquire_ImmediateWithinBudget(t *testing.T) {
	l := New("weather", 3, time.Second)

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, l.Acquire(context.Background()))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestAcquire_BlocksUntilWindowFrees(t *testing.T) {
	window := 150 * time.Millisecond
	l := New("weather", 2, window)

	start := time.Now()
	require.NoError(t, l.Acquire(context.Background()))
	require.NoError(t, l.Acquire(context.Background()))

	// Third call must not resolve earlier than one window after the first
	// grant's timestamp.
	require.NoError(t, l.Acquire(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), window)
}

func TestAcquire_WindowSlidesWithFakeClock(t *testing.T) {
	fc := clockwork.NewFakeClock()
	l := New("weather", 2, 10*time.Second)
	l.clock = fc

	require.NoError(t, l.Acquire(context.Background()))
	fc.Advance(6 * time.Second)
	require.NoError(t, l.Acquire(context.Background()))

	// Window full; a third caller sleeps until the first grant ages out.
	done := make(chan error, 1)
	go func() { done <- l.Acquire(context.Background()) }()

	fc.BlockUntil(1) // third caller parked on the window timer
	fc.Advance(3 * time.Second)

	select {
	case err := <-done:
		t.Fatalf("acquire resolved before window freed: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	fc.Advance(1 * time.Second) // first grant is now a full window old
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("acquire did not resolve after window freed")
	}
}

func TestAcquire_ContextCancelledWhileWaiting(t *testing.T) {
	l := New("weather", 1, time.Minute)
	require.NoError(t, l.Acquire(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := l.Acquire(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAcquire_WaitBudgetExhausted(t *testing.T) {
	l := New("weather", 1, time.Minute)
	l.maxWaits = 0
	require.NoError(t, l.Acquire(context.Background()))

	err := l.Acquire(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBudgetExhausted)
	assert.Contains(t, err.Error(), "weather")
}

func TestLimiters_Independent(t *testing.T) {
	weather := New("weather", 1, time.Minute)
	air := New("air-quality", 1, time.Minute)

	require.NoError(t, weather.Acquire(context.Background()))

	// Exhausting one limiter must not affect the other.
	start := time.Now()
	require.NoError(t, air.Acquire(context.Background()))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}
