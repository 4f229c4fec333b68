package pacing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedIntervalSpacesRequests(t *testing.T) {
	strategy := NewFixedInterval(30 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, strategy.Wait(ctx))
	require.NoError(t, strategy.Wait(ctx))
	require.NoError(t, strategy.Wait(ctx))
	elapsed := time.Since(start)

	// First call is free, the next two pay the interval each.
	assert.GreaterOrEqual(t, elapsed, 60*time.Millisecond)
}

func TestFixedIntervalFirstCallImmediate(t *testing.T) {
	strategy := NewFixedInterval(time.Hour)

	start := time.Now()
	require.NoError(t, strategy.Wait(context.Background()))
	assert.Less(t, time.Since(start), time.Second)
}

func TestFixedIntervalHonoursCancellation(t *testing.T) {
	strategy := NewFixedInterval(time.Hour)
	require.NoError(t, strategy.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := strategy.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNoneNeverWaits(t *testing.T) {
	start := time.Now()
	require.NoError(t, None{}.Wait(context.Background()))
	assert.Less(t, time.Since(start), time.Second)
}

func TestNoneReportsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, None{}.Wait(ctx), context.Canceled)
}
