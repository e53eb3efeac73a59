package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countAllowed(rl *KeyedRateLimiter, key string, calls int) int {
	allowed := 0
	for i := 0; i < calls; i++ {
		if rl.Allow(key) {
			allowed++
		}
	}
	return allowed
}

func TestKeyedRateLimiter_BurstThenBlock(t *testing.T) {
	rl := New(1, 3)
	defer rl.Stop()

	// The full burst passes, everything after it is rejected until refill.
	assert.Equal(t, 3, countAllowed(rl, "192.168.1.10", 3))
	assert.False(t, rl.Allow("192.168.1.10"))
}

func TestKeyedRateLimiter_ClientsAreIndependent(t *testing.T) {
	rl := New(1, 1)
	defer rl.Stop()

	// One phone hammering the generate endpoint must not starve another.
	require.True(t, rl.Allow("192.168.1.10"))
	assert.False(t, rl.Allow("192.168.1.10"))
	assert.True(t, rl.Allow("192.168.1.20"))
}

func TestKeyedRateLimiter_WaitRefills(t *testing.T) {
	rl := New(10, 1)
	defer rl.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	start := time.Now()
	require.NoError(t, rl.Wait(ctx, "192.168.1.10"))
	assert.Less(t, time.Since(start), 50*time.Millisecond, "first request should be immediate")

	// The second request waits roughly one refill interval (100ms at 10 rps).
	start = time.Now()
	require.NoError(t, rl.Wait(ctx, "192.168.1.10"))
	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, 80*time.Millisecond)
	assert.LessOrEqual(t, elapsed, 200*time.Millisecond)
}

func TestKeyedRateLimiter_WaitHonorsContext(t *testing.T) {
	rl := New(0.1, 1) // one request per ten seconds
	defer rl.Stop()

	require.True(t, rl.Allow("192.168.1.10"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.Error(t, rl.Wait(ctx, "192.168.1.10"))
}

func TestKeyedRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := New(1, 1)
	rl.Stop()
	rl.Stop()
}
