package routing

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResult() *OptimizeResult {
	return &OptimizeResult{ComputedAt: time.Now()}
}

func TestResultCache_ComputesOnceAndCaches(t *testing.T) {
	cache := NewResultCache(time.Minute, NewMetricsRecorder())
	calls := 0

	first, hit, err := cache.GetOrCompute(context.Background(), "fp", func(context.Context) (*OptimizeResult, error) {
		calls++
		return testResult(), nil
	})
	require.NoError(t, err)
	assert.False(t, hit)

	second, hit, err := cache.GetOrCompute(context.Background(), "fp", func(context.Context) (*OptimizeResult, error) {
		calls++
		return testResult(), nil
	})
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, calls)

	// Hits observe the identical value, not an equal copy.
	assert.Same(t, first, second)
}

func TestResultCache_ConcurrentIdenticalRequestsShareOneComputation(t *testing.T) {
	cache := NewResultCache(time.Minute, NewMetricsRecorder())

	var calls int64
	started := make(chan struct{})

	const n = 10
	results := make([]*OptimizeResult, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, _, err := cache.GetOrCompute(context.Background(), "fp", func(context.Context) (*OptimizeResult, error) {
				atomic.AddInt64(&calls, 1)
				<-started // hold the computation open until all goroutines are in flight
				return testResult(), nil
			})
			assert.NoError(t, err)
			results[i] = r
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(started)
	wg.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))
	for i := 1; i < n; i++ {
		assert.Same(t, results[0], results[i])
	}
}

func TestResultCache_ErrorPropagatesAndIsNotCached(t *testing.T) {
	cache := NewResultCache(time.Minute, NewMetricsRecorder())
	boom := errors.New("upstream exploded")

	_, _, err := cache.GetOrCompute(context.Background(), "fp", func(context.Context) (*OptimizeResult, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, cache.Len())

	// The failed entry is gone; the next identical request recomputes.
	result, hit, err := cache.GetOrCompute(context.Background(), "fp", func(context.Context) (*OptimizeResult, error) {
		return testResult(), nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NotNil(t, result)
}

func TestResultCache_ConcurrentWaitersAllSeeTheError(t *testing.T) {
	cache := NewResultCache(time.Minute, NewMetricsRecorder())
	boom := errors.New("upstream exploded")
	release := make(chan struct{})

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, err := cache.GetOrCompute(context.Background(), "fp", func(context.Context) (*OptimizeResult, error) {
				<-release
				return nil, boom
			})
			errs[i] = err
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, err := range errs {
		assert.ErrorIs(t, err, boom)
	}
}

func TestResultCache_EntriesExpire(t *testing.T) {
	cache := NewResultCache(20*time.Millisecond, NewMetricsRecorder())
	calls := 0
	compute := func(context.Context) (*OptimizeResult, error) {
		calls++
		return testResult(), nil
	}

	_, _, err := cache.GetOrCompute(context.Background(), "fp", compute)
	require.NoError(t, err)

	time.Sleep(40 * time.Millisecond)

	_, hit, err := cache.GetOrCompute(context.Background(), "fp", compute)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, calls)
}

func TestResultCache_TTLStartsWhenComputationFinishes(t *testing.T) {
	cache := NewResultCache(30*time.Millisecond, NewMetricsRecorder())

	// The computation outlasts the TTL. The entry must still serve a full
	// lifetime once it lands.
	_, _, err := cache.GetOrCompute(context.Background(), "fp", func(context.Context) (*OptimizeResult, error) {
		time.Sleep(50 * time.Millisecond)
		return testResult(), nil
	})
	require.NoError(t, err)

	_, hit, err := cache.GetOrCompute(context.Background(), "fp", func(context.Context) (*OptimizeResult, error) {
		return testResult(), nil
	})
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestResultCache_DistinctFingerprintsDoNotCollide(t *testing.T) {
	cache := NewResultCache(time.Minute, NewMetricsRecorder())

	a, _, err := cache.GetOrCompute(context.Background(), "fp-a", func(context.Context) (*OptimizeResult, error) {
		return testResult(), nil
	})
	require.NoError(t, err)
	b, hit, err := cache.GetOrCompute(context.Background(), "fp-b", func(context.Context) (*OptimizeResult, error) {
		return testResult(), nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NotSame(t, a, b)
	assert.Equal(t, 2, cache.Len())
}
