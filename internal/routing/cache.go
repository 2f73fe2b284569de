package routing

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ResultCache memoizes optimization results by request fingerprint and
// collapses concurrent identical requests onto a single computation.
// We roll our own flight tracking instead of golang.org/x/sync/singleflight
// because completed entries must keep serving until the TTL expires, not
// just while the call is in flight.
type ResultCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry

	ttl     time.Duration
	metrics *MetricsRecorder
	logger  zerolog.Logger
}

// cacheEntry is one fingerprint's slot. done closes when the computation
// finishes; result and err are immutable after that.
type cacheEntry struct {
	done      chan struct{}
	result    *OptimizeResult
	err       error
	createdAt time.Time
}

// NewResultCache creates a cache with the given entry lifetime.
func NewResultCache(ttl time.Duration, metrics *MetricsRecorder) *ResultCache {
	return &ResultCache{
		entries: make(map[string]*cacheEntry),
		ttl:     ttl,
		metrics: metrics,
		logger:  log.With().Str("component", "result_cache").Logger(),
	}
}

// GetOrCompute returns the cached result for the fingerprint, or runs
// compute exactly once while concurrent callers wait for it. The second
// return value reports whether the caller got a previously started or
// finished computation. A failed computation is not cached: its error
// reaches every caller already waiting on it, and the next request
// retries from scratch.
func (c *ResultCache) GetOrCompute(ctx context.Context, fingerprint string, compute func(context.Context) (*OptimizeResult, error)) (*OptimizeResult, bool, error) {
	c.mu.Lock()
	entry, ok := c.entries[fingerprint]
	if ok && c.expired(entry) {
		delete(c.entries, fingerprint)
		ok = false
	}
	if ok {
		c.mu.Unlock()
		c.metrics.RecordCacheHit()
		select {
		case <-entry.done:
			return entry.result, true, entry.err
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
	}

	entry = &cacheEntry{done: make(chan struct{})}
	c.entries[fingerprint] = entry
	c.mu.Unlock()
	c.metrics.RecordCacheMiss()

	// The computation is detached from this caller's context: a waiter
	// that arrives later must not lose the result because the first
	// caller hung up.
	entry.result, entry.err = compute(context.WithoutCancel(ctx))
	// TTL starts when the result lands, so a slow computation does not
	// eat into the entry's lifetime.
	entry.createdAt = time.Now()
	close(entry.done)

	if entry.err != nil {
		c.mu.Lock()
		delete(c.entries, fingerprint)
		c.mu.Unlock()
		c.logger.Debug().Str("fingerprint", fingerprint).Err(entry.err).Msg("Dropped failed cache entry")
	}

	return entry.result, false, entry.err
}

// Invalidate removes one fingerprint, if present.
func (c *ResultCache) Invalidate(fingerprint string) {
	c.mu.Lock()
	delete(c.entries, fingerprint)
	c.mu.Unlock()
}

// Len reports live entries, evicting expired ones on the way.
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	for fp, entry := range c.entries {
		if c.expired(entry) {
			delete(c.entries, fp)
		}
	}
	return len(c.entries)
}

// expired reports whether a finished entry has outlived the TTL. In-flight
// entries never expire; their age is the computation's own timeout problem.
func (c *ResultCache) expired(entry *cacheEntry) bool {
	select {
	case <-entry.done:
		return time.Since(entry.createdAt) > c.ttl
	default:
		return false
	}
}
