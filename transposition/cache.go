// Package transposition caches search scores under a canonical position
// signature. One evaluation is written under every symmetric form of the
// position, so any later search that meets a rotated or colour-swapped
// copy of it hits the cache.
package transposition

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ben-axnick/PFCloneLogic/board"
	"github.com/ben-axnick/PFCloneLogic/store"
)

// Cache is safe for concurrent use. Scores are kept from P1's point of
// view; callers convert for the side they search for.
type Cache struct {
	st        store.Store
	timeout   time.Duration
	available atomic.Bool

	lookups  atomic.Uint64
	hits     atomic.Uint64
	writes   atomic.Uint64
	failures atomic.Uint64
}

// New wraps st. A nil store gives a cache that always misses. The timeout
// bounds each remote call; in-process stores never block, so they get none.
func New(st store.Store, timeout time.Duration) *Cache {
	if _, local := st.(*store.MemoryStore); local {
		timeout = 0
	}
	c := &Cache{st: st, timeout: timeout}
	c.available.Store(st != nil)
	return c
}

// Available reports whether the backing store is still usable.
func (c *Cache) Available() bool { return c.available.Load() }

// Timeout is the deadline given to each store call, zero for none.
func (c *Cache) Timeout() time.Duration { return c.timeout }

func (c *Cache) ctx() (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.Background(), func() {}
	}
	return context.WithTimeout(context.Background(), c.timeout)
}

// disable turns the cache into an always-miss cache after a store failure.
func (c *Cache) disable(err error) {
	c.failures.Add(1)
	if c.available.CompareAndSwap(true, false) {
		log.Warn().Err(err).Msg("score-store-failed-cache-disabled")
	}
}

// Lookup returns the P1-perspective score stored under key.
func (c *Cache) Lookup(key string) (int32, bool) {
	if !c.available.Load() {
		return 0, false
	}
	c.lookups.Add(1)
	ctx, cancel := c.ctx()
	defer cancel()
	v, ok, err := c.st.Get(ctx, key)
	if err != nil {
		c.disable(err)
		return 0, false
	}
	if ok {
		c.hits.Add(1)
	}
	return v, ok
}

// StoreSymmetric records p1Score for b with toMove to play under all four
// symmetric signatures. The colour-swapped forms get the negated score.
func (c *Cache) StoreSymmetric(s *Signer, b *board.Board, toMove board.Player, p1Score int32) {
	if !c.available.Load() {
		return
	}
	ctx, cancel := c.ctx()
	defer cancel()
	for _, t := range AllTransforms {
		v := p1Score
		if t.inverts() {
			v = -v
		}
		if err := c.st.Set(ctx, s.Sign(b, toMove, t), v); err != nil {
			c.disable(err)
			return
		}
		c.writes.Add(1)
	}
}

// Stats is a snapshot of the cache counters.
type Stats struct {
	Lookups  uint64
	Hits     uint64
	Writes   uint64
	Failures uint64
}

func (c *Cache) Stats() Stats {
	return Stats{
		Lookups:  c.lookups.Load(),
		Hits:     c.hits.Load(),
		Writes:   c.writes.Load(),
		Failures: c.failures.Load(),
	}
}

// LogStats writes the counters at info level.
func (c *Cache) LogStats() {
	s := c.Stats()
	log.Info().Uint64("lookups", s.Lookups).Uint64("hits", s.Hits).
		Uint64("writes", s.Writes).Uint64("failures", s.Failures).
		Bool("available", c.Available()).
		Msg("transposition-cache-stats")
}
