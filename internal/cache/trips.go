package cache

import (
	"strconv"
	"sync/atomic"
	"time"

	"tripledger/internal/aggregate"
	"tripledger/internal/core"
)

// TripListCache memoizes filtered trip listings for the current snapshot.
// Invalidate must be called whenever the snapshot changes; entries computed
// before the call are never served afterwards.
type TripListCache struct {
	lru   *LRUCache[[]core.Trip]
	epoch atomic.Int64
}

func NewTripListCache(maxSize int, ttl time.Duration) *TripListCache {
	return &TripListCache{lru: NewLRUCache[[]core.Trip](maxSize, ttl)}
}

// Lookup returns the cached listing for f, computing and storing it on a miss.
func (c *TripListCache) Lookup(f aggregate.TripFilter, compute func() []core.Trip) []core.Trip {
	epoch := c.epoch.Load()
	key := strconv.FormatInt(epoch, 10) + "#" + f.CacheKey()
	if trips, ok := c.lru.Get(key); ok {
		return trips
	}
	trips := compute()
	c.lru.Set(key, trips)
	return trips
}

// Invalidate drops every cached listing.
func (c *TripListCache) Invalidate() {
	c.epoch.Add(1)
	c.lru.Purge()
}

func (c *TripListCache) CleanExpired() int { return c.lru.CleanExpired() }

func (c *TripListCache) Stats() Stats { return c.lru.Stats() }
