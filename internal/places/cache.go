package places

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang/geo/s2"
)

// cellLevel groups searches whose origins lie in the same ~300 m cell.
const cellLevel = 15

func cacheKey(origin s2.LatLng, radius int) string {
	cell := s2.CellIDFromLatLng(origin).Parent(cellLevel)
	return fmt.Sprintf("%s:%d", cell.ToToken(), radius)
}

// cacheEntry holds every hospital a search found, unranked. Callers rank
// them from their own origin, which may differ from the one that filled
// the entry.
type cacheEntry struct {
	hospitals []Hospital
	expires   time.Time
}

type hospitalCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
	now     func() time.Time
}

func newHospitalCache(ttl time.Duration) *hospitalCache {
	return &hospitalCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

func (c *hospitalCache) get(key string) ([]Hospital, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().After(e.expires) {
		delete(c.entries, key)
		return nil, false
	}
	out := make([]Hospital, len(e.hospitals))
	copy(out, e.hospitals)
	return out, true
}

func (c *hospitalCache) put(key string, hospitals []Hospital) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, e := range c.entries {
		if now.After(e.expires) {
			delete(c.entries, k)
		}
	}

	stored := make([]Hospital, len(hospitals))
	copy(stored, hospitals)
	c.entries[key] = cacheEntry{hospitals: stored, expires: now.Add(c.ttl)}
}
