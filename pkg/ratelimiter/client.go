package ratelimiter

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ClientLimiter hands out one token bucket per client key (usually the remote IP).
type ClientLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientEntry
	limit   rate.Limit
	burst   int
	idle    time.Duration
	now     func() time.Time
}

type clientEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewClientLimiter(perSecond float64, burst int) *ClientLimiter {
	return &ClientLimiter{
		clients: make(map[string]*clientEntry),
		limit:   rate.Limit(perSecond),
		burst:   burst,
		idle:    10 * time.Minute,
		now:     time.Now,
	}
}

func (c *ClientLimiter) Allow(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	entry, ok := c.clients[key]
	if !ok {
		entry = &clientEntry{limiter: rate.NewLimiter(c.limit, c.burst)}
		c.clients[key] = entry
	}
	entry.lastSeen = now

	return entry.limiter.AllowN(now, 1)
}

// Cleanup forgets clients idle for longer than the idle timeout.
func (c *ClientLimiter) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := c.now().Add(-c.idle)
	removed := 0
	for key, entry := range c.clients {
		if entry.lastSeen.Before(cutoff) {
			delete(c.clients, key)
			removed++
		}
	}
	return removed
}

func (c *ClientLimiter) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.clients)
}
