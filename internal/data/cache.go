package data

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"silo-dispatch/internal/model"
	"silo-dispatch/internal/simulate"
)

// Run is a stored simulation result, retrievable by ID.
type Run struct {
	ID        uuid.UUID
	Facility  string
	Settings  model.Settings
	Result    *simulate.Result
	CreatedAt time.Time
}

type cacheEntry struct {
	run       Run
	expiresAt time.Time
}

// ResultCache keeps simulation results in memory for a fixed TTL so clients
// can fetch the stock log of a run after the simulate call returned.
type ResultCache struct {
	mu    sync.RWMutex
	store map[uuid.UUID]*cacheEntry
	ttl   time.Duration
	now   func() time.Time
}

func NewResultCache(ttl time.Duration) *ResultCache {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &ResultCache{
		store: make(map[uuid.UUID]*cacheEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Put stores a result under a fresh ID.
func (c *ResultCache) Put(facility string, s model.Settings, res *simulate.Result) Run {
	now := c.now()
	run := Run{
		ID:        uuid.New(),
		Facility:  facility,
		Settings:  s,
		Result:    res,
		CreatedAt: now,
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[run.ID] = &cacheEntry{run: run, expiresAt: now.Add(c.ttl)}
	return run
}

// Get returns a run that has not expired.
func (c *ResultCache) Get(id uuid.UUID) (Run, bool) {
	if c == nil {
		return Run{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.store[id]
	if !ok || c.now().After(entry.expiresAt) {
		return Run{}, false
	}
	return entry.run, true
}

func (c *ResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Purge drops expired entries and reports how many were removed.
func (c *ResultCache) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	n := 0
	for id, entry := range c.store {
		if now.After(entry.expiresAt) {
			delete(c.store, id)
			n++
		}
	}
	return n
}

// Cleanup purges expired entries every interval until ctx is done.
func (c *ResultCache) Cleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Purge()
		}
	}
}
