package services

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/pratik-mahalle/altseo/internal/domain/subscription"
	"github.com/pratik-mahalle/altseo/internal/pkg/metrics"
)

// planLoadTimeout bounds a shared repository read
const planLoadTimeout = 5 * time.Second

// PlanCache serves plan reads from a short-lived LRU. Concurrent misses for
// the same user share one repository read.
type PlanCache struct {
	repo  subscription.Repository
	cache *expirable.LRU[int64, string]
	group singleflight.Group

	// gens is bumped by Invalidate. A load only caches its result when the
	// generation it started under is still current.
	mu   sync.Mutex
	gens map[int64]uint64
}

// NewPlanCache creates a plan cache
func NewPlanCache(repo subscription.Repository, size int, ttl time.Duration) *PlanCache {
	if size <= 0 {
		size = 10000
	}
	return &PlanCache{
		repo:  repo,
		cache: expirable.NewLRU[int64, string](size, nil, ttl),
		gens:  make(map[int64]uint64),
	}
}

// Plan returns the current plan of a user
func (c *PlanCache) Plan(ctx context.Context, userID int64) (string, error) {
	if plan, ok := c.cache.Get(userID); ok {
		metrics.RecordPlanCacheLookup(true)
		return plan, nil
	}
	metrics.RecordPlanCacheLookup(false)

	// The read is shared by every waiter, so it must not die with the first
	// caller's request.
	loadCtx := context.WithoutCancel(ctx)
	v, err, _ := c.group.Do(strconv.FormatInt(userID, 10), func() (interface{}, error) {
		gen := c.generation(userID)

		lctx, cancel := context.WithTimeout(loadCtx, planLoadTimeout)
		defer cancel()
		rec, err := c.repo.GetByUserID(lctx, userID)
		if err != nil {
			return "", err
		}
		plan := subscription.PlanFree
		if rec.IsPro() {
			plan = subscription.PlanPro
		}

		c.mu.Lock()
		if c.gens[userID] == gen {
			c.cache.Add(userID, plan)
		}
		c.mu.Unlock()
		return plan, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate drops the cached plan of a user. A load already in flight will
// still answer its waiters but will not repopulate the cache.
func (c *PlanCache) Invalidate(userID int64) {
	c.mu.Lock()
	c.gens[userID]++
	c.cache.Remove(userID)
	c.mu.Unlock()
	c.group.Forget(strconv.FormatInt(userID, 10))
}

func (c *PlanCache) generation(userID int64) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[userID]
}
