package plan

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/singleflight"
)

var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{Name: "farmavida_plan_cache_hits_total"})
	cacheMiss = promauto.NewCounter(prometheus.CounterOpts{Name: "farmavida_plan_cache_miss_total"})
)

type cachedPlan struct {
	plan     *Plan
	loadedAt time.Time
}

// planCache keeps plans by code. Concurrent misses for one code share a
// single load.
type planCache struct {
	mu    sync.RWMutex
	items map[string]cachedPlan
	ttl   time.Duration
	group singleflight.Group
	now   func() time.Time
}

func newPlanCache(ttl time.Duration) *planCache {
	return &planCache{
		items: make(map[string]cachedPlan),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (c *planCache) Get(code string) (*Plan, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.items[code]
	if !ok || (c.ttl > 0 && c.now().Sub(v.loadedAt) > c.ttl) {
		cacheMiss.Inc()
		return nil, false
	}
	cacheHits.Inc()
	return v.plan, true
}

func (c *planCache) Set(code string, p *Plan) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[code] = cachedPlan{plan: p, loadedAt: c.now()}
}

func (c *planCache) Invalidate(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, code)
	c.group.Forget(code)
}

// Load returns the cached plan or calls fn once for all concurrent callers.
func (c *planCache) Load(code string, fn func() (*Plan, error)) (*Plan, error) {
	if p, ok := c.Get(code); ok {
		return p, nil
	}

	v, err, _ := c.group.Do(code, func() (any, error) {
		p, err := fn()
		if err != nil {
			return nil, err
		}
		c.Set(code, p)
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Plan), nil
}
