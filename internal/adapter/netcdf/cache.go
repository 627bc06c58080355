package netcdf

import (
	"context"
	"strconv"
	"sync"

	"github.com/golang/groupcache/lru"

	"github.com/pocean23/argopy/internal/dataset"
	"github.com/pocean23/argopy/internal/domain"
)

// Loader loads the dataset of one float.
type Loader interface {
	Load(ctx context.Context, ref domain.FloatRef) (*dataset.Dataset, error)
}

// CachedLoader wraps a Loader with an in-memory LRU cache. Callers get their
// own copy of a cached dataset.
type CachedLoader struct {
	inner Loader
	mu    sync.Mutex
	cache *lru.Cache
}

// NewCachedLoader creates a cache decorator holding up to maxEntries
// datasets.
func NewCachedLoader(inner Loader, maxEntries int) *CachedLoader {
	return &CachedLoader{
		inner: inner,
		cache: lru.New(maxEntries),
	}
}

func (c *CachedLoader) Load(ctx context.Context, ref domain.FloatRef) (*dataset.Dataset, error) {
	key := ResolveInstitute(ref.Institute) + "/" + strconv.Itoa(ref.WMO)
	c.mu.Lock()
	cached, ok := c.cache.Get(key)
	c.mu.Unlock()
	if ok {
		return cached.(*dataset.Dataset).Clone(), nil
	}

	ds, err := c.inner.Load(ctx, ref)
	if err != nil {
		// Failures are not cached so a file that appears later is picked up.
		return nil, err
	}
	c.mu.Lock()
	c.cache.Add(key, ds.Clone())
	c.mu.Unlock()
	return ds, nil
}

// Len returns the number of cached datasets.
func (c *CachedLoader) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Len()
}
