package resolve

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/sarchlab/mipscan/mem"
)

// DefaultCacheSize is the number of image digests a CachedResolver
// remembers.
const DefaultCacheSize = 16

type cacheEntry struct {
	target *Target
	err    error
}

// CachedResolver remembers the outcome for recently seen images, keyed by
// their content digest. Repeated snapshots of an unchanged memory region
// are resolved once.
type CachedResolver struct {
	*Resolver
	cache *lru.Cache
}

// NewCachedResolver wraps r with a cache of the given size.
func NewCachedResolver(r *Resolver, size int) *CachedResolver {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, _ := lru.New(size)
	return &CachedResolver{Resolver: r, cache: cache}
}

// Resolve returns the cached outcome for img, resolving it on a miss.
func (c *CachedResolver) Resolve(img *mem.Image) (*Target, error) {
	if v, ok := c.cache.Get(img.Digest()); ok {
		entry := v.(cacheEntry)
		return entry.target, entry.err
	}

	target, err := c.Resolver.Resolve(img)
	c.cache.Add(img.Digest(), cacheEntry{target: target, err: err})
	return target, err
}

// Len returns the number of cached outcomes.
func (c *CachedResolver) Len() int {
	return c.cache.Len()
}

// Purge forgets every cached outcome.
func (c *CachedResolver) Purge() {
	c.cache.Purge()
}
