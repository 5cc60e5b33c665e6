package loader

import (
	"hash/fnv"
	"image"

	"github.com/gogpu/g3d/internal/lru"
)

// cacheShards must be a power of two.
const (
	cacheShards = 16
	shardMask   = cacheShards - 1
)

// imageCache holds decoded images by asset name so repeated loads skip the
// open and decode. Workers share it; names spread over shards that lock
// independently.
type imageCache struct {
	shards [cacheShards]*lru.Cache[string, *image.RGBA]
}

// newImageCache returns a cache of about capacity images, or nil when
// capacity is not positive.
func newImageCache(capacity int) *imageCache {
	if capacity <= 0 {
		return nil
	}
	per := max(1, (capacity+cacheShards-1)/cacheShards)
	c := &imageCache{}
	for i := range c.shards {
		c.shards[i] = lru.New[string, *image.RGBA](per, nil)
	}
	return c
}

func (c *imageCache) shard(name string) *lru.Cache[string, *image.RGBA] {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name)) // fnv.Write never returns an error
	return c.shards[h.Sum64()&shardMask]
}

func (c *imageCache) get(name string) (*image.RGBA, bool) {
	if c == nil {
		return nil, false
	}
	return c.shard(name).Get(name)
}

func (c *imageCache) set(name string, img *image.RGBA) {
	if c != nil {
		c.shard(name).Set(name, img)
	}
}

func (c *imageCache) stats() lru.Stats {
	var total lru.Stats
	if c == nil {
		return total
	}
	for _, s := range c.shards {
		st := s.Stats()
		total.Len += st.Len
		total.Capacity += st.Capacity
		total.Hits += st.Hits
		total.Misses += st.Misses
		total.Evictions += st.Evictions
	}
	return total
}

func (c *imageCache) clear() {
	if c == nil {
		return
	}
	for _, s := range c.shards {
		s.Clear()
	}
}
