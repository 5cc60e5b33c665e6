// Package lru provides the bounded least-recently-used map shared by the
// program source cache and the wgpu pipeline cache.
//
//	c := lru.New[string, string](64, nil)
//	c.Set("standard|...", src)
//	src, ok := c.Get("standard|...")
//
// An eviction callback lets owners release the GPU object behind an evicted
// value. The cache is safe for concurrent use.
package lru
