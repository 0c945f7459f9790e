package clientaddr

import (
	"context"
	"sync"
)

// Cache memoizes the resolution of a single request.
//
// Create one Cache per inbound request and discard it with the request. The
// first Resolve call runs the resolver; every later call, including
// concurrent ones, returns the same stored result without re-reading headers.
// Each call gets its own copy of any DebugInfo, so callers may modify it.
type Cache struct {
	resolver *Resolver
	req      Request

	once sync.Once
	addr ClientAddr
	ok   bool
}

// NewCache returns an empty cache for req backed by resolver.
func NewCache(resolver *Resolver, req Request) *Cache {
	return &Cache{resolver: resolver, req: req}
}

// Resolve returns the memoized resolution of the cached request.
//
// ctx is used only by the first call, for logging.
func (c *Cache) Resolve(ctx context.Context) (ClientAddr, bool) {
	c.once.Do(func() {
		if c.resolver == nil {
			return
		}
		c.addr, c.ok = c.resolver.ResolveFrom(ctx, c.req)
	})

	addr := c.addr
	addr.DebugInfo = addr.DebugInfo.clone()
	return addr, c.ok
}
