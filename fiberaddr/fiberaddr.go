// Package fiberaddr integrates clientaddr with gofiber/fiber.
//
// The adapters wrap a *fiber.Ctx, which fiber recycles once the handler
// returns. Resolve within the handler chain only.
package fiberaddr

import (
	"net/netip"

	"github.com/gofiber/fiber/v2"

	"github.com/abczzz13/clientaddr"
)

// localsKey is the c.Locals key holding the per-request cache.
const localsKey = "clientaddr.cache"

type request struct {
	c *fiber.Ctx
}

// Request adapts a fiber context to clientaddr.Request.
func Request(c *fiber.Ctx) clientaddr.Request {
	return request{c: c}
}

// PeerAddr implements clientaddr.Request.
//
// fasthttp reports 0.0.0.0 for connections that are not TCP, which is
// treated as no peer.
func (r request) PeerAddr() (netip.Addr, bool) {
	ip, ok := netip.AddrFromSlice(r.c.Context().RemoteIP())
	if !ok || ip.IsUnspecified() {
		return netip.Addr{}, false
	}
	return ip.Unmap(), true
}

// HeaderValues implements clientaddr.Request.
func (r request) HeaderValues(name string) []string {
	raw := r.c.Request().Header.PeekAll(name)
	if len(raw) == 0 {
		return nil
	}

	values := make([]string, len(raw))
	for i, v := range raw {
		values[i] = string(v)
	}
	return values
}

// Describe implements clientaddr.Describer.
func (r request) Describe() (path, remoteAddr string) {
	return r.c.Path(), r.c.Context().RemoteAddr().String()
}

// New returns a middleware that attaches a per-request clientaddr.Cache.
//
// Resolution is deferred until FromCtx is first called for the request.
func New(resolver *clientaddr.Resolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(localsKey, clientaddr.NewCache(resolver, Request(c)))
		return c.Next()
	}
}

// FromCtx returns the memoized client address of the request.
//
// It reports false when the New middleware did not run or resolution is not
// applicable.
func FromCtx(c *fiber.Ctx) (clientaddr.ClientAddr, bool) {
	cache, ok := c.Locals(localsKey).(*clientaddr.Cache)
	if !ok || cache == nil {
		return clientaddr.ClientAddr{}, false
	}

	return cache.Resolve(c.UserContext())
}

// KeyGenerator returns a key function for fiber's limiter middleware keyed by
// the resolved client address. Requests without one share the key
// "unknown".
func KeyGenerator() func(*fiber.Ctx) string {
	return func(c *fiber.Ctx) string {
		if addr, ok := FromCtx(c); ok {
			return addr.String()
		}
		return "unknown"
	}
}
