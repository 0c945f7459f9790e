package clientaddr

import (
	"context"
	"net/http"
)

// cacheContextKey is the context key for the per-request Cache.
type cacheContextKey struct{}

// WithCache returns a copy of ctx carrying cache.
func WithCache(ctx context.Context, cache *Cache) context.Context {
	return context.WithValue(ctx, cacheContextKey{}, cache)
}

// CacheFromContext returns the Cache attached by Middleware or WithCache.
func CacheFromContext(ctx context.Context) (*Cache, bool) {
	if ctx == nil {
		return nil, false
	}
	cache, ok := ctx.Value(cacheContextKey{}).(*Cache)
	return cache, ok && cache != nil
}

// FromContext resolves the client address through the request's Cache.
//
// It reports false when no Cache is attached or resolution is not
// applicable.
func FromContext(ctx context.Context) (ClientAddr, bool) {
	cache, ok := CacheFromContext(ctx)
	if !ok {
		return ClientAddr{}, false
	}

	return cache.Resolve(ctx)
}

// FromRequest is FromContext(r.Context()).
func FromRequest(r *http.Request) (ClientAddr, bool) {
	if r == nil {
		return ClientAddr{}, false
	}
	return FromContext(r.Context())
}

// Middleware attaches a fresh per-request Cache to every request.
//
// Nothing is resolved until a handler calls FromRequest or FromContext; all
// such calls within one request share a single resolution.
func (r *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		cache := NewCache(r, HTTPRequest(req))
		next.ServeHTTP(w, req.WithContext(WithCache(req.Context(), cache)))
	})
}
