// Package clientaddr determines which IP address to treat as "the client" of
// an inbound request, given the transport peer address and attacker
// controllable proxy headers.
//
// # Features
//
//   - Address classification (private, loopback, link-local, broadcast,
//     documentation, unspecified, non-global multicast, public)
//   - Direct connections always win over headers
//   - Trusted single header (X-Real-IP) and forwarding-chain (X-Forwarded-For
//     or RFC 7239 Forwarded) resolution with a right-to-left walk
//   - Optional trusted proxy allow-list, matched with a prefix trie
//   - Per-request memoization safe for concurrent access
//   - Framework-agnostic Request interface; net/http, fiber and gRPC adapters
//   - Optional observability with context-aware logging and pluggable metrics
//
// # Basic Usage
//
//	resolver, err := clientaddr.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	addr, ok := resolver.Resolve(req)
//	if !ok {
//	    // not applicable: decide yourself whether to reject the request
//	}
//	fmt.Printf("Client IP: %s from %s\n", addr.IP, addr.Source)
//
// # Resolution Order
//
// With the default StrategyChainWalk:
//
//  1. A present, public peer address is returned immediately.
//  2. Otherwise the first X-Real-IP value is returned if it parses, even when
//     it is local.
//  3. Otherwise the first X-Forwarded-For value is split on commas and walked
//     from the nearest hop outward. An unparseable hop ends the walk. The
//     first public hop wins; if none is found, a parsed local hop is used.
//  4. Otherwise the peer address is returned, even when it is local.
//  5. Otherwise resolution is not applicable.
//
// WithHeaderPrecedence(ChainFirst) swaps steps 2 and 3. StrategyPeerOnly and
// StrategySingleHeader restrict how much header evidence is used.
//
// # Trusted Proxies
//
// Without any trusted proxy configured, headers are trusted whenever the peer
// is absent or local. Configure TrustProxyPrefixes, TrustedCIDRs or one of the
// Trust* helpers to require that the peer is a known proxy:
//
//	resolver, _ := clientaddr.New(clientaddr.PresetVMReverseProxy())
//
// Trusted hops are then also skipped while walking the chain.
//
// # Per-request Caching
//
// Wrap handlers with Resolver.Middleware and read the address with
// FromRequest; the resolver runs at most once per request:
//
//	mux.Handle("/", resolver.Middleware(handler))
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//	    addr, ok := clientaddr.FromRequest(r)
//	    ...
//	}
//
// # Observability
//
// The logger receives the request context, allowing trace/span IDs to flow
// through. A Prometheus adapter lives in the prometheus subpackage.
//
//	resolver, err := clientaddr.New(
//	    clientaddr.WithLogger(slog.Default()),
//	    clientaddrprom.WithRegisterer(registry),
//	)
//
// # Thread Safety
//
// Resolver instances are safe for concurrent use. They are typically created
// once at application startup and reused across all requests.
package clientaddr
