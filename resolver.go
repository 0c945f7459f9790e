package clientaddr

import (
	"context"
	"fmt"
	"net/http"
	"net/netip"
)

// SourceRemoteAddr is the ClientAddr.Source of addresses taken from the
// transport peer.
const SourceRemoteAddr = "remote_addr"

// Resolver determines the client address of inbound requests.
//
// Resolver instances are immutable after New and safe for concurrent use.
type Resolver struct {
	config *config
}

// New creates a Resolver from one or more Option builders.
func New(opts ...Option) (*Resolver, error) {
	cfg, err := configFromOptions(opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &Resolver{config: cfg}, nil
}

// Strategy returns the configured resolution strategy.
func (r *Resolver) Strategy() Strategy {
	return r.config.strategy
}

// Resolve returns the client address of an HTTP request.
//
// false means "not applicable": no client address could be determined. It is
// never an error, and the request is not rejected by the resolver.
func (r *Resolver) Resolve(req *http.Request) (ClientAddr, bool) {
	ctx := context.Background()
	if req != nil {
		ctx = req.Context()
	}

	return r.ResolveFrom(ctx, HTTPRequest(req))
}

// ResolveFrom returns the client address from framework-agnostic request data.
//
// ctx is only handed to the Logger.
func (r *Resolver) ResolveFrom(ctx context.Context, req Request) (ClientAddr, bool) {
	if ctx == nil {
		ctx = context.Background()
	}
	if isNilInterface(req) {
		r.config.metrics.RecordResolutionFailure(r.config.strategy.String())
		return ClientAddr{}, false
	}

	var (
		addr ClientAddr
		ok   bool
	)
	switch r.config.strategy {
	case StrategyPeerOnly:
		addr, ok = r.resolvePeerOnly(req)
	case StrategySingleHeader:
		addr, ok = r.resolveSingleHeader(ctx, req)
	default:
		addr, ok = r.resolveChainWalk(ctx, req)
	}

	if !ok {
		r.config.metrics.RecordResolutionFailure(r.config.strategy.String())
		return ClientAddr{}, false
	}

	addr.IP = normalizeIP(addr.IP)
	r.config.metrics.RecordResolutionSuccess(addr.Source)
	return addr, true
}

// ResolveWithOptions is a one-shot convenience helper.
//
// It constructs a temporary resolver from opts and resolves r.
func ResolveWithOptions(r *http.Request, opts ...Option) (ClientAddr, bool, error) {
	resolver, err := New(opts...)
	if err != nil {
		return ClientAddr{}, false, err
	}

	addr, ok := resolver.Resolve(r)
	return addr, ok, nil
}

// ResolveFromWithOptions is a one-shot convenience helper for
// framework-agnostic request data.
func ResolveFromWithOptions(ctx context.Context, req Request, opts ...Option) (ClientAddr, bool, error) {
	resolver, err := New(opts...)
	if err != nil {
		return ClientAddr{}, false, err
	}

	addr, ok := resolver.ResolveFrom(ctx, req)
	return addr, ok, nil
}

func (r *Resolver) resolvePeerOnly(req Request) (ClientAddr, bool) {
	peer, ok := req.PeerAddr()
	if !ok || r.isInternal(peer) {
		return ClientAddr{}, false
	}

	return peerAddr(peer), true
}

func (r *Resolver) resolveSingleHeader(ctx context.Context, req Request) (ClientAddr, bool) {
	peer, hasPeer := req.PeerAddr()
	if !r.behindProxy(ctx, req, peer, hasPeer) {
		return peerOrNothing(peer, hasPeer)
	}

	for _, header := range []string{r.config.realIPHeader, r.config.chainHeader} {
		values := req.HeaderValues(header)
		if len(values) == 0 {
			continue
		}

		// A present header is authoritative: a malformed value does not
		// fall through to the next source.
		return r.parseHeaderValue(ctx, req, header, values)
	}

	return peerOrNothing(peer, hasPeer)
}

func (r *Resolver) resolveChainWalk(ctx context.Context, req Request) (ClientAddr, bool) {
	peer, hasPeer := req.PeerAddr()
	if !r.behindProxy(ctx, req, peer, hasPeer) {
		return peerOrNothing(peer, hasPeer)
	}

	sources := []func(context.Context, Request) (ClientAddr, bool){r.resolveRealIP, r.resolveChain}
	if r.config.precedence == ChainFirst {
		sources[0], sources[1] = sources[1], sources[0]
	}

	for _, source := range sources {
		if addr, ok := source(ctx, req); ok {
			return addr, true
		}
	}

	return peerOrNothing(peer, hasPeer)
}

// resolveRealIP resolves from the single-value trusted header. A value that
// parses is returned even when it is local.
func (r *Resolver) resolveRealIP(ctx context.Context, req Request) (ClientAddr, bool) {
	values := req.HeaderValues(r.config.realIPHeader)
	if len(values) == 0 {
		return ClientAddr{}, false
	}

	return r.parseHeaderValue(ctx, req, r.config.realIPHeader, values)
}

// parseHeaderValue parses the first value of header as one address.
func (r *Resolver) parseHeaderValue(ctx context.Context, req Request, header string, values []string) (ClientAddr, bool) {
	sourceName := NormalizeSourceName(header)

	if len(values) > 1 {
		r.securityEvent(ctx, req, sourceName, securityEventMultipleHeaders,
			"multiple single-IP headers received, using the first",
			"header", header,
			"header_count", len(values),
		)
	}

	ip, ok := parseToken(values[0])
	if !ok {
		r.securityEvent(ctx, req, sourceName, securityEventMalformedHeader,
			"header value is not an IP address",
			"header", header,
		)
		return ClientAddr{}, false
	}

	return ClientAddr{IP: ip, Source: sourceName}, true
}

// behindProxy reports whether header evidence may be used for this peer.
//
// Without trusted proxies, headers are used when the peer is absent or local.
// With trusted proxies, the peer must be present and inside the trusted set.
func (r *Resolver) behindProxy(ctx context.Context, req Request, peer netip.Addr, hasPeer bool) bool {
	if r.config.trustedProxies.empty() {
		return !hasPeer || IsLocal(peer)
	}

	if hasPeer && r.config.trustedProxies.contains(peer) {
		return true
	}

	if r.hasProxyHeaders(req) {
		r.securityEvent(ctx, req, SourceRemoteAddr, securityEventUntrustedProxy,
			"proxy headers received from an untrusted peer, ignoring them")
	}
	return false
}

func (r *Resolver) hasProxyHeaders(req Request) bool {
	return len(req.HeaderValues(r.config.realIPHeader)) > 0 ||
		len(req.HeaderValues(r.config.chainHeader)) > 0
}

// isInternal reports whether ip is local or a configured trusted proxy, and
// therefore cannot be the client.
func (r *Resolver) isInternal(ip netip.Addr) bool {
	return IsLocal(ip) || r.config.trustedProxies.contains(ip)
}

func peerAddr(peer netip.Addr) ClientAddr {
	return ClientAddr{IP: peer, Source: SourceRemoteAddr}
}

func peerOrNothing(peer netip.Addr, hasPeer bool) (ClientAddr, bool) {
	if !hasPeer {
		return ClientAddr{}, false
	}
	return peerAddr(peer), true
}

func (r *Resolver) securityEvent(ctx context.Context, req Request, sourceName, event, msg string, attrs ...any) {
	r.config.metrics.RecordSecurityEvent(event)

	path, remoteAddr := describeRequest(req)
	baseAttrs := []any{
		"event", event,
		"source", sourceName,
		"path", path,
		"remote_addr", remoteAddr,
	}

	r.config.logger.WarnContext(ctx, msg, append(baseAttrs, attrs...)...)
}
