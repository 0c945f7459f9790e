package clientaddr

import (
	"context"
	"net/netip"
	"strings"
)

// chainPick is the outcome of walking a forwarding chain.
type chainPick struct {
	ip            netip.Addr
	index         int
	truncated     bool
	limited       bool
	localFallback bool
}

// chainTokens returns the tokens of the first chain header value.
//
// It reports false when the header is absent or malformed (Forwarded syntax).
// A chain longer than maxChainLength is kept; walkChain bounds the scan.
func (r *Resolver) chainTokens(ctx context.Context, req Request) ([]string, bool) {
	header := r.config.chainHeader
	sourceName := NormalizeSourceName(header)

	values := req.HeaderValues(header)
	if len(values) == 0 {
		return nil, false
	}
	if len(values) > 1 {
		r.securityEvent(ctx, req, sourceName, securityEventMultipleHeaders,
			"multiple forwarding-chain headers received, using the first",
			"header", header,
			"header_count", len(values),
		)
	}

	var parts []string
	if r.isForwardedChain() {
		nodes, err := parseForwardedChain(values[0])
		if err != nil {
			r.securityEvent(ctx, req, sourceName, securityEventMalformedForward,
				"malformed Forwarded header received",
				"parse_error", err.Error(),
			)
			return nil, false
		}
		parts = nodes
	} else {
		parts = strings.Split(values[0], ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
	}

	if len(parts) > r.config.maxChainLength {
		r.securityEvent(ctx, req, sourceName, securityEventChainTooLong,
			"forwarding chain exceeds configured maximum length, walking only the nearest hops",
			"chain_length", len(parts),
			"max_length", r.config.maxChainLength,
		)
	}

	return parts, len(parts) > 0
}

func (r *Resolver) isForwardedChain() bool {
	return r.config.chainHeader == forwardedHeader
}

func (r *Resolver) parseChainToken(token string) (netip.Addr, bool) {
	if r.isForwardedChain() {
		return parseNode(token)
	}
	return parseToken(token)
}

// walkChain scans parts from the nearest hop (rightmost) outward.
//
// At most maxChainLength hops are scanned. The first unparseable token ends
// the scan; hops to its left are never considered. The first hop that is not
// internal is the answer. When every scanned hop is internal, the configured
// LocalFallback picks one of them.
func (r *Resolver) walkChain(parts []string) (chainPick, bool) {
	nearest, farthest := -1, -1
	var nearestIP, farthestIP netip.Addr
	truncated := false

	lowest := max(len(parts)-r.config.maxChainLength, 0)
	for i := len(parts) - 1; i >= lowest; i-- {
		ip, ok := r.parseChainToken(parts[i])
		if !ok {
			truncated = true
			break
		}

		ip = normalizeIP(ip)
		if !r.isInternal(ip) {
			return chainPick{ip: ip, index: i, truncated: false}, true
		}

		if nearest < 0 {
			nearest, nearestIP = i, ip
		}
		farthest, farthestIP = i, ip
	}

	limited := !truncated && lowest > 0

	if nearest < 0 {
		return chainPick{index: -1, truncated: truncated, limited: limited}, false
	}

	pick := chainPick{ip: nearestIP, index: nearest, truncated: truncated, limited: limited, localFallback: true}
	if r.config.localFallback == FallbackFarthestHop {
		pick.ip, pick.index = farthestIP, farthest
	}

	return pick, true
}

// resolveChain resolves from the forwarding-chain header.
func (r *Resolver) resolveChain(ctx context.Context, req Request) (ClientAddr, bool) {
	parts, ok := r.chainTokens(ctx, req)
	if !ok {
		return ClientAddr{}, false
	}

	sourceName := NormalizeSourceName(r.config.chainHeader)

	pick, ok := r.walkChain(parts)
	if pick.truncated {
		r.securityEvent(ctx, req, sourceName, securityEventMalformedChain,
			"forwarding chain contains an unparseable hop, ignoring hops to its left",
			"chain_length", len(parts),
		)
	}
	if !ok {
		return ClientAddr{}, false
	}

	if pick.localFallback {
		r.securityEvent(ctx, req, sourceName, securityEventLocalFallback,
			"forwarding chain has no public hop, using a local address",
			"client_ip", pick.ip.String(),
		)
	}

	addr := ClientAddr{IP: pick.ip, Source: sourceName}
	if r.config.debugMode {
		addr.DebugInfo = &ChainDebugInfo{
			FullChain:     parts,
			ClientIndex:   pick.index,
			Truncated:     pick.truncated || pick.limited,
			LocalFallback: pick.localFallback,
		}
	}

	return addr, true
}
