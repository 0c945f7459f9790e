package clientaddr

import (
	"net"
	"net/netip"
	"strings"
)

// parseToken parses one forwarding-chain or single-header token.
//
// The token is trimmed of surrounding whitespace and must then be a bare IPv4
// or IPv6 literal. Empty tokens, ports, brackets and zone suffixes are parse
// failures.
func parseToken(s string) (netip.Addr, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return netip.Addr{}, false
	}

	ip, err := netip.ParseAddr(s)
	if err != nil || ip.Zone() != "" {
		return netip.Addr{}, false
	}

	return ip, true
}

// parseNode parses an RFC 7239 node value such as `192.0.2.43:47011` or
// `[2001:db8:cafe::17]:4711`. It is lenient with quotes, brackets and port
// suffixes. Obfuscated identifiers and "unknown" fail to parse.
func parseNode(s string) (netip.Addr, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return netip.Addr{}, false
	}

	s = trimMatchedChar(s, '"')
	if s == "" {
		return netip.Addr{}, false
	}

	if host, _, err := net.SplitHostPort(s); err == nil {
		s = host
	}

	s = trimMatchedPair(s, '[', ']')

	ip, err := netip.ParseAddr(s)
	if err != nil || ip.Zone() != "" {
		return netip.Addr{}, false
	}

	return ip, true
}

// parseRemoteAddr parses a transport peer address as found in
// http.Request.RemoteAddr ("ip:port", "[v6]:port", or a bare address).
//
// Zones are dropped and IPv4-mapped addresses unmapped. It reports false for
// empty or non-IP values (for example unix socket paths).
func parseRemoteAddr(s string) (netip.Addr, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return netip.Addr{}, false
	}

	if host, _, err := net.SplitHostPort(s); err == nil {
		s = host
	}

	s = trimMatchedPair(s, '[', ']')

	ip, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, false
	}

	return normalizeIP(ip.WithZone("")), true
}

func normalizeIP(ip netip.Addr) netip.Addr {
	if ip.Is4In6() {
		return ip.Unmap()
	}
	return ip
}

// trimMatchedPair removes one leading and trailing delimiter when both match.
func trimMatchedPair(s string, start, end byte) string {
	if len(s) < 2 {
		return s
	}

	if s[0] != start || s[len(s)-1] != end {
		return s
	}

	return s[1 : len(s)-1]
}

// trimMatchedChar removes one matching leading and trailing character.
func trimMatchedChar(s string, ch byte) string {
	return trimMatchedPair(s, ch, ch)
}
