package clientaddr

import "net/netip"

// Class is the address class an IP falls into for client identification.
//
// Only ClassPublic identifies a genuine external client. Every other class is
// "local" and is superseded by proxy header evidence when resolving.
type Class int

const (
	// ClassPublic is a globally meaningful unicast address or a globally
	// scoped IPv6 multicast address.
	ClassPublic Class = iota
	// ClassPrivate covers RFC 1918 IPv4, IPv6 unique-local and legacy
	// site-local ranges.
	ClassPrivate
	// ClassLoopback covers 127.0.0.0/8 and ::1.
	ClassLoopback
	// ClassLinkLocal covers 169.254.0.0/16 and fe80::/10.
	ClassLinkLocal
	// ClassBroadcast is the IPv4 limited broadcast address.
	ClassBroadcast
	// ClassDocumentation covers the TEST-NET ranges and 2001:db8::/32.
	ClassDocumentation
	// ClassUnspecified covers 0.0.0.0, :: and the zero netip.Addr.
	ClassUnspecified
	// ClassNonGlobalMulticast is IPv6 multicast with any scope but global.
	ClassNonGlobalMulticast
)

// String returns the canonical text representation of c.
func (c Class) String() string {
	switch c {
	case ClassPublic:
		return "public"
	case ClassPrivate:
		return "private"
	case ClassLoopback:
		return "loopback"
	case ClassLinkLocal:
		return "link_local"
	case ClassBroadcast:
		return "broadcast"
	case ClassDocumentation:
		return "documentation"
	case ClassUnspecified:
		return "unspecified"
	case ClassNonGlobalMulticast:
		return "non_global_multicast"
	default:
		return "unknown"
	}
}

// IsLocal reports whether c is any class other than ClassPublic.
func (c Class) IsLocal() bool {
	return c != ClassPublic
}

// ipv6MulticastScopeGlobal is the RFC 4291 scope value for global multicast.
const ipv6MulticastScopeGlobal = 0xe

var (
	ipv4Broadcast = netip.AddrFrom4([4]byte{255, 255, 255, 255})

	documentationIPv4Prefixes = []netip.Prefix{
		mustParsePrefix("192.0.2.0/24"),
		mustParsePrefix("198.51.100.0/24"),
		mustParsePrefix("203.0.113.0/24"),
	}

	documentationIPv6Prefix = mustParsePrefix("2001:db8::/32")
	siteLocalIPv6Prefix     = mustParsePrefix("fec0::/10")
)

// IsLocal reports whether addr is private, loopback, link-local, broadcast,
// documentation, unspecified or non-global multicast.
//
// IPv4-mapped IPv6 addresses are classified by their IPv4 form. IsLocal is
// total: it never fails and treats the zero netip.Addr as unspecified.
func IsLocal(addr netip.Addr) bool {
	return Classify(addr).IsLocal()
}

// Classify returns the address class of addr.
func Classify(addr netip.Addr) Class {
	if !addr.IsValid() {
		return ClassUnspecified
	}

	addr = normalizeIP(addr.WithZone(""))
	if addr.Is4() {
		return classifyIPv4(addr)
	}

	return classifyIPv6(addr)
}

func classifyIPv4(addr netip.Addr) Class {
	switch {
	case addr.IsUnspecified():
		return ClassUnspecified
	case addr == ipv4Broadcast:
		return ClassBroadcast
	case addr.IsLoopback():
		return ClassLoopback
	case addr.IsPrivate():
		return ClassPrivate
	case addr.IsLinkLocalUnicast():
		return ClassLinkLocal
	}

	for _, prefix := range documentationIPv4Prefixes {
		if prefix.Contains(addr) {
			return ClassDocumentation
		}
	}

	return ClassPublic
}

func classifyIPv6(addr netip.Addr) Class {
	if addr.IsMulticast() {
		// Scope is the low nibble of the second byte: ff<flags><scope>::/16.
		if addr.As16()[1]&0x0f == ipv6MulticastScopeGlobal {
			return ClassPublic
		}
		return ClassNonGlobalMulticast
	}

	switch {
	case addr.IsUnspecified():
		return ClassUnspecified
	case addr.IsLoopback():
		return ClassLoopback
	case addr.IsLinkLocalUnicast():
		return ClassLinkLocal
	case addr.IsPrivate(), siteLocalIPv6Prefix.Contains(addr):
		return ClassPrivate
	case documentationIPv6Prefix.Contains(addr):
		return ClassDocumentation
	}

	return ClassPublic
}
