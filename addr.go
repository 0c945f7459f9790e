package clientaddr

import "net/netip"

// ClientAddr is a resolved client address.
//
// Source names where the address came from (SourceRemoteAddr or the
// normalized name of the header that supplied it).
type ClientAddr struct {
	IP     netip.Addr
	Source string

	// DebugInfo is set only when WithDebugInfo(true) is configured and the
	// address was taken from the forwarding chain.
	DebugInfo *ChainDebugInfo
}

// Valid reports whether c holds an address.
func (c ClientAddr) Valid() bool {
	return c.IP.IsValid()
}

// Class returns the address class of c.IP.
func (c ClientAddr) Class() Class {
	return Classify(c.IP)
}

// IPv4 returns the address as IPv4 when it is representable as one.
//
// IPv4 addresses are returned as is and IPv4-mapped IPv6 addresses
// (::ffff:a.b.c.d) are unmapped. Any other IPv6 address reports false,
// including the deprecated IPv4-compatible form ::a.b.c.d, which some
// libraries still convert to a.b.c.d.
func (c ClientAddr) IPv4() (netip.Addr, bool) {
	if c.IP.Is4() {
		return c.IP, true
	}
	if c.IP.Is4In6() {
		return c.IP.Unmap(), true
	}
	return netip.Addr{}, false
}

// IPv4String returns the dotted-quad rendering of IPv4.
func (c ClientAddr) IPv4String() (string, bool) {
	ip, ok := c.IPv4()
	if !ok {
		return "", false
	}
	return ip.String(), true
}

// IPv6 returns the address as IPv6, mapping IPv4 into ::ffff:0:0/96.
func (c ClientAddr) IPv6() netip.Addr {
	if c.IP.Is4() {
		return netip.AddrFrom16(c.IP.As16())
	}
	return c.IP
}

// IPv6String returns the rendering of IPv6.
func (c ClientAddr) IPv6String() string {
	if !c.IP.IsValid() {
		return ""
	}
	return c.IPv6().String()
}

// String returns the canonical rendering of c.IP.
func (c ClientAddr) String() string {
	if !c.IP.IsValid() {
		return ""
	}
	return c.IP.String()
}
