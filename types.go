package clientaddr

import (
	"fmt"
	"net/netip"
	"strings"
)

// ChainDebugInfo describes how an address was picked from a forwarding chain.
type ChainDebugInfo struct {
	// FullChain holds the trimmed chain tokens in wire order.
	FullChain []string
	// ClientIndex is the index in FullChain of the chosen address.
	ClientIndex int
	// Truncated reports that the right-to-left walk stopped at an
	// unparseable token or at the chain length limit.
	Truncated bool
	// LocalFallback reports that no public hop was found and a parsed
	// local hop was used instead.
	LocalFallback bool
}

func (d *ChainDebugInfo) clone() *ChainDebugInfo {
	if d == nil {
		return nil
	}
	cp := *d
	cp.FullChain = append([]string(nil), d.FullChain...)
	return &cp
}

// ParseCIDRs parses CIDR strings into prefixes.
func ParseCIDRs(cidrs ...string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(cidrs))
	for _, cidr := range cidrs {
		prefix, err := netip.ParsePrefix(strings.TrimSpace(cidr))
		if err != nil {
			return nil, fmt.Errorf("invalid CIDR %q: %w", cidr, err)
		}
		prefixes = append(prefixes, prefix)
	}
	return prefixes, nil
}

// NormalizeSourceName converts a header name into the source label used in
// ClientAddr.Source, logs and metrics ("X-Real-IP" -> "x_real_ip").
func NormalizeSourceName(headerName string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(headerName), "-", "_"))
}
