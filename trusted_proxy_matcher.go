package clientaddr

import "net/netip"

// proxyMatcher answers trusted-proxy membership with one binary trie per
// address family. A zero proxyMatcher matches nothing.
type proxyMatcher struct {
	v4 *trieNode
	v6 *trieNode
}

type trieNode struct {
	child    [2]*trieNode
	terminal bool
}

func newProxyMatcher(prefixes []netip.Prefix) proxyMatcher {
	var m proxyMatcher

	for _, prefix := range prefixes {
		if !prefix.IsValid() {
			continue
		}

		addr := prefix.Addr()
		bits := min(prefix.Bits(), addr.BitLen())

		if addr.Is4() {
			if m.v4 == nil {
				m.v4 = &trieNode{}
			}
			key := addr.As4()
			m.v4.insert(key[:], bits)
			continue
		}

		if m.v6 == nil {
			m.v6 = &trieNode{}
		}
		key := addr.As16()
		m.v6.insert(key[:], bits)
	}

	return m
}

// empty reports whether no prefix was configured.
func (m proxyMatcher) empty() bool {
	return m.v4 == nil && m.v6 == nil
}

func (m proxyMatcher) contains(ip netip.Addr) bool {
	if !ip.IsValid() {
		return false
	}

	ip = normalizeIP(ip.WithZone(""))
	if ip.Is4() {
		key := ip.As4()
		return m.v4.match(key[:])
	}

	key := ip.As16()
	return m.v6.match(key[:])
}

func (n *trieNode) insert(key []byte, bits int) {
	node := n
	for i := range bits {
		b := bitAt(key, i)
		if node.child[b] == nil {
			node.child[b] = &trieNode{}
		}
		node = node.child[b]
	}
	node.terminal = true
}

// match reports whether any inserted prefix covers key.
func (n *trieNode) match(key []byte) bool {
	node := n
	for i := 0; node != nil; i++ {
		if node.terminal {
			return true
		}
		if i == len(key)*8 {
			return false
		}
		node = node.child[bitAt(key, i)]
	}
	return false
}

func bitAt(key []byte, i int) int {
	return int(key[i/8]>>(7-uint(i%8))) & 1
}
