package clientaddr

import (
	"net/netip"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestClientAddr_Accessors(t *testing.T) {
	type accessorState struct {
		Valid      bool
		String     string
		IPv4       string
		HasIPv4    bool
		IPv4String string
		IPv6       string
		IPv6String string
		Class      Class
	}

	tests := []struct {
		name string
		ip   netip.Addr
		want accessorState
	}{
		{
			name: "IPv4",
			ip:   netip.MustParseAddr("8.8.8.8"),
			want: accessorState{
				Valid:      true,
				String:     "8.8.8.8",
				IPv4:       "8.8.8.8",
				HasIPv4:    true,
				IPv4String: "8.8.8.8",
				IPv6:       "::ffff:8.8.8.8",
				IPv6String: "::ffff:8.8.8.8",
				Class:      ClassPublic,
			},
		},
		{
			name: "IPv4-mapped IPv6",
			ip:   netip.MustParseAddr("::ffff:192.168.1.10"),
			want: accessorState{
				Valid:      true,
				String:     "::ffff:192.168.1.10",
				IPv4:       "192.168.1.10",
				HasIPv4:    true,
				IPv4String: "192.168.1.10",
				IPv6:       "::ffff:192.168.1.10",
				IPv6String: "::ffff:192.168.1.10",
				Class:      ClassPrivate,
			},
		},
		{
			name: "IPv6",
			ip:   netip.MustParseAddr("2606:4700:4700::1111"),
			want: accessorState{
				Valid:      true,
				String:     "2606:4700:4700::1111",
				IPv4:       "invalid IP",
				IPv6:       "2606:4700:4700::1111",
				IPv6String: "2606:4700:4700::1111",
				Class:      ClassPublic,
			},
		},
		{
			name: "IPv4-compatible IPv6 is not IPv4",
			ip:   netip.MustParseAddr("::1.2.3.4"),
			want: accessorState{
				Valid:      true,
				String:     "::102:304",
				IPv4:       "invalid IP",
				IPv6:       "::102:304",
				IPv6String: "::102:304",
				Class:      ClassPublic,
			},
		},
		{
			name: "zero",
			want: accessorState{
				IPv4:  "invalid IP",
				IPv6:  "invalid IP",
				Class: ClassUnspecified,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr := ClientAddr{IP: tt.ip}

			ipv4, hasIPv4 := addr.IPv4()
			ipv4String, _ := addr.IPv4String()

			got := accessorState{
				Valid:      addr.Valid(),
				String:     addr.String(),
				IPv4:       ipv4.String(),
				HasIPv4:    hasIPv4,
				IPv4String: ipv4String,
				IPv6:       addr.IPv6().String(),
				IPv6String: addr.IPv6String(),
				Class:      addr.Class(),
			}

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("accessor mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestClientAddr_IPv6IsMappedForm(t *testing.T) {
	addr := ClientAddr{IP: netip.MustParseAddr("203.0.113.5")}

	v6 := addr.IPv6()
	if !v6.Is6() || !v6.Is4In6() {
		t.Fatalf("IPv6() = %v, want an IPv4-mapped IPv6 address", v6)
	}
	if v6.Unmap() != addr.IP {
		t.Fatalf("IPv6().Unmap() = %v, want %v", v6.Unmap(), addr.IP)
	}
}

// Rendering then re-parsing any valid literal yields an equal address.
func TestClientAddr_StringRoundTrip(t *testing.T) {
	for _, raw := range []string{
		"1.1.1.1",
		"0.0.0.0",
		"255.255.255.255",
		"::",
		"::1",
		"2001:DB8:0:0:0:0:0:1",
		"2001:0db8::0001",
		"fe80::1",
		"::ffff:10.0.0.1",
		"ff0e::1",
	} {
		t.Run(raw, func(t *testing.T) {
			addr := ClientAddr{IP: netip.MustParseAddr(raw)}

			reparsed, err := netip.ParseAddr(addr.String())
			if err != nil {
				t.Fatalf("ParseAddr(%q) error = %v", addr.String(), err)
			}
			if reparsed != addr.IP {
				t.Fatalf("round trip = %v, want %v", reparsed, addr.IP)
			}

			v6, err := netip.ParseAddr(addr.IPv6String())
			if err != nil || v6 != addr.IPv6() {
				t.Fatalf("IPv6String round trip = %v (%v), want %v", v6, err, addr.IPv6())
			}
		})
	}
}
