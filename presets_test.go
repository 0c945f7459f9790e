package clientaddr

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPresets_Config(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		want func(configSnapshot) configSnapshot
	}{
		{
			name: "direct connection",
			opts: []Option{PresetDirectConnection()},
			want: func(s configSnapshot) configSnapshot {
				s.Strategy = "peer_only"
				return s
			},
		},
		{
			name: "loopback reverse proxy",
			opts: []Option{PresetLoopbackReverseProxy()},
			want: func(s configSnapshot) configSnapshot {
				s.TrustedProxyCIDRs = []string{"127.0.0.0/8", "::1/128"}
				return s
			},
		},
		{
			name: "vm reverse proxy",
			opts: []Option{PresetVMReverseProxy()},
			want: func(s configSnapshot) configSnapshot {
				s.TrustedProxyCIDRs = []string{"127.0.0.0/8", "::1/128", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16", "fc00::/7"}
				return s
			},
		},
		{
			name: "legacy real ip",
			opts: []Option{PresetLegacyRealIP()},
			want: func(s configSnapshot) configSnapshot {
				s.Strategy = "single_header"
				return s
			},
		},
		{
			name: "preset then override",
			opts: []Option{PresetLoopbackReverseProxy(), MaxChainLength(10), WithHeaderPrecedence(ChainFirst)},
			want: func(s configSnapshot) configSnapshot {
				s.TrustedProxyCIDRs = []string{"127.0.0.0/8", "::1/128"}
				s.MaxChainLength = 10
				s.Precedence = "chain_first"
				return s
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := mustNewResolver(t, tt.opts...)

			want := tt.want(defaultSnapshot())
			if diff := cmp.Diff(want, snapshotConfig(resolver.config)); diff != "" {
				t.Fatalf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPresets_Resolve(t *testing.T) {
	tests := []struct {
		name       string
		preset     Option
		remoteAddr string
		headers    []string
		want       resolutionState
	}{
		{
			name:       "direct connection public peer",
			preset:     PresetDirectConnection(),
			remoteAddr: "8.8.8.8:1234",
			headers:    []string{"X-Forwarded-For", "1.1.1.1"},
			want:       resolved("8.8.8.8", SourceRemoteAddr),
		},
		{
			name:       "direct connection local peer is not applicable",
			preset:     PresetDirectConnection(),
			remoteAddr: "127.0.0.1:1234",
			headers:    []string{"X-Real-IP", "1.1.1.1"},
			want:       resolutionState{},
		},
		{
			name:       "loopback proxy chain",
			preset:     PresetLoopbackReverseProxy(),
			remoteAddr: "127.0.0.1:1234",
			headers:    []string{"X-Forwarded-For", "8.8.8.8"},
			want:       resolved("8.8.8.8", "x_forwarded_for"),
		},
		{
			name:       "loopback proxy ignores private peer headers",
			preset:     PresetLoopbackReverseProxy(),
			remoteAddr: "10.0.0.1:1234",
			headers:    []string{"X-Forwarded-For", "8.8.8.8"},
			want:       resolved("10.0.0.1", SourceRemoteAddr),
		},
		{
			name:       "vm proxy skips internal hops",
			preset:     PresetVMReverseProxy(),
			remoteAddr: "10.0.0.5:1234",
			headers:    []string{"X-Forwarded-For", "8.8.8.8, 192.168.1.1"},
			want:       resolved("8.8.8.8", "x_forwarded_for"),
		},
		{
			name:       "vm proxy real ip header",
			preset:     PresetVMReverseProxy(),
			remoteAddr: "[fd00::1]:443",
			headers:    []string{"X-Real-IP", "2001:4860:4860::8888"},
			want:       resolved("2001:4860:4860::8888", "x_real_ip"),
		},
		{
			name:       "legacy public peer wins",
			preset:     PresetLegacyRealIP(),
			remoteAddr: "8.8.8.8:1234",
			headers:    []string{"X-Real-IP", "1.1.1.1"},
			want:       resolved("8.8.8.8", SourceRemoteAddr),
		},
		{
			name:       "legacy real ip",
			preset:     PresetLegacyRealIP(),
			remoteAddr: "127.0.0.1:1234",
			headers:    []string{"X-Real-IP", "1.2.3.4"},
			want:       resolved("1.2.3.4", "x_real_ip"),
		},
		{
			name:       "legacy forwarded for as one address",
			preset:     PresetLegacyRealIP(),
			remoteAddr: "127.0.0.1:1234",
			headers:    []string{"X-Forwarded-For", "1.2.3.4"},
			want:       resolved("1.2.3.4", "x_forwarded_for"),
		},
		{
			name:       "legacy multi-hop chain is not applicable",
			preset:     PresetLegacyRealIP(),
			remoteAddr: "127.0.0.1:1234",
			headers:    []string{"X-Forwarded-For", "1.2.3.4, 5.6.7.8"},
			want:       resolutionState{},
		},
		{
			name:       "legacy malformed real ip does not fall through",
			preset:     PresetLegacyRealIP(),
			remoteAddr: "127.0.0.1:1234",
			headers:    []string{"X-Real-IP", "garbage", "X-Forwarded-For", "1.2.3.4"},
			want:       resolutionState{},
		},
		{
			name:       "legacy no headers falls back to local peer",
			preset:     PresetLegacyRealIP(),
			remoteAddr: "127.0.0.1:1234",
			want:       resolved("127.0.0.1", SourceRemoteAddr),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := mustNewResolver(t, tt.preset)

			got := resolutionStateOf(resolver.Resolve(newHeaderRequest(tt.remoteAddr, tt.headers...)))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("resolution mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
