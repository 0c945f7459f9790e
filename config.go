package clientaddr

import (
	"fmt"
	"net/http"
	"net/netip"
)

const (
	// DefaultMaxChainLength is the maximum number of forwarding-chain hops
	// scanned from the right. Hops beyond it are never considered. Typical
	// proxy chains rarely exceed 5-10 entries.
	DefaultMaxChainLength = 100

	// DefaultRealIPHeader is the default single-value trusted header.
	DefaultRealIPHeader = "X-Real-IP"

	// DefaultChainHeader is the default forwarding-chain header.
	DefaultChainHeader = "X-Forwarded-For"
)

// Strategy selects how much header evidence a Resolver is willing to use.
type Strategy int

const (
	// Start at 1 to avoid zero-value confusion and make invalid values
	// explicit.
	//
	// StrategyPeerOnly uses the transport peer address only and reports
	// not applicable when it is local.
	StrategyPeerOnly Strategy = iota + 1
	// StrategySingleHeader consults the trusted single header, then the
	// chain header as one address. A present but malformed header is not
	// applicable rather than falling through.
	StrategySingleHeader
	// StrategyChainWalk consults the trusted single header, then walks the
	// forwarding chain right to left, then falls back to the peer.
	StrategyChainWalk
)

// String returns the canonical text representation of s.
func (s Strategy) String() string {
	switch s {
	case StrategyPeerOnly:
		return "peer_only"
	case StrategySingleHeader:
		return "single_header"
	case StrategyChainWalk:
		return "chain_walk"
	default:
		return "unknown"
	}
}

func (s Strategy) valid() bool {
	return s == StrategyPeerOnly || s == StrategySingleHeader || s == StrategyChainWalk
}

// ParseStrategy parses the String form of a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch NormalizeSourceName(s) {
	case "peer_only":
		return StrategyPeerOnly, nil
	case "single_header":
		return StrategySingleHeader, nil
	case "chain_walk":
		return StrategyChainWalk, nil
	default:
		return 0, fmt.Errorf("unknown strategy %q", s)
	}
}

// HeaderPrecedence orders the two header sources of StrategyChainWalk.
type HeaderPrecedence int

const (
	// RealIPFirst consults the single trusted header before the chain.
	RealIPFirst HeaderPrecedence = iota + 1
	// ChainFirst walks the chain first and consults the single trusted
	// header only when the chain yields nothing.
	ChainFirst
)

// String returns the canonical text representation of p.
func (p HeaderPrecedence) String() string {
	switch p {
	case RealIPFirst:
		return "real_ip_first"
	case ChainFirst:
		return "chain_first"
	default:
		return "unknown"
	}
}

func (p HeaderPrecedence) valid() bool {
	return p == RealIPFirst || p == ChainFirst
}

// LocalFallback selects the answer of a chain walk that found no public hop.
type LocalFallback int

const (
	// FallbackNearestHop returns the rightmost parsed hop, the one written
	// by the proxy closest to this server.
	FallbackNearestHop LocalFallback = iota + 1
	// FallbackFarthestHop returns the leftmost hop reached before the walk
	// ended.
	FallbackFarthestHop
)

// String returns the canonical text representation of f.
func (f LocalFallback) String() string {
	switch f {
	case FallbackNearestHop:
		return "nearest_hop"
	case FallbackFarthestHop:
		return "farthest_hop"
	default:
		return "unknown"
	}
}

func (f LocalFallback) valid() bool {
	return f == FallbackNearestHop || f == FallbackFarthestHop
}

// Option configures a Resolver.
//
// Construct options using package-provided option builder functions.
type Option func(*config) error

// config holds resolver configuration state.
//
// It is mutated by Option functions during construction only.
type config struct {
	strategy      Strategy
	precedence    HeaderPrecedence
	localFallback LocalFallback

	realIPHeader string
	chainHeader  string

	trustedProxyCIDRs []netip.Prefix
	trustedProxies    proxyMatcher

	maxChainLength int
	debugMode      bool

	logger  Logger
	metrics Metrics

	metricsFactory    func() (Metrics, error)
	useMetricsFactory bool
}

var (
	// loopbackProxyCIDRs contains loopback networks used when the app sits
	// behind a reverse proxy running on the same host.
	loopbackProxyCIDRs = []netip.Prefix{
		mustParsePrefix("127.0.0.0/8"),
		mustParsePrefix("::1/128"),
	}

	// privateProxyCIDRs contains private-network ranges commonly used for
	// trusted upstream proxies in VM and internal network deployments.
	privateProxyCIDRs = []netip.Prefix{
		mustParsePrefix("10.0.0.0/8"),
		mustParsePrefix("172.16.0.0/12"),
		mustParsePrefix("192.168.0.0/16"),
		mustParsePrefix("fc00::/7"),
	}
)

func mustParsePrefix(cidr string) netip.Prefix {
	prefix, err := netip.ParsePrefix(cidr)
	if err != nil {
		panic(fmt.Sprintf("invalid built-in CIDR %q: %v", cidr, err))
	}
	return prefix
}

func clonePrefixes(prefixes []netip.Prefix) []netip.Prefix {
	if prefixes == nil {
		return nil
	}
	cloned := make([]netip.Prefix, len(prefixes))
	copy(cloned, prefixes)
	return cloned
}

func cloneAddrs(addrs []netip.Addr) []netip.Addr {
	if addrs == nil {
		return nil
	}
	cloned := make([]netip.Addr, len(addrs))
	copy(cloned, addrs)
	return cloned
}

func normalizeTrustedProxyPrefixes(prefixes []netip.Prefix) ([]netip.Prefix, error) {
	normalized := make([]netip.Prefix, 0, len(prefixes))
	for _, prefix := range prefixes {
		if !prefix.IsValid() {
			return nil, fmt.Errorf("invalid trusted proxy prefix %q", prefix)
		}
		normalized = append(normalized, prefix.Masked())
	}

	return normalized, nil
}

func mergeUniquePrefixes(existing []netip.Prefix, additions ...netip.Prefix) []netip.Prefix {
	if len(existing) == 0 && len(additions) == 0 {
		return nil
	}

	merged := make([]netip.Prefix, 0, len(existing)+len(additions))
	seen := make(map[netip.Prefix]struct{}, len(existing)+len(additions))

	for _, group := range [][]netip.Prefix{existing, additions} {
		for _, prefix := range group {
			if _, ok := seen[prefix]; ok {
				continue
			}
			seen[prefix] = struct{}{}
			merged = append(merged, prefix)
		}
	}

	return merged
}

func appendTrustedProxyCIDRs(c *config, prefixes ...netip.Prefix) {
	if len(prefixes) == 0 {
		return
	}

	c.trustedProxyCIDRs = mergeUniquePrefixes(c.trustedProxyCIDRs, prefixes...)
}

func defaultConfig() *config {
	return &config{
		strategy:       StrategyChainWalk,
		precedence:     RealIPFirst,
		localFallback:  FallbackNearestHop,
		realIPHeader:   DefaultRealIPHeader,
		chainHeader:    DefaultChainHeader,
		maxChainLength: DefaultMaxChainLength,
		logger:         noopLogger{},
		metrics:        noopMetrics{},
	}
}

func applyOptions(c *config, opts ...Option) error {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(c); err != nil {
			return err
		}
	}

	return nil
}

func configFromOptions(opts ...Option) (*config, error) {
	cfg := defaultConfig()

	if err := applyOptions(cfg, opts...); err != nil {
		return nil, err
	}

	cfg.realIPHeader = http.CanonicalHeaderKey(cfg.realIPHeader)
	cfg.chainHeader = http.CanonicalHeaderKey(cfg.chainHeader)
	cfg.trustedProxies = newProxyMatcher(cfg.trustedProxyCIDRs)

	if cfg.useMetricsFactory && cfg.metricsFactory == nil {
		return nil, fmt.Errorf("metrics factory cannot be nil")
	}

	// Validate before the factory runs so a rejected configuration never
	// registers collectors.
	validationConfig := cfg
	if cfg.useMetricsFactory {
		validationConfig = cfg.clone()
		validationConfig.metrics = noopMetrics{}
	}

	if err := validationConfig.validate(); err != nil {
		return nil, err
	}

	if cfg.useMetricsFactory {
		metrics, err := cfg.metricsFactory()
		if err != nil {
			return nil, err
		}
		cfg.metrics = metrics

		if err := cfg.validate(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func (c *config) clone() *config {
	cloned := *c
	cloned.trustedProxyCIDRs = clonePrefixes(c.trustedProxyCIDRs)
	return &cloned
}
