package clientaddr

import (
	"fmt"
	"net/netip"
)

// WithStrategy sets the resolution strategy. The default is
// StrategyChainWalk.
func WithStrategy(strategy Strategy) Option {
	return func(c *config) error {
		c.strategy = strategy
		return nil
	}
}

// WithHeaderPrecedence sets which header StrategyChainWalk consults first.
func WithHeaderPrecedence(precedence HeaderPrecedence) Option {
	return func(c *config) error {
		c.precedence = precedence
		return nil
	}
}

// WithLocalFallback sets which hop is returned when a chain walk finds only
// local addresses.
func WithLocalFallback(fallback LocalFallback) Option {
	return func(c *config) error {
		c.localFallback = fallback
		return nil
	}
}

// WithRealIPHeader sets the single-value trusted header name.
func WithRealIPHeader(name string) Option {
	return func(c *config) error {
		c.realIPHeader = name
		return nil
	}
}

// WithChainHeader sets the forwarding-chain header name.
//
// "Forwarded" selects RFC 7239 parsing: the for= parameters of the header
// form the chain.
func WithChainHeader(name string) Option {
	return func(c *config) error {
		c.chainHeader = name
		return nil
	}
}

// TrustProxyPrefixes adds trusted proxy network prefixes.
//
// Once any trusted proxy is configured, headers are honored only when the
// peer address is inside the trusted set, and trusted hops are skipped while
// walking the forwarding chain.
func TrustProxyPrefixes(prefixes ...netip.Prefix) Option {
	prefixes = clonePrefixes(prefixes)

	return func(c *config) error {
		normalized, err := normalizeTrustedProxyPrefixes(prefixes)
		if err != nil {
			return err
		}

		appendTrustedProxyCIDRs(c, normalized...)
		return nil
	}
}

// TrustedCIDRs parses and adds trusted proxy CIDRs.
func TrustedCIDRs(cidrs ...string) Option {
	return func(c *config) error {
		prefixes, err := ParseCIDRs(cidrs...)
		if err != nil {
			return err
		}

		return TrustProxyPrefixes(prefixes...)(c)
	}
}

// TrustLoopbackProxy adds loopback CIDRs to trusted proxy ranges.
func TrustLoopbackProxy() Option {
	return func(c *config) error {
		appendTrustedProxyCIDRs(c, loopbackProxyCIDRs...)
		return nil
	}
}

// TrustPrivateProxyRanges adds private network CIDRs to trusted proxy ranges.
func TrustPrivateProxyRanges() Option {
	return func(c *config) error {
		appendTrustedProxyCIDRs(c, privateProxyCIDRs...)
		return nil
	}
}

// TrustLocalProxyDefaults adds loopback and private network CIDRs.
func TrustLocalProxyDefaults() Option {
	return func(c *config) error {
		appendTrustedProxyCIDRs(c, loopbackProxyCIDRs...)
		appendTrustedProxyCIDRs(c, privateProxyCIDRs...)
		return nil
	}
}

// TrustProxyAddrs adds trusted upstream proxy host addresses.
func TrustProxyAddrs(addrs ...netip.Addr) Option {
	addrs = cloneAddrs(addrs)

	return func(c *config) error {
		prefixes := make([]netip.Prefix, 0, len(addrs))
		for _, addr := range addrs {
			if !addr.IsValid() {
				return fmt.Errorf("invalid proxy address %q", addr)
			}

			addr = normalizeIP(addr.WithZone(""))
			prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
		}

		appendTrustedProxyCIDRs(c, prefixes...)
		return nil
	}
}

// MaxChainLength sets how many forwarding-chain hops are scanned, counting
// from the nearest (rightmost) one. A longer chain is still walked within
// that window and reported as a chain_too_long security event.
func MaxChainLength(max int) Option {
	return func(c *config) error {
		c.maxChainLength = max
		return nil
	}
}

// WithDebugInfo controls whether chain-debug metadata is included in results.
func WithDebugInfo(enable bool) Option {
	return func(c *config) error {
		c.debugMode = enable
		return nil
	}
}

// WithLogger sets the logger implementation used for warning events.
func WithLogger(logger Logger) Option {
	return func(c *config) error {
		c.logger = logger
		return nil
	}
}

// WithMetrics sets a concrete metrics implementation.
//
// If previously configured, a metrics factory is disabled.
func WithMetrics(metrics Metrics) Option {
	return func(c *config) error {
		c.metrics = metrics
		c.metricsFactory = nil
		c.useMetricsFactory = false
		return nil
	}
}

// WithMetricsFactory configures a lazy metrics constructor.
//
// The factory is invoked only for the final winning metrics option after
// option validation succeeds.
func WithMetricsFactory(factory func() (Metrics, error)) Option {
	return func(c *config) error {
		if factory == nil {
			return fmt.Errorf("metrics factory cannot be nil")
		}

		c.metricsFactory = factory
		c.useMetricsFactory = true
		return nil
	}
}
