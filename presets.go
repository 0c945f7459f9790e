package clientaddr

// PresetDirectConnection configures resolution for direct client-to-app
// traffic without any reverse proxy. Headers are never read.
func PresetDirectConnection() Option {
	return WithStrategy(StrategyPeerOnly)
}

// PresetLoopbackReverseProxy configures resolution for apps behind a reverse
// proxy on the same host (for example NGINX on localhost).
//
// Headers are honored only from loopback peers.
func PresetLoopbackReverseProxy() Option {
	return func(c *config) error {
		return applyOptions(c,
			TrustLoopbackProxy(),
			WithStrategy(StrategyChainWalk),
		)
	}
}

// PresetVMReverseProxy configures resolution for apps behind a reverse proxy
// in a typical VM or private-network setup.
//
// Headers are honored only from loopback and private-range peers.
func PresetVMReverseProxy() Option {
	return func(c *config) error {
		return applyOptions(c,
			TrustLocalProxyDefaults(),
			WithStrategy(StrategyChainWalk),
		)
	}
}

// PresetLegacyRealIP reproduces the single-header behavior: a public peer
// wins, otherwise X-Real-IP, otherwise the whole X-Forwarded-For value as one
// address. Malformed header values are not applicable.
func PresetLegacyRealIP() Option {
	return func(c *config) error {
		return applyOptions(c,
			WithStrategy(StrategySingleHeader),
			WithRealIPHeader(DefaultRealIPHeader),
			WithChainHeader(DefaultChainHeader),
		)
	}
}
