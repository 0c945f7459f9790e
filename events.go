package clientaddr

const (
	securityEventMultipleHeaders  = "multiple_headers"
	securityEventChainTooLong     = "chain_too_long"
	securityEventMalformedChain   = "malformed_chain"
	securityEventMalformedHeader  = "malformed_header"
	securityEventUntrustedProxy   = "untrusted_proxy"
	securityEventLocalFallback    = "local_fallback"
	securityEventMalformedForward = "malformed_forwarded"
)
