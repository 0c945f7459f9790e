package clientaddr

import (
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"testing"
)

type resolutionState struct {
	OK     bool
	IP     string
	Source string
}

type errorTextState struct {
	HasErr       bool
	ContainsText bool
}

func resolutionStateOf(addr ClientAddr, ok bool) resolutionState {
	state := resolutionState{
		OK:     ok,
		Source: addr.Source,
	}

	if addr.IP.IsValid() {
		state.IP = addr.IP.String()
	}

	return state
}

func resolved(ip, source string) resolutionState {
	return resolutionState{OK: true, IP: ip, Source: source}
}

func errorTextStateOf(err error, contains string) errorTextState {
	return errorTextState{
		HasErr:       err != nil,
		ContainsText: err != nil && strings.Contains(err.Error(), contains),
	}
}

func mustNewResolver(t *testing.T, opts ...Option) *Resolver {
	t.Helper()

	resolver, err := New(opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	return resolver
}

func mustParseCIDRs(t *testing.T, cidrs ...string) []netip.Prefix {
	t.Helper()

	prefixes, err := ParseCIDRs(cidrs...)
	if err != nil {
		t.Fatalf("ParseCIDRs() error = %v", err)
	}

	return prefixes
}

func newTestRequest(remoteAddr, path string) *http.Request {
	req := &http.Request{
		RemoteAddr: remoteAddr,
		Header:     make(http.Header),
	}

	if path != "" {
		req.URL = &url.URL{Path: path}
	}

	return req
}

// newHeaderRequest builds a request with single-valued headers given as
// name/value pairs.
func newHeaderRequest(remoteAddr string, headers ...string) *http.Request {
	req := newTestRequest(remoteAddr, "/")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Add(headers[i], headers[i+1])
	}
	return req
}

func mustParseAddr(t *testing.T, s string) netip.Addr {
	t.Helper()

	addr, err := netip.ParseAddr(s)
	if err != nil {
		t.Fatalf("ParseAddr(%q) error = %v", s, err)
	}

	return addr
}
