package clientaddr

import (
	"net/http"
	"net/netip"
)

// Request is the read-only view of an inbound request that resolution needs.
//
// Framework integrations implement it as a thin adapter; see HTTPRequest,
// RequestInput and the fiberaddr and grpcaddr packages.
type Request interface {
	// PeerAddr returns the transport-level source address, or false when
	// there is none (unix sockets, test contexts).
	PeerAddr() (netip.Addr, bool)
	// HeaderValues returns all values received for a header in wire order.
	// Lookup must be case-insensitive. Names are passed in canonical MIME
	// form (for example "X-Forwarded-For").
	HeaderValues(name string) []string
}

// Describer is optionally implemented by a Request to enrich security
// warnings with the request path and raw remote address.
type Describer interface {
	Describe() (path, remoteAddr string)
}

// HeaderValues provides access to request header values by name.
//
// Implementations should return one slice entry per received header line.
// net/http's http.Header satisfies this interface directly.
type HeaderValues interface {
	Values(name string) []string
}

// HeaderValuesFunc adapts a function to the HeaderValues interface.
type HeaderValuesFunc func(name string) []string

// Values implements HeaderValues.
func (f HeaderValuesFunc) Values(name string) []string {
	if f == nil {
		return nil
	}

	return f(name)
}

// RequestInput provides framework-agnostic request data for resolution.
//
// RemoteAddr accepts the same forms as http.Request.RemoteAddr. An empty or
// non-IP RemoteAddr means there is no peer address.
type RequestInput struct {
	RemoteAddr string
	Path       string
	Headers    HeaderValues
}

// PeerAddr implements Request.
func (in RequestInput) PeerAddr() (netip.Addr, bool) {
	return parseRemoteAddr(in.RemoteAddr)
}

// HeaderValues implements Request.
func (in RequestInput) HeaderValues(name string) []string {
	if isNilInterface(in.Headers) {
		return nil
	}

	return in.Headers.Values(name)
}

// Describe implements Describer.
func (in RequestInput) Describe() (path, remoteAddr string) {
	return in.Path, in.RemoteAddr
}

type httpRequest struct {
	r *http.Request
}

// HTTPRequest adapts a net/http request to Request. A nil request has no
// peer and no headers.
func HTTPRequest(r *http.Request) Request {
	return httpRequest{r: r}
}

func (h httpRequest) PeerAddr() (netip.Addr, bool) {
	if h.r == nil {
		return netip.Addr{}, false
	}
	return parseRemoteAddr(h.r.RemoteAddr)
}

func (h httpRequest) HeaderValues(name string) []string {
	if h.r == nil || h.r.Header == nil {
		return nil
	}
	return h.r.Header.Values(name)
}

func (h httpRequest) Describe() (path, remoteAddr string) {
	if h.r == nil {
		return "", ""
	}
	if h.r.URL != nil {
		path = h.r.URL.Path
	}
	return path, h.r.RemoteAddr
}

func describeRequest(req Request) (path, remoteAddr string) {
	if d, ok := req.(Describer); ok {
		return d.Describe()
	}

	if peer, ok := req.PeerAddr(); ok {
		return "", peer.String()
	}
	return "", ""
}
