package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/abczzz13/clientaddr"
	"github.com/abczzz13/clientaddr/internal/ratelimit"
)

// Deps are the collaborators of the whoami router
type Deps struct {
	Resolver *clientaddr.Resolver
	Limiter  *ratelimit.ClientRateLimiter
	Logger   *zap.Logger
	Gatherer prometheus.Gatherer
}

// AddrResponse is the JSON body of GET /
type AddrResponse struct {
	IP     string `json:"ip"`
	IPv4   string `json:"ipv4,omitempty"`
	IPv6   string `json:"ipv6"`
	Source string `json:"source"`
	Class  string `json:"class"`
}

// NewRouter builds the whoami HTTP handler.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(middleware.Recoverer)
	r.Use(deps.Resolver.Middleware)
	r.Use(Logging(deps.Logger))

	if deps.Gatherer != nil {
		r.Get("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}).ServeHTTP)
	}

	r.Group(func(r chi.Router) {
		if deps.Limiter != nil {
			r.Use(ratelimit.Middleware(deps.Limiter))
		}

		r.Get("/", handleAddr)
		r.Get("/ipv4", handleIPv4)
		r.Get("/ipv6", handleIPv6)
	})

	return r
}

func handleAddr(w http.ResponseWriter, r *http.Request) {
	addr, ok := clientaddr.FromRequest(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "client address unavailable"})
		return
	}

	ipv4, _ := addr.IPv4String()
	writeJSON(w, http.StatusOK, AddrResponse{
		IP:     addr.String(),
		IPv4:   ipv4,
		IPv6:   addr.IPv6String(),
		Source: addr.Source,
		Class:  addr.Class().String(),
	})
}

func handleIPv4(w http.ResponseWriter, r *http.Request) {
	addr, ok := clientaddr.FromRequest(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	ipv4, ok := addr.IPv4String()
	if !ok {
		http.NotFound(w, r)
		return
	}

	writeText(w, ipv4)
}

func handleIPv6(w http.ResponseWriter, r *http.Request) {
	addr, ok := clientaddr.FromRequest(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	writeText(w, addr.IPv6String())
}

func writeText(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body + "\n"))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
