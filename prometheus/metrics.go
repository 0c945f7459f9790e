package prometheus

import (
	"errors"
	"fmt"

	"github.com/abczzz13/clientaddr"
	prom "github.com/prometheus/client_golang/prometheus"
)

const (
	resolutionTotalName = "client_addr_resolution_total"
	securityEventsName  = "client_addr_security_events_total"
)

// PrometheusMetrics is a Prometheus-backed implementation of
// clientaddr.Metrics.
type PrometheusMetrics struct {
	resolutionTotal *prom.CounterVec
	securityEvents  *prom.CounterVec
}

// WithMetrics returns a clientaddr option that installs Prometheus-backed
// metrics using prom.DefaultRegisterer.
func WithMetrics() clientaddr.Option {
	return withMetricsFactory(New)
}

// WithRegisterer returns a clientaddr option that installs Prometheus-backed
// metrics using the provided registerer.
//
// If registerer is nil, prom.DefaultRegisterer is used.
func WithRegisterer(registerer prom.Registerer) clientaddr.Option {
	return withMetricsFactory(func() (*PrometheusMetrics, error) {
		return NewWithRegisterer(registerer)
	})
}

// withMetricsFactory defers collector registration until the resolver
// configuration has been validated.
func withMetricsFactory(factory func() (*PrometheusMetrics, error)) clientaddr.Option {
	return clientaddr.WithMetricsFactory(func() (clientaddr.Metrics, error) {
		metrics, err := factory()
		if err != nil {
			return nil, err
		}
		return metrics, nil
	})
}

// New creates PrometheusMetrics and registers its collectors on
// prom.DefaultRegisterer.
func New() (*PrometheusMetrics, error) {
	return NewWithRegisterer(prom.DefaultRegisterer)
}

// NewWithRegisterer creates PrometheusMetrics and registers its collectors on
// the given registerer.
//
// If registerer is nil, prom.DefaultRegisterer is used. If the metrics are
// already registered, existing compatible collectors are reused.
func NewWithRegisterer(registerer prom.Registerer) (*PrometheusMetrics, error) {
	if registerer == nil {
		registerer = prom.DefaultRegisterer
	}

	resolutionTotalCollector := prom.NewCounterVec(
		prom.CounterOpts{
			Name: resolutionTotalName,
			Help: "Total number of client address resolutions by source (remote_addr, x_real_ip, x_forwarded_for, forwarded) or strategy, and result (success, not_applicable).",
		},
		[]string{"source", "result"},
	)
	securityEventsCollector := prom.NewCounterVec(
		prom.CounterOpts{
			Name: securityEventsName,
			Help: "Security-related events during client address resolution, labeled by event.",
		},
		[]string{"event"},
	)

	resolutionTotal, err := registerCounterVec(registerer, resolutionTotalCollector, resolutionTotalName)
	if err != nil {
		return nil, err
	}

	securityEvents, err := registerCounterVec(registerer, securityEventsCollector, securityEventsName)
	if err != nil {
		return nil, err
	}

	return &PrometheusMetrics{
		resolutionTotal: resolutionTotal,
		securityEvents:  securityEvents,
	}, nil
}

func registerCounterVec(registerer prom.Registerer, collector *prom.CounterVec, metricName string) (*prom.CounterVec, error) {
	if err := registerer.Register(collector); err != nil {
		var alreadyRegistered prom.AlreadyRegisteredError
		if errors.As(err, &alreadyRegistered) {
			existing, ok := alreadyRegistered.ExistingCollector.(*prom.CounterVec)
			if ok {
				return existing, nil
			}
			return nil, fmt.Errorf("metric %q already registered with incompatible collector type %T", metricName, alreadyRegistered.ExistingCollector)
		}

		return nil, fmt.Errorf("register metric %q: %w", metricName, err)
	}

	return collector, nil
}

// RecordResolutionSuccess increments client_addr_resolution_total with
// result="success" for the provided source.
func (m *PrometheusMetrics) RecordResolutionSuccess(source string) {
	m.resolutionTotal.WithLabelValues(source, "success").Inc()
}

// RecordResolutionFailure increments client_addr_resolution_total with
// result="not_applicable", labeled by the resolver strategy.
func (m *PrometheusMetrics) RecordResolutionFailure(strategy string) {
	m.resolutionTotal.WithLabelValues(strategy, "not_applicable").Inc()
}

// RecordSecurityEvent increments client_addr_security_events_total for the
// provided event label.
func (m *PrometheusMetrics) RecordSecurityEvent(event string) {
	m.securityEvents.WithLabelValues(event).Inc()
}
