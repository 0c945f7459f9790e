package clientaddr

import (
	"fmt"
	"reflect"
	"strings"
)

func (c *config) validate() error {
	if !c.strategy.valid() {
		return fmt.Errorf("invalid strategy %d (must be StrategyPeerOnly=1, StrategySingleHeader=2 or StrategyChainWalk=3)", c.strategy)
	}
	if !c.precedence.valid() {
		return fmt.Errorf("invalid header precedence %d (must be RealIPFirst=1 or ChainFirst=2)", c.precedence)
	}
	if !c.localFallback.valid() {
		return fmt.Errorf("invalid local fallback %d (must be FallbackNearestHop=1 or FallbackFarthestHop=2)", c.localFallback)
	}
	if c.maxChainLength <= 0 {
		return fmt.Errorf("maxChainLength must be > 0, got %d", c.maxChainLength)
	}

	if c.strategy != StrategyPeerOnly {
		if err := validateHeaderName("real IP header", c.realIPHeader); err != nil {
			return err
		}
		if err := validateHeaderName("chain header", c.chainHeader); err != nil {
			return err
		}
		if strings.EqualFold(c.realIPHeader, c.chainHeader) {
			return fmt.Errorf("real IP header and chain header must differ, both are %q", c.chainHeader)
		}
	}

	if isNilLogger(c.logger) {
		return fmt.Errorf("logger cannot be nil")
	}
	if isNilMetrics(c.metrics) {
		return fmt.Errorf("metrics cannot be nil")
	}
	return nil
}

func validateHeaderName(kind, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%s cannot be empty", kind)
	}
	if strings.ContainsAny(name, " \t\r\n:") {
		return fmt.Errorf("%s %q is not a valid header name", kind, name)
	}
	return nil
}

func isNilLogger(logger Logger) bool {
	return isNilInterface(logger)
}

func isNilMetrics(metrics Metrics) bool {
	return isNilInterface(metrics)
}

func isNilInterface(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return rv.IsNil()
	default:
		return false
	}
}
