package clientaddr

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidForwardedHeader is wrapped by errors returned for a Forwarded
// header that does not follow RFC 7239 syntax.
var ErrInvalidForwardedHeader = errors.New("invalid Forwarded header")

// forwardedHeader is the canonical name of the RFC 7239 header.
const forwardedHeader = "Forwarded"

// parseForwardedChain extracts the for= nodes of one Forwarded header value
// in wire order. Elements without a for parameter are skipped.
func parseForwardedChain(value string) ([]string, error) {
	var nodes []string

	err := scanForwardedSegments(value, ',', func(element string) error {
		node, hasFor, err := parseForwardedElement(element)
		if err != nil {
			return err
		}
		if hasFor {
			nodes = append(nodes, node)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidForwardedHeader, err)
	}

	return nodes, nil
}

// parseForwardedElement returns the for parameter of a single element.
//
// Parameter names are case-insensitive, unknown parameters are allowed and a
// repeated for parameter is an error.
func parseForwardedElement(element string) (node string, hasFor bool, err error) {
	err = scanForwardedSegments(element, ';', func(param string) error {
		key, value, found := strings.Cut(param, "=")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch {
		case !found || key == "":
			return fmt.Errorf("invalid forwarded parameter %q", param)
		case value == "":
			return fmt.Errorf("empty parameter value for %q", key)
		case !strings.EqualFold(key, "for"):
			return nil
		case hasFor:
			return fmt.Errorf("duplicate for parameter in element %q", element)
		}

		if value[0] == '"' {
			unquoted, err := unquoteForwardedValue(value)
			if err != nil {
				return err
			}
			value = strings.TrimSpace(unquoted)
		}
		if value == "" {
			return fmt.Errorf("empty for value in element %q", element)
		}

		node = value
		hasFor = true
		return nil
	})
	if err != nil {
		return "", false, err
	}

	return node, hasFor, nil
}

// scanForwardedSegments splits value by delimiter while respecting quoted
// strings and backslash escapes inside them. Empty segments are skipped.
func scanForwardedSegments(value string, delimiter byte, onSegment func(string) error) error {
	start := 0
	inQuotes := false
	escaped := false

	for i := 0; i <= len(value); i++ {
		if i < len(value) {
			ch := value[i]

			switch {
			case escaped:
				escaped = false
				continue
			case ch == '\\' && inQuotes:
				escaped = true
				continue
			case ch == '"':
				inQuotes = !inQuotes
				continue
			case ch != delimiter || inQuotes:
				continue
			}
		} else if inQuotes || escaped {
			return fmt.Errorf("unterminated quoted string in %q", value)
		}

		if segment := strings.TrimSpace(value[start:i]); segment != "" {
			if err := onSegment(segment); err != nil {
				return err
			}
		}

		start = i + 1
	}

	return nil
}

// unquoteForwardedValue removes surrounding quotes from a quoted string and
// resolves backslash escapes.
func unquoteForwardedValue(value string) (string, error) {
	if len(value) < 2 || value[0] != '"' || value[len(value)-1] != '"' {
		return "", fmt.Errorf("invalid quoted string %q", value)
	}

	inner := value[1 : len(value)-1]
	if !strings.ContainsAny(inner, `\"`) {
		return inner, nil
	}

	var b strings.Builder
	b.Grow(len(inner))
	escaped := false

	for i := 0; i < len(inner); i++ {
		ch := inner[i]

		switch {
		case escaped:
			b.WriteByte(ch)
			escaped = false
		case ch == '\\':
			escaped = true
		case ch == '"':
			return "", fmt.Errorf("unexpected quote in %q", value)
		default:
			b.WriteByte(ch)
		}
	}

	if escaped {
		return "", fmt.Errorf("unterminated escape in %q", value)
	}

	return b.String(), nil
}
