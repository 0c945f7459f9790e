package fiberaddr

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/abczzz13/clientaddr"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingMetrics struct {
	mu        sync.Mutex
	successes int
	failures  int
}

func (m *countingMetrics) RecordResolutionSuccess(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.successes++
}

func (m *countingMetrics) RecordResolutionFailure(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures++
}

func (m *countingMetrics) RecordSecurityEvent(string) {}

func newApp(t *testing.T, resolver *clientaddr.Resolver) *fiber.App {
	t.Helper()

	app := fiber.New()
	app.Use(New(resolver))
	app.Get("/", func(c *fiber.Ctx) error {
		addr, ok := FromCtx(c)
		if !ok {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.SendString(addr.Source + " " + addr.String())
	})
	return app
}

func doRequest(t *testing.T, app *fiber.App, headers map[string][]string) (int, string) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for name, values := range headers {
		for _, value := range values {
			req.Header.Add(name, value)
		}
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, string(body)
}

func TestFromCtx(t *testing.T) {
	resolver, err := clientaddr.New()
	require.NoError(t, err)
	app := newApp(t, resolver)

	tests := []struct {
		name       string
		headers    map[string][]string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "forwarded chain",
			headers:    map[string][]string{"X-Forwarded-For": {"93.184.216.34, 10.0.0.2"}},
			wantStatus: fiber.StatusOK,
			wantBody:   "x_forwarded_for 93.184.216.34",
		},
		{
			name:       "real ip header",
			headers:    map[string][]string{"X-Real-IP": {"198.51.100.7"}},
			wantStatus: fiber.StatusOK,
			wantBody:   "x_real_ip 198.51.100.7",
		},
		{
			name:       "lowercase header names",
			headers:    map[string][]string{"x-real-ip": {"198.51.100.8"}},
			wantStatus: fiber.StatusOK,
			wantBody:   "x_real_ip 198.51.100.8",
		},
		{
			name:       "no evidence",
			wantStatus: fiber.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := doRequest(t, app, tt.headers)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantBody, body)
		})
	}
}

func TestFromCtx_ResolvesOncePerRequest(t *testing.T) {
	metrics := &countingMetrics{}
	resolver, err := clientaddr.New(clientaddr.WithMetrics(metrics))
	require.NoError(t, err)

	app := fiber.New()
	app.Use(New(resolver))
	app.Get("/", func(c *fiber.Ctx) error {
		first, _ := FromCtx(c)
		second, _ := FromCtx(c)
		assert.Equal(t, first, second)
		return c.SendStatus(fiber.StatusOK)
	})

	status, _ := doRequest(t, app, map[string][]string{"X-Real-IP": {"198.51.100.7"}})
	assert.Equal(t, fiber.StatusOK, status)

	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	assert.Equal(t, 1, metrics.successes)
	assert.Equal(t, 0, metrics.failures)
}

func TestFromCtx_WithoutMiddleware(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		_, ok := FromCtx(c)
		assert.False(t, ok)
		return c.SendStatus(fiber.StatusOK)
	})

	status, _ := doRequest(t, app, nil)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestKeyGenerator_LimiterPerClient(t *testing.T) {
	resolver, err := clientaddr.New()
	require.NoError(t, err)

	app := fiber.New()
	app.Use(New(resolver))
	app.Use(limiter.New(limiter.Config{
		Max:          1,
		Expiration:   time.Minute,
		KeyGenerator: KeyGenerator(),
	}))
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	clientA := map[string][]string{"X-Forwarded-For": {"203.0.113.5"}}
	clientB := map[string][]string{"X-Forwarded-For": {"203.0.113.6"}}

	status, _ := doRequest(t, app, clientA)
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = doRequest(t, app, clientA)
	assert.Equal(t, fiber.StatusTooManyRequests, status)

	status, _ = doRequest(t, app, clientB)
	assert.Equal(t, fiber.StatusOK, status)
}
