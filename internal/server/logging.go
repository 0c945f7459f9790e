package server

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/abczzz13/clientaddr"
)

// zapLogger bridges clientaddr security warnings to zap
type zapLogger struct {
	sugar *zap.SugaredLogger
}

// NewResolverLogger returns a clientaddr.Logger writing warnings to logger.
func NewResolverLogger(logger *zap.Logger) clientaddr.Logger {
	return zapLogger{sugar: logger.Named("clientaddr").Sugar()}
}

func (l zapLogger) WarnContext(_ context.Context, msg string, args ...any) {
	l.sugar.Warnw(msg, args...)
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// Logging middleware logs HTTP requests with the resolved client address.
//
// It must run inside clientaddr's Resolver.Middleware so the address is read
// from the per-request cache.
func Logging(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(wrapped, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", wrapped.statusCode),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote_addr", r.RemoteAddr),
			}

			if addr, ok := clientaddr.FromRequest(r); ok {
				fields = append(fields,
					zap.String("client_ip", addr.String()),
					zap.String("client_source", addr.Source),
				)
			}

			if requestID := r.Header.Get("X-Request-ID"); requestID != "" {
				fields = append(fields, zap.String("request_id", requestID))
			}

			switch {
			case wrapped.statusCode >= 500:
				logger.Error("HTTP request", fields...)
			case wrapped.statusCode >= 400:
				logger.Warn("HTTP request", fields...)
			default:
				logger.Info("HTTP request", fields...)
			}
		})
	}
}
