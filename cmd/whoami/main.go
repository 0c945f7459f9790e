package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/abczzz13/clientaddr"
	"github.com/abczzz13/clientaddr/internal/config"
	"github.com/abczzz13/clientaddr/internal/ratelimit"
	"github.com/abczzz13/clientaddr/internal/server"
	clientaddrprom "github.com/abczzz13/clientaddr/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	var logger *zap.Logger
	if cfg.IsProduction() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	opts, err := cfg.ClientAddr.ResolverOptions()
	if err != nil {
		logger.Fatal("Invalid client address configuration", zap.Error(err))
	}
	opts = append(opts,
		clientaddr.WithLogger(server.NewResolverLogger(logger)),
		clientaddrprom.WithRegisterer(registry),
	)

	resolver, err := clientaddr.New(opts...)
	if err != nil {
		logger.Fatal("Failed to create resolver", zap.Error(err))
	}

	limiter := ratelimit.NewClientRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	defer limiter.Close()

	srv := &http.Server{
		Addr: ":" + cfg.Server.Port,
		Handler: server.NewRouter(server.Deps{
			Resolver: resolver,
			Limiter:  limiter,
			Logger:   logger,
			Gatherer: registry,
		}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Info("Starting whoami",
			zap.String("port", cfg.Server.Port),
			zap.String("env", cfg.Server.Env),
			zap.Stringer("strategy", resolver.Strategy()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Error starting server", zap.Error(err))
		}

	case sig := <-shutdown:
		logger.Info("Received shutdown signal, starting graceful shutdown",
			zap.String("signal", sig.String()),
		)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			srv.Close()
			logger.Fatal("Could not gracefully shutdown the server", zap.Error(err))
		}

		logger.Info("Server stopped gracefully")
	}
}
