package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/abczzz13/clientaddr"
)

var validate = validator.New()

// Config holds the whoami service configuration
type Config struct {
	Server     ServerConfig
	ClientAddr ClientAddrConfig
	RateLimit  RateLimitConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string `env:"PORT" envDefault:"8080" validate:"required,numeric"`
	Env  string `env:"ENV" envDefault:"development" validate:"oneof=development production"`
}

// ClientAddrConfig holds client address resolution settings
type ClientAddrConfig struct {
	Strategy       string   `env:"CLIENTADDR_STRATEGY" envDefault:"chain_walk"`
	TrustedProxies []string `env:"CLIENTADDR_TRUSTED_PROXIES" envSeparator:"," validate:"dive,cidr"`
	RealIPHeader   string   `env:"CLIENTADDR_REAL_IP_HEADER" envDefault:"X-Real-IP"`
	ChainHeader    string   `env:"CLIENTADDR_CHAIN_HEADER" envDefault:"X-Forwarded-For"`
	ChainFirst     bool     `env:"CLIENTADDR_CHAIN_FIRST"`
	MaxChainLength int      `env:"CLIENTADDR_MAX_CHAIN_LENGTH" envDefault:"100" validate:"gt=0"`
	Debug          bool     `env:"CLIENTADDR_DEBUG"`
}

// RateLimitConfig holds per-client rate limiting configuration
type RateLimitConfig struct {
	RPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"10" validate:"gt=0"`
	Burst int     `env:"RATE_LIMIT_BURST" envDefault:"20" validate:"gt=0"`
}

// Load reads a .env file when present and then the process environment.
func Load() (*Config, error) {
	// A missing .env file is fine
	_ = godotenv.Load()

	return Parse()
}

// Parse reads configuration from the process environment only.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// ResolverOptions converts the client address settings to resolver options.
func (c ClientAddrConfig) ResolverOptions() ([]clientaddr.Option, error) {
	strategy, err := clientaddr.ParseStrategy(c.Strategy)
	if err != nil {
		return nil, err
	}

	opts := []clientaddr.Option{
		clientaddr.WithStrategy(strategy),
		clientaddr.WithRealIPHeader(c.RealIPHeader),
		clientaddr.WithChainHeader(c.ChainHeader),
		clientaddr.MaxChainLength(c.MaxChainLength),
		clientaddr.WithDebugInfo(c.Debug),
	}
	if c.ChainFirst {
		opts = append(opts, clientaddr.WithHeaderPrecedence(clientaddr.ChainFirst))
	}
	if len(c.TrustedProxies) > 0 {
		opts = append(opts, clientaddr.TrustedCIDRs(c.TrustedProxies...))
	}

	return opts, nil
}
