// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/time/rate"

	"github.com/jeranaias/parley/internal/completion"
	"github.com/jeranaias/parley/internal/config"
)

// LoadConfig loads .env files and the config file, then applies the global
// flags on top.
func LoadConfig(args Args) (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}

	var cfg *config.Config
	var err error
	if args.ConfigPath != "" {
		cfg, err = config.LoadFromPath(args.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if args.Endpoint != "" {
		cfg.Endpoint.URL = strings.TrimSpace(args.Endpoint)
	}
	if args.Verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// NewCompleter builds the client-side completion stack for cfg.Endpoint:
// an HTTP client with the configured credential source and pacing, wrapped
// in a circuit breaker.
func NewCompleter(cfg *config.Config, logger *slog.Logger) completion.Completer {
	ep := cfg.Endpoint

	var creds completion.CredentialProvider = completion.NoCredential
	if ep.APIKeyEnv != "" {
		creds = completion.EnvCredential(ep.APIKeyEnv)
	}

	client := completion.New(completion.Options{
		Endpoint:    ep.URL,
		Credentials: creds,
		HeaderName:  ep.APIKeyHeader,
		Limiter:     perMinuteLimiter(ep.RatePerMinute),
		Logger:      logger,
		UserAgent:   "parley/" + Version,
	})

	return completion.NewBreakerCompleter(client, "endpoint", completion.BreakerConfig{
		MaxFailures: uint32(ep.BreakerFailures),
		Cooldown:    cfg.BreakerCooldown(),
	}, logger)
}

// perMinuteLimiter returns nil (unlimited) for n <= 0.
func perMinuteLimiter(n int) *rate.Limiter {
	if n <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(float64(n)/60.0), 1)
}
