// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/jeranaias/parley/internal/completion"
	"github.com/jeranaias/parley/internal/config"
	"github.com/jeranaias/parley/internal/proxy"
)

// NewProxyServer builds the proxy for cfg.Proxy. The upstream credential is
// read from proxy.upstream_key_env on every request and never logged.
func NewProxyServer(args Args, cfg *config.Config, logger *slog.Logger) (*proxy.Server, error) {
	pc := cfg.Proxy

	if _, err := completion.EnvCredential(pc.UpstreamKeyEnv).Credential(context.Background()); err != nil {
		return nil, NewCommandError("proxy", "start", "upstream key is not set in $"+pc.UpstreamKeyEnv, err)
	}

	var clientToken string
	if pc.ClientTokenEnv != "" {
		clientToken = os.Getenv(pc.ClientTokenEnv)
		if clientToken == "" {
			return nil, NewCommandError("proxy", "start", "client token is not set in $"+pc.ClientTokenEnv, nil)
		}
	} else {
		logger.Warn("proxy accepts requests without a client token", "listen", pc.Listen)
	}

	upstream := completion.New(completion.Options{
		Endpoint:    pc.UpstreamURL,
		Credentials: completion.EnvCredential(pc.UpstreamKeyEnv),
		HeaderName:  cfg.Endpoint.APIKeyHeader,
		Logger:      logger.With("component", "upstream"),
		UserAgent:   "parley-proxy/" + Version,
	})
	guarded := completion.NewBreakerCompleter(upstream, "upstream", completion.BreakerConfig{
		MaxFailures: uint32(cfg.Endpoint.BreakerFailures),
		Cooldown:    cfg.BreakerCooldown(),
	}, logger)

	addr := pc.Listen
	if args.Listen != "" {
		addr = args.Listen
	}

	return proxy.New(proxy.Options{
		Addr:           addr,
		Upstream:       guarded,
		ClientToken:    clientToken,
		AllowedOrigins: pc.AllowedOrigins,
		RatePerMinute:  pc.RatePerMinute,
		Logger:         logger,
	}), nil
}

// HandleProxy runs the proxy until ctx is cancelled.
func HandleProxy(ctx context.Context, args Args, cfg *config.Config, logger *slog.Logger) error {
	srv, err := NewProxyServer(args, cfg, logger)
	if err != nil {
		return err
	}
	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return NewCommandError("proxy", "serve", "server stopped", err)
	}
	return nil
}
