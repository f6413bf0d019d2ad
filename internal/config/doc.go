// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for parley.
//
// Configuration is TOML with sensible defaults, environment variable
// overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - EndpointConfig: Completion endpoint, credential source and limits
//   - ProxyConfig: Settings for the credential-holding proxy
//   - LogConfig, TracingConfig: Ambient observability
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (PARLEY_*), including ones set from .env files
//   - ~/.parley/config.toml (or $PARLEY_HOME/config.toml)
//   - Built-in defaults
//
// # Usage
//
//	_ = config.LoadDotEnv()
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	timeout := cfg.RequestTimeout()
//
// API keys are never stored in the file. EndpointConfig.APIKeyEnv and
// ProxyConfig.UpstreamKeyEnv name the environment variables that hold them.
package config
