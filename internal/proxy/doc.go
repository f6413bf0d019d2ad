// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package proxy provides the HTTP server behind `parley proxy`.
//
// The proxy holds the real API credential so that distributed clients never
// see it. Clients POST the same {"prompt"} body they would send upstream and
// receive {"completion"} back; the proxy attaches the upstream key.
//
// # Endpoints
//
//   - POST /v1/complete - forward one prompt upstream
//   - GET  /health      - status, upstream circuit state and counters
//   - GET  /ping        - liveness probe
//
// # Security Features
//
//   - Optional client token checked with constant-time comparison
//   - CORS allow-list
//   - Per-IP rate limiting
//   - 1MB request body limit
//   - Security headers on every response
//
// # Usage
//
//	srv := proxy.New(proxy.Options{Addr: ":8787", Upstream: client})
//	if err := srv.Run(ctx); err != nil {
//		log.Fatal(err)
//	}
package proxy
