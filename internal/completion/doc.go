// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package completion performs single request/response exchanges against a
// text-completion endpoint.
//
// The endpoint accepts {"prompt": "..."} and answers {"completion": "..."}.
// A call never returns a Go error: every outcome is a Result, either Ok with
// the completion text or a failure carrying a human-readable reason.
//
// # Key Types
//
//   - Client: HTTP client for the completion endpoint
//   - Result: Ok(text) or a TransportFailure / ParseFailure
//   - Completer: anything that can complete a prompt (Client, BreakerCompleter)
//   - CredentialProvider: supplies the API credential at call time
//
// # Usage
//
//	client := completion.New(completion.Options{
//	    Endpoint:    "https://proxy.example.com/v1/complete",
//	    Credentials: completion.EnvCredential("PARLEY_API_KEY"),
//	})
//	res := client.Complete(ctx, "Hello")
//	if !res.OK() {
//	    fmt.Println(res.Reason())
//	}
//
// # Failures
//
// Transport failures (network, DNS, TLS, non-2xx status, missing credential,
// deadline, cancellation) are reported as "fetch error: <detail>". A body that
// is not JSON or lacks a string "completion" field is reported as
// "json parse error: <detail>". Requests are never retried.
//
// # Security
//
// Credentials are resolved per call from a CredentialProvider and are never
// logged; only a short SHA-256 fingerprint appears in debug logs. Production
// deployments point the client at the parley proxy and use NoCredential.
package completion
