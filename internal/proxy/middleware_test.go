// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package proxy

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// =============================================================================
// AUTH TESTS
// =============================================================================

func TestAuth(t *testing.T) {
	srv := New(Options{Upstream: echoUpstream(""), ClientToken: "secret"})

	tests := []struct {
		name    string
		headers map[string]string
		want    int
	}{
		{"missing token", nil, http.StatusUnauthorized},
		{"wrong token", map[string]string{"X-API-Key": "nope"}, http.StatusUnauthorized},
		{"valid token", map[string]string{"X-API-Key": "secret"}, http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := post(t, srv.Handler(), `{"prompt":"hi"}`, tc.headers)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestValidateToken(t *testing.T) {
	assert.True(t, ValidateToken("abc", "abc"))
	assert.False(t, ValidateToken("abc", "abd"))
	assert.False(t, ValidateToken("", ""))
	assert.False(t, ValidateToken("abc", ""))
}

// =============================================================================
// CORS TESTS
// =============================================================================

func TestCORS(t *testing.T) {
	srv := New(Options{
		Upstream:       echoUpstream(""),
		AllowedOrigins: []string{"http://localhost:8080", "*.example.com"},
	})

	tests := []struct {
		name        string
		origin      string
		wantAllow   string
		wantCredent string
	}{
		{"explicit origin", "http://localhost:8080", "http://localhost:8080", "true"},
		{"wildcard subdomain", "https://app.example.com", "https://app.example.com", ""},
		{"unknown origin", "https://evil.test", "", ""},
		{"no origin", "", "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			headers := map[string]string{}
			if tc.origin != "" {
				headers["Origin"] = tc.origin
			}
			rec := post(t, srv.Handler(), `{"prompt":"hi"}`, headers)
			assert.Equal(t, tc.wantAllow, rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tc.wantCredent, rec.Header().Get("Access-Control-Allow-Credentials"))
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	srv := New(Options{Upstream: echoUpstream(""), AllowedOrigins: []string{"http://localhost:8080"}, ClientToken: "secret"})

	req := httptest.NewRequest(http.MethodOptions, "/v1/complete", nil)
	req.Header.Set("Origin", "http://localhost:8080")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code, "preflight must not require the client token")
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "X-API-Key")
}

// =============================================================================
// RATE LIMIT TESTS
// =============================================================================

func TestRateLimit(t *testing.T) {
	srv := New(Options{Upstream: echoUpstream(""), RatePerMinute: 2})

	assert.Equal(t, http.StatusOK, post(t, srv.Handler(), `{"prompt":"1"}`, nil).Code)
	assert.Equal(t, http.StatusOK, post(t, srv.Handler(), `{"prompt":"2"}`, nil).Code)

	rec := post(t, srv.Handler(), `{"prompt":"3"}`, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestRateLimiter_PerIP(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"), "buckets are independent per IP")
}

// =============================================================================
// HEADER TESTS
// =============================================================================

func TestSecurityHeaders(t *testing.T) {
	srv := New(Options{Upstream: echoUpstream("")})

	rec := post(t, srv.Handler(), `{"prompt":"hi"}`, nil)

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:5555"
	assert.Equal(t, "203.0.113.9", clientIP(req))

	req.RemoteAddr = "203.0.113.9"
	assert.Equal(t, "203.0.113.9", clientIP(req))
}
