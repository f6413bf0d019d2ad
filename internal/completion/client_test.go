// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package completion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// =============================================================================
// REQUEST SHAPE TESTS
// =============================================================================

func TestComplete_SendsPromptAndHeaders(t *testing.T) {
	var gotPrompt, gotKey, gotType, gotRequestID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		gotKey = r.Header.Get("X-API-Key")
		gotType = r.Header.Get("Content-Type")
		gotRequestID = r.Header.Get("X-Request-ID")

		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		gotPrompt = req.Prompt

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"completion":"Hi there!"}`))
	}))
	defer server.Close()

	client := New(Options{Endpoint: server.URL, Credentials: StaticCredential("sk-test")})
	res := client.Complete(context.Background(), "  Hello  ")

	require.True(t, res.OK(), res.Reason())
	assert.Equal(t, "Hi there!", res.Text())
	assert.Equal(t, "  Hello  ", gotPrompt, "prompt must be sent untrimmed")
	assert.Equal(t, "sk-test", gotKey)
	assert.Equal(t, "application/json", gotType)
	assert.NotEmpty(t, gotRequestID)
}

func TestComplete_CustomHeaderAndNoCredential(t *testing.T) {
	var headers http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
		w.Write([]byte(`{"completion":"ok"}`))
	}))
	defer server.Close()

	client := New(Options{Endpoint: server.URL, HeaderName: "Authorization"})
	res := client.Complete(context.Background(), "p")

	require.True(t, res.OK())
	assert.Empty(t, headers.Get("Authorization"))
	assert.Empty(t, headers.Get("X-API-Key"))
}

// =============================================================================
// FAILURE TRANSLATION TESTS
// =============================================================================

func TestComplete_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close() // nothing is listening any more

	res := New(Options{Endpoint: url}).Complete(context.Background(), "Hello")

	assert.False(t, res.OK())
	assert.Equal(t, TransportFailure, res.Kind())
	assert.True(t, strings.HasPrefix(res.Reason(), "fetch error: "), res.Reason())
}

func TestComplete_AuthRejectionIsTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid api key"}`))
	}))
	defer server.Close()

	res := New(Options{Endpoint: server.URL, Credentials: StaticCredential("bad")}).Complete(context.Background(), "Hello")

	assert.Equal(t, TransportFailure, res.Kind())
	assert.Equal(t, `fetch error: HTTP 401: {"error":"invalid api key"}`, res.Reason())
}

func TestComplete_MissingCredential(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	t.Setenv("PARLEY_TEST_KEY", "")
	res := New(Options{Endpoint: server.URL, Credentials: EnvCredential("PARLEY_TEST_KEY")}).Complete(context.Background(), "Hello")

	assert.Equal(t, TransportFailure, res.Kind())
	assert.Contains(t, res.Reason(), "fetch error: credential: ")
	assert.Contains(t, res.Reason(), "PARLEY_TEST_KEY")
	assert.Zero(t, hits.Load(), "no request may be sent without a credential")
}

func TestComplete_ParseFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"answer":"y"}`))
	}))
	defer server.Close()

	res := New(Options{Endpoint: server.URL}).Complete(context.Background(), "Hello")

	assert.Equal(t, ParseFailure, res.Kind())
	assert.Equal(t, "json parse error: missing field `completion`", res.Reason())
}

func TestComplete_DeadlineIsTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	res := New(Options{Endpoint: server.URL}).Complete(ctx, "Hello")

	assert.Equal(t, TransportFailure, res.Kind())
	assert.Contains(t, res.Reason(), "context deadline exceeded")
}

func TestComplete_NoRetries(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	res := New(Options{Endpoint: server.URL}).Complete(context.Background(), "Hello")

	assert.Equal(t, "fetch error: HTTP 503: empty response", res.Reason())
	assert.Equal(t, int32(1), hits.Load())
}

func TestComplete_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"completion":"ok"}`))
	}))
	defer server.Close()

	client := New(Options{
		Endpoint: server.URL,
		Limiter:  rate.NewLimiter(rate.Every(time.Hour), 1),
	})

	require.True(t, client.Complete(context.Background(), "first").OK())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	res := client.Complete(ctx, "second")
	assert.Equal(t, TransportFailure, res.Kind())
}

// =============================================================================
// HELPER TESTS
// =============================================================================

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "empty response", excerpt(nil))
	assert.Equal(t, "short", excerpt([]byte("  short \n")))

	long := strings.Repeat("x", maxErrorExcerpt+10)
	got := excerpt([]byte(long))
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Len(t, got, maxErrorExcerpt+3)
}

func TestFingerprint(t *testing.T) {
	assert.Equal(t, "none", Fingerprint(""))
	fp := Fingerprint("sk-secret")
	assert.Len(t, fp, 8)
	assert.NotContains(t, fp, "secret")
	assert.Equal(t, fp, Fingerprint("sk-secret"))
}

func TestStaticCredential_Empty(t *testing.T) {
	_, err := StaticCredential("   ").Credential(context.Background())
	assert.ErrorIs(t, err, ErrCredentialMissing)
}
