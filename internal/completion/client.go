// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package completion

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/jeranaias/parley/internal/tracer"
)

// Configuration constants for the completion endpoint.
const (
	// DefaultHeaderName carries the API credential.
	DefaultHeaderName = "X-API-Key"

	// DefaultUserAgent identifies parley to the endpoint.
	DefaultUserAgent = "parley/0.1.0"

	// MaxResponseSize is the maximum allowed response body size.
	// SECURITY: Response size limit prevents memory exhaustion attacks.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB limit

	// maxErrorExcerpt bounds how much of a non-2xx body ends up in a reason.
	maxErrorExcerpt = 200
)

// sharedHTTPClient pools connections for all completion requests.
// No client timeout: deadlines come from the caller's context.
var sharedHTTPClient = &http.Client{
	Transport: &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	},
}

// Completer completes a prompt. Implementations must always return a Result
// and never block past ctx.
type Completer interface {
	Complete(ctx context.Context, prompt string) Result
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, prompt string) Result

// Complete implements Completer.
func (f CompleterFunc) Complete(ctx context.Context, prompt string) Result {
	return f(ctx, prompt)
}

// Options configures a Client.
type Options struct {
	// Endpoint is the full URL that accepts POSTed prompts.
	Endpoint string

	// Credentials supplies the API credential. Nil means NoCredential.
	Credentials CredentialProvider

	// HeaderName is the header carrying the credential (default X-API-Key).
	HeaderName string

	// HTTPClient overrides the shared pooled client.
	HTTPClient *http.Client

	// Limiter, when set, paces outgoing requests.
	Limiter *rate.Limiter

	// Logger receives request logs. Nil discards them.
	Logger *slog.Logger

	// UserAgent overrides DefaultUserAgent.
	UserAgent string
}

// Client performs exactly one POST per Complete call.
type Client struct {
	endpoint    string
	credentials CredentialProvider
	headerName  string
	httpClient  *http.Client
	limiter     *rate.Limiter
	logger      *slog.Logger
	userAgent   string
}

// New creates a completion client.
func New(opts Options) *Client {
	c := &Client{
		endpoint:    strings.TrimSpace(opts.Endpoint),
		credentials: opts.Credentials,
		headerName:  opts.HeaderName,
		httpClient:  opts.HTTPClient,
		limiter:     opts.Limiter,
		logger:      opts.Logger,
		userAgent:   opts.UserAgent,
	}
	if c.credentials == nil {
		c.credentials = NoCredential
	}
	if c.headerName == "" {
		c.headerName = DefaultHeaderName
	}
	if c.httpClient == nil {
		c.httpClient = sharedHTTPClient
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.userAgent == "" {
		c.userAgent = DefaultUserAgent
	}
	return c
}

// Endpoint returns the configured endpoint URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Complete sends prompt to the endpoint and reports the outcome.
func (c *Client) Complete(ctx context.Context, prompt string) Result {
	requestID := uuid.NewString()

	ctx, span := tracer.StartSpan(ctx, "completion.request")
	defer span.End()
	span.SetAttributes(
		tracer.StringAttr("completion.endpoint", c.endpoint),
		tracer.StringAttr("completion.request_id", requestID),
		tracer.IntAttr("completion.prompt_bytes", len(prompt)),
	)

	start := time.Now()
	res := c.do(ctx, requestID, prompt)

	span.SetAttributes(tracer.StringAttr("completion.outcome", res.Kind().String()))
	if res.OK() {
		tracer.SetOK(span)
		c.logger.Debug("completion succeeded",
			"request_id", requestID,
			"duration", time.Since(start),
			"completion_bytes", len(res.Text()),
		)
	} else {
		tracer.RecordError(span, res.Err())
		c.logger.Warn("completion failed",
			"request_id", requestID,
			"kind", res.Kind().String(),
			"reason", res.Reason(),
			"duration", time.Since(start),
		)
	}
	return res
}

// do performs the exchange without instrumentation.
func (c *Client) do(ctx context.Context, requestID, prompt string) Result {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return transportErr(err)
		}
	}

	body, err := RequestBody(prompt)
	if err != nil {
		return transportErr(fmt.Errorf("encode request: %w", err))
	}

	credential, err := c.credentials.Credential(ctx)
	if err != nil {
		return transportErr(fmt.Errorf("credential: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return transportErr(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if credential != "" {
		req.Header.Set(c.headerName, credential)
	}

	// CLOUD: Secure logging - never log the credential itself.
	c.logger.Debug("completion request",
		"request_id", requestID,
		"endpoint", c.endpoint,
		"key_fingerprint", Fingerprint(credential),
	)

	resp, err := c.httpClient.Do(req)

	// SECURITY: Clear the credential header immediately after the request.
	req.Header.Del(c.headerName)

	if err != nil {
		return transportErr(err)
	}
	defer resp.Body.Close()

	data, err := readResponse(resp)
	if err != nil {
		return transportErr(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Err(TransportFailure, fmt.Sprintf("HTTP %d: %s", resp.StatusCode, excerpt(data)))
	}

	return ParseResponse(data)
}

// readResponse reads the response body with size limits to prevent memory exhaustion.
//
// SECURITY: Response size limit prevents memory exhaustion attacks.
func readResponse(resp *http.Response) ([]byte, error) {
	limitedReader := io.LimitReader(resp.Body, MaxResponseSize+1)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// excerpt trims an error body down to something fit for a status line.
func excerpt(body []byte) string {
	s := strings.TrimSpace(string(body))
	if s == "" {
		return "empty response"
	}
	runes := []rune(s)
	if len(runes) > maxErrorExcerpt {
		return string(runes[:maxErrorExcerpt]) + "..."
	}
	return s
}

// Compile-time interface check.
var _ Completer = (*Client)(nil)
