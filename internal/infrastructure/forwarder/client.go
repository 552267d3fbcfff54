package forwarder

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dropship/backend/internal/domain/forwarder"
	"golang.org/x/time/rate"
)

// maxResponseSize limits the response body size to prevent memory exhaustion
const maxResponseSize = 10 * 1024 * 1024 // 10MB

// maxErrorBodyInMessage bounds how much of an error body ends up in ProviderError.Message
const maxErrorBodyInMessage = 256

// ClientConfig holds the HTTP settings shared by every adapter
type ClientConfig struct {
	// Timeout is the per-request HTTP timeout; the gateway also applies its own deadline
	Timeout time.Duration
	// RequestsPerSecond throttles calls to a single provider; zero disables throttling
	RequestsPerSecond float64
	// Burst is the limiter bucket size
	Burst int
	// UserAgent is sent on every request
	UserAgent string
}

// DefaultClientConfig returns the defaults used when nothing is configured
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Timeout:           60 * time.Second,
		RequestsPerSecond: 5,
		Burst:             5,
		UserAgent:         "dropship-backend/1.0",
	}
}

// apiClient is the HTTP plumbing shared by the provider adapters. Every
// failure it returns is a *forwarder.ProviderError.
type apiClient struct {
	provider  string
	http      *http.Client
	limiter   *rate.Limiter
	userAgent string
}

func newAPIClient(provider string, cfg ClientConfig) *apiClient {
	defaults := DefaultClientConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaults.UserAgent
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &apiClient{
		provider:  provider,
		http:      &http.Client{Timeout: cfg.Timeout},
		limiter:   rate.NewLimiter(limit, burst),
		userAgent: cfg.UserAgent,
	}
}

// apiRequest describes one provider call
type apiRequest struct {
	operation string
	method    string
	url       string
	headers   map[string]string
	body      []byte
}

// do sends the request and returns the body of a 2xx response
func (c *apiClient) do(ctx context.Context, r apiRequest) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, c.fail(r.operation, 0, "rate limiter wait aborted", err)
	}

	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, r.url, body)
	if err != nil {
		return nil, c.fail(r.operation, 0, "failed to create request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.fail(r.operation, 0, "request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, c.fail(r.operation, resp.StatusCode, "failed to read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.fail(r.operation, resp.StatusCode, truncate(string(respBody)), nil)
	}
	return respBody, nil
}

// doJSON marshals payload, sends it, and decodes the 2xx body into out
func (c *apiClient) doJSON(ctx context.Context, r apiRequest, payload, out any) error {
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return c.fail(r.operation, 0, "failed to marshal request", err)
		}
		r.body = data
	}
	body, err := c.do(ctx, r)
	if err != nil {
		return err
	}
	return c.decode(r.operation, body, out)
}

func (c *apiClient) decode(operation string, body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return c.fail(operation, 0, "malformed response", err)
	}
	return nil
}

func (c *apiClient) fail(operation string, status int, message string, cause error) *forwarder.ProviderError {
	return forwarder.NewProviderError(c.provider, operation, status, message, cause)
}

// invalidResponse reports a 2xx body that decoded but misses required data
func (c *apiClient) invalidResponse(operation, format string, args ...any) *forwarder.ProviderError {
	return c.fail(operation, 0, "invalid response", fmt.Errorf(format, args...))
}

// truncate cuts s to at most maxErrorBodyInMessage bytes on a rune boundary
func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxErrorBodyInMessage {
		return s
	}
	n := maxErrorBodyInMessage
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

func endpointURL(base, path string) string {
	return strings.TrimRight(base, "/") + path
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func basicAuth(user, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+password))
}
