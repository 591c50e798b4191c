package sailthru

import (
	"context"
	"crypto/md5" //nolint:gosec // The platform's signing scheme mandates MD5.
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/windward-data/sailtap/internal/core/domain"
	"github.com/windward-data/sailtap/internal/logger"
)

const (
	// DefaultTimeout is the default HTTP request timeout. Export
	// downloads stream for a while, so this is generous.
	DefaultTimeout = 300 * time.Second

	// formatJSON is the only response format the extractor speaks.
	formatJSON = "json"
)

// Client speaks the platform's signed form protocol: every call
// carries api_key, format and a json payload, plus an MD5 signature
// over the secret and the sorted parameter values.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	apiSecret   string
	userAgent   string
	rateLimiter *RateLimiter
}

// NewClient creates an API client from the account and transport
// settings.
func NewClient(settings domain.Settings) *Client {
	timeout := settings.API.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return NewClientWithHTTPClient(settings, &http.Client{Timeout: timeout})
}

// NewClientWithHTTPClient creates a client with a custom http.Client.
// Useful for tests injecting a fake round tripper.
func NewClientWithHTTPClient(settings domain.Settings, httpClient *http.Client) *Client {
	return &Client{
		httpClient:  httpClient,
		baseURL:     strings.TrimRight(settings.API.BaseURL, "/"),
		apiKey:      settings.Account.APIKey,
		apiSecret:   settings.Account.APISecret,
		userAgent:   settings.Account.UserAgent,
		rateLimiter: NewRateLimiter(settings.API.RateLimit, settings.API.Burst),
	}
}

// RateLimiter returns the rate limiter for external access.
func (c *Client) RateLimiter() *RateLimiter {
	return c.rateLimiter
}

// Get issues a signed GET for the named API action.
func (c *Client) Get(ctx context.Context, action string, payload map[string]any) (map[string]any, error) {
	return c.do(ctx, http.MethodGet, action, payload)
}

// Post issues a signed POST for the named API action.
func (c *Client) Post(ctx context.Context, action string, payload map[string]any) (map[string]any, error) {
	return c.do(ctx, http.MethodPost, action, payload)
}

// do signs and issues one request, enforcing the rate limiter before
// the call and folding the response headers back into it afterwards.
func (c *Client) do(ctx context.Context, method, action string, payload map[string]any) (map[string]any, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	params, err := c.signedParams(payload)
	if err != nil {
		return nil, fmt.Errorf("sign %s request: %w", action, err)
	}

	endpoint := c.baseURL + "/" + action
	var req *http.Request
	if method == http.MethodGet {
		req, err = http.NewRequestWithContext(ctx, method, endpoint+"?"+params.Encode(), nil)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, endpoint, strings.NewReader(params.Encode()))
		if req != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", action, err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, action, err)
	}
	defer resp.Body.Close()

	if err := c.rateLimiter.CheckRateLimit(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", action, err)
	}

	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, &HTTPError{StatusCode: resp.StatusCode, Action: action}
		}
		return nil, fmt.Errorf("parse %s response: %w", action, err)
	}

	if apiErr := apiErrorFrom(action, parsed); apiErr != nil {
		return nil, apiErr
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Action: action}
	}
	return parsed, nil
}

// doWithRetry retries transient failures with exponential backoff.
// Non-transient errors return immediately.
func (c *Client) doWithRetry(
	ctx context.Context, method, action string, payload map[string]any,
	attempts int, multiplier float64,
) (map[string]any, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Second
	policy.Multiplier = multiplier
	policy.RandomizationFactor = 0
	policy.MaxElapsedTime = 0
	policy.Reset()

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			logger.Debug("Retrying %s after transient error: %v", action, lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(policy.NextBackOff()):
			}
		}
		resp, err := c.do(ctx, method, action, payload)
		if err == nil {
			return resp, nil
		}
		if !IsTransient(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("sailthru: %s failed after %d attempts: %w", action, attempts, lastErr)
}

// signedParams builds the form parameter set for a payload: api_key,
// format, the JSON-encoded payload and the signature over all of them.
func (c *Client) signedParams(payload map[string]any) (url.Values, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	params := map[string]string{
		"api_key": c.apiKey,
		"format":  formatJSON,
		"json":    string(encoded),
	}

	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}
	values.Set("sig", signature(c.apiSecret, params))
	return values, nil
}

// signature computes the request signature: MD5 over the secret
// followed by every parameter value in sorted order.
func signature(secret string, params map[string]string) string {
	values := make([]string, 0, len(params))
	for _, v := range params {
		values = append(values, v)
	}
	sort.Strings(values)

	sum := md5.Sum([]byte(secret + strings.Join(values, ""))) //nolint:gosec // Mandated by the API.
	return hex.EncodeToString(sum[:])
}

// apiErrorFrom extracts an error body, if present. The platform
// returns 200s with {"error": code, "errormsg": ...} for rejected
// requests.
func apiErrorFrom(action string, body map[string]any) *APIError {
	raw, ok := body["error"]
	if !ok {
		return nil
	}
	code := 0
	switch v := raw.(type) {
	case float64:
		code = int(v)
	case string:
		fmt.Sscanf(v, "%d", &code)
	}
	message, _ := body["errormsg"].(string)
	return &APIError{Code: code, Message: message, Action: action}
}
