package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/veganchecker/vcadmin/internal/logging"
)

// HTTPCaller calls procedures through the PostgREST endpoint POST /rest/v1/rpc/{name}.
type HTTPCaller struct {
	baseURL     string
	anonKey     string
	accessToken string
	httpClient  *http.Client
}

// HTTPOption configures an HTTPCaller.
type HTTPOption func(*HTTPCaller)

// WithAccessToken sends token as the bearer credential instead of the anon key.
func WithAccessToken(token string) HTTPOption {
	return func(c *HTTPCaller) {
		c.accessToken = token
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(c *HTTPCaller) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) HTTPOption {
	return func(c *HTTPCaller) {
		c.httpClient.Timeout = d
	}
}

// NewHTTPCaller creates a caller for the backend at baseURL (e.g. "https://xyz.supabase.co").
func NewHTTPCaller(baseURL, anonKey string, opts ...HTTPOption) (*HTTPCaller, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, ErrNoBaseURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}

	c := &HTTPCaller{
		baseURL:    baseURL,
		anonKey:    anonKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Close is a no-op for the HTTP caller.
func (c *HTTPCaller) Close() error { return nil }

// Call implements Caller.
func (c *HTTPCaller) Call(ctx context.Context, proc Procedure, params Params, out any) error {
	if err := validateProcedure(proc); err != nil {
		return err
	}
	if params == nil {
		params = Params{}
	}

	start := time.Now()
	err := c.doJSON(ctx, proc, "/rest/v1/rpc/"+url.PathEscape(proc.Name), params, out)

	logging.FromContext(ctx).Debug().Ctx(ctx).
		Str("component", "rpc").
		Str("operation", "call").
		Str("driver", "http").
		Str("procedure", proc.Name).
		Dur("duration", time.Since(start)).
		Err(err).
		Msg("procedure call")
	return err
}

// doJSON posts body as JSON and decodes the response into result.
func (c *HTTPCaller) doJSON(ctx context.Context, proc Procedure, path string, body any, result any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.anonKey != "" {
		req.Header.Set("apikey", c.anonKey)
	}
	if bearer := c.bearer(); bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if traceID := logging.TraceIDFromContext(ctx); traceID != "" {
		req.Header.Set("X-Request-Id", traceID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", proc.Name, err)
	}
	defer resp.Body.Close()

	// 204 No Content: void function.
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeHTTPError(proc, resp.StatusCode, respBody)
	}

	if result != nil && len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding %s response: %w", proc.Name, err)
		}
	}
	return nil
}

func (c *HTTPCaller) bearer() string {
	if c.accessToken != "" {
		return c.accessToken
	}
	return c.anonKey
}

func decodeHTTPError(proc Procedure, status int, body []byte) error {
	rpcErr := &Error{Procedure: proc.Name, StatusCode: status}
	if json.Unmarshal(body, rpcErr) == nil && (rpcErr.Message != "" || rpcErr.Code != "") {
		return rpcErr
	}
	rpcErr.Message = strings.TrimSpace(string(body))
	if rpcErr.Message == "" {
		rpcErr.Message = http.StatusText(status)
	}
	return rpcErr
}
