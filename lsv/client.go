package lsv

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// tracerName identifies this instrumentation library in emitted spans.
const tracerName = "github.com/locksafe/lsv-go/lsv"

// defaultUserAgent identifies the SDK on outbound requests.
const defaultUserAgent = "lsv-go/1"

// ClientOption configures a Client.
//
// Client options are applied at construction time via New and customize
// transport-level behavior (HTTP client, logging, tracing, retries) without
// changing Client semantics.
type ClientOption func(*Client)

// WithHTTPClient configures the Client to use a custom http.Client.
//
// This is useful for setting timeouts, proxies, or test transports. The
// provided client is used for all outbound requests, including token
// refresh.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger configures the Client to emit logs through l.
//
// Without it the client is silent. Logs cover request outcomes and token
// lifecycle events; token values and vault keys are never logged.
func WithLogger(l hclog.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithUserAgent overrides the User-Agent header sent on every request.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithTracerProvider specifies a tracer provider to use for creating a
// tracer. If none is specified, the global provider is used (see
// otel.GetTracerProvider).
func WithTracerProvider(tp trace.TracerProvider) ClientOption {
	return func(c *Client) {
		if tp != nil {
			c.tracer = tp.Tracer(tracerName)
		}
	}
}

// WithRetryMax sets how many times an idempotent request is retried after a
// transient failure. Zero disables retries.
func WithRetryMax(n int) ClientOption {
	return func(c *Client) {
		if n >= 0 {
			c.retryMax = n
		}
	}
}

// Client is a Locksafe Vault API client.
//
// It owns the security layer every request passes through: HMAC request
// signing when an API key is configured, bearer authentication with
// transparent token refresh when tokens are held, and classification of
// every failure into the package's typed errors.
//
// Resource operations hang off the service fields (Vaults, Documents, ...).
// A Client is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	apiKey     string
	tokens     *TokenManager
	logger     hclog.Logger
	tracer     trace.Tracer
	userAgent  string
	retryMax   int

	// retryInterval is the initial backoff delay between attempts.
	retryInterval time.Duration

	Vaults     *VaultsService
	Documents  *DocumentsService
	Search     *SearchService
	Billing    *BillingService
	Admin      *AdminService
	Webhooks   *WebhooksService
	Connectors *ConnectorsService
}

// New creates a Locksafe Vault client.
//
// The configuration is validated strictly; every invalid field is reported.
// Optional ClientOptions customize transport behavior.
func New(cfg Config, opts ...ClientOption) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	c := &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:    http.DefaultClient,
		apiKey:        cfg.APIKey,
		logger:        hclog.NewNullLogger(),
		userAgent:     defaultUserAgent,
		retryMax:      DefaultRetryMax,
		retryInterval: 500 * time.Millisecond,
	}
	if cfg.HTTPClient != nil {
		c.httpClient = cfg.HTTPClient
	}
	if cfg.Logger != nil {
		c.logger = cfg.Logger
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.tracer == nil {
		c.tracer = otel.GetTracerProvider().Tracer(tracerName)
	}

	tokens, err := NewTokenManager(TokenManagerConfig{
		BaseURL:      c.baseURL,
		AccessToken:  cfg.AccessToken,
		RefreshToken: cfg.RefreshToken,
		ExpiryBuffer: cfg.ExpiryBuffer,
		OnRefresh:    cfg.OnTokenRefresh,
		HTTPClient:   c.httpClient,
		Logger:       c.logger,
	})
	if err != nil {
		return nil, err
	}
	c.tokens = tokens

	c.Vaults = &VaultsService{client: c}
	c.Documents = &DocumentsService{client: c}
	c.Search = &SearchService{client: c}
	c.Billing = &BillingService{client: c}
	c.Admin = &AdminService{client: c}
	c.Webhooks = &WebhooksService{client: c}
	c.Connectors = &ConnectorsService{client: c}

	return c, nil
}

// Tokens returns the client's token manager, e.g. to read the current
// access token or to seed tokens after an out-of-band login.
func (c *Client) Tokens() *TokenManager {
	return c.tokens
}

// Ping checks connectivity and credentials against the API health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, healthPath, nil, nil, nil)
}

// ListOptions controls pagination for list operations.
type ListOptions struct {
	Page    int
	PerPage int
}

func (o *ListOptions) values() url.Values {
	if o == nil {
		return nil
	}
	q := url.Values{}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.PerPage > 0 {
		q.Set("perPage", strconv.Itoa(o.PerPage))
	}
	return q
}

// do performs one API operation: marshal, authenticate, send, classify,
// decode. Transient failures of idempotent requests are retried with
// exponential backoff; every attempt is re-signed with a fresh timestamp and
// nonce.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("lsv: encoding request body: %w", err)
		}
	}

	ctx, span := c.tracer.Start(ctx, "lsv."+method+" "+path, trace.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.path", path),
	))
	defer span.End()

	operation := func() error {
		err := c.doOnce(ctx, method, path, query, payload, out)
		if err != nil && !retryable(method, err) {
			return backoff.Permanent(err)
		}
		return err
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = c.retryInterval
	bo := backoff.WithContext(backoff.WithMaxRetries(expo, uint64(c.retryMax)), ctx)

	if err := backoff.Retry(operation, bo); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// doOnce executes a single attempt.
func (c *Client) doOnce(ctx context.Context, method, path string, query url.Values, payload []byte, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("lsv: building request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", c.userAgent)

	requestID, ok := RequestIDFromContext(ctx)
	if !ok {
		requestID = uuid.NewString()
	}
	req.Header.Set(RequestIDHeader, requestID)

	if err := c.applyAuth(ctx, req, method, path, payload); err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed",
			"method", method,
			"path", path,
			"request_id", requestID,
			"error", err,
		)
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("request rejected",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"request_id", requestID,
		)
		return classifyResponse(resp, respBody)
	}

	c.logger.Debug("request completed",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", requestID,
	)

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("lsv: decoding response: %w", err)
		}
	}
	return nil
}

// applyAuth attaches bearer and signature credentials to req. Both may be
// present: tokens identify the user, the signature authenticates the
// request itself. Signing happens here, per attempt, so retried requests
// carry a fresh timestamp and nonce.
func (c *Client) applyAuth(ctx context.Context, req *http.Request, method, path string, payload []byte) error {
	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return err
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	if c.apiKey != "" {
		headers, err := SignRequest(c.apiKey, method, path, string(payload))
		if err != nil {
			return err
		}
		headers.Apply(req.Header)
	}

	return nil
}

// retryable reports whether a failed request may safely be attempted again.
// Only idempotent methods qualify, and only for failures that plausibly
// resolve on their own: transport errors, throttling, and gateway-class
// server errors.
func retryable(method string, err error) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete:
	default:
		return false
	}

	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return true
	}

	var rateErr *RateLimitError
	if errors.As(err, &rateErr) {
		return true
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
	}

	return false
}

// DoRequest performs a raw API request and decodes a successful JSON
// response into T.
//
// This is a low-level escape hatch for endpoints that do not yet have
// first-class helpers. The request is authenticated, signed, retried, and
// error-classified exactly like built-in operations.
func DoRequest[T any](ctx context.Context, c *Client, method, path string, query url.Values, in any) (*T, error) {
	var out T
	if err := c.do(ctx, method, path, query, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
