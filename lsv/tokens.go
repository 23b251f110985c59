package lsv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hashicorp/go-hclog"
)

// RefreshResponse is the payload returned by the token refresh endpoint.
//
// The user object is left loosely typed: its shape belongs to the server and
// changes without SDK releases.
type RefreshResponse struct {
	AccessToken string         `json:"accessToken"`
	User        map[string]any `json:"user"`
}

// TokenManagerConfig configures a TokenManager.
type TokenManagerConfig struct {
	// BaseURL is the root of the Locksafe Vault API. Required.
	BaseURL string

	// AccessToken and RefreshToken seed the manager. Both are optional;
	// tokens can also be set later via SetTokens.
	AccessToken  string
	RefreshToken string

	// ExpiryBuffer is how long before its nominal expiry an access token
	// is already treated as expired. Zero selects DefaultExpiryBuffer.
	ExpiryBuffer time.Duration

	// OnRefresh, if set, is invoked after every successful refresh with
	// the full response payload, before waiting callers are released.
	OnRefresh func(RefreshResponse)

	// HTTPClient is used for refresh calls. If nil, http.DefaultClient is
	// used.
	HTTPClient *http.Client

	// Logger receives token lifecycle logs. If nil, logging is disabled.
	// Token values are never logged.
	Logger hclog.Logger
}

// TokenManager owns the access/refresh token pair for a client.
//
// It decides when the access token needs replacing, performs the refresh
// call, and coalesces concurrent refresh attempts into a single network
// request whose result every caller shares. All methods are safe for
// concurrent use.
type TokenManager struct {
	httpClient   *http.Client
	baseURL      string
	logger       hclog.Logger
	expiryBuffer time.Duration
	onRefresh    func(RefreshResponse)

	// now is replaceable in tests.
	now func() time.Time

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	inflight     *refreshCall
}

// refreshCall is the shared state of a single in-flight refresh. Late
// arrivals block on done and read token/err afterwards instead of issuing
// their own network call.
type refreshCall struct {
	done  chan struct{}
	token string
	err   error
}

// NewTokenManager creates a token manager.
func NewTokenManager(cfg TokenManagerConfig) (*TokenManager, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("lsv: token manager base URL is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	logger := cfg.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	buffer := cfg.ExpiryBuffer
	if buffer == 0 {
		buffer = DefaultExpiryBuffer
	}

	return &TokenManager{
		httpClient:   httpClient,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		logger:       logger,
		expiryBuffer: buffer,
		onRefresh:    cfg.OnRefresh,
		now:          time.Now,
		accessToken:  cfg.AccessToken,
		refreshToken: cfg.RefreshToken,
	}, nil
}

// AccessToken returns the current access token, or "" when none is held.
func (m *TokenManager) AccessToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accessToken
}

// RefreshToken returns the current refresh token, or "" when none is held.
func (m *TokenManager) RefreshToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshToken
}

// SetTokens replaces both tokens, e.g. after a login performed by the
// caller.
func (m *TokenManager) SetTokens(access, refresh string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accessToken = access
	m.refreshToken = refresh
}

// ClearTokens drops both tokens, returning the manager to its
// unauthenticated state.
func (m *TokenManager) ClearTokens() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accessToken = ""
	m.refreshToken = ""
}

// NeedsRefresh reports whether the current access token is missing, expired,
// or expiring within the configured buffer.
func (m *TokenManager) NeedsRefresh() bool {
	m.mu.Lock()
	token := m.accessToken
	m.mu.Unlock()

	if token == "" {
		return true
	}
	return isTokenExpiredAt(token, m.expiryBuffer, m.now())
}

// Token returns an access token suitable for an immediate request,
// refreshing first when the current one is inside the expiry buffer and a
// refresh token is available.
//
// When no refresh token is held, the current access token is returned as-is
// and the server stays the authority on whether it is still acceptable.
func (m *TokenManager) Token(ctx context.Context) (string, error) {
	if !m.NeedsRefresh() {
		return m.AccessToken(), nil
	}

	if m.RefreshToken() == "" {
		return m.AccessToken(), nil
	}

	return m.Refresh(ctx)
}

// Refresh obtains a new access token from the refresh endpoint and stores
// it.
//
// Concurrent calls are coalesced: only the first performs a network request,
// and every caller receives that request's outcome. The in-flight marker is
// cleared, under the same lock that guards token state, before the shared
// result is delivered, so a failed refresh can be retried immediately.
//
// Without a refresh token, Refresh fails with ErrNoRefreshToken and performs
// no I/O.
func (m *TokenManager) Refresh(ctx context.Context) (string, error) {
	m.mu.Lock()
	if m.refreshToken == "" {
		m.mu.Unlock()
		return "", ErrNoRefreshToken
	}

	if call := m.inflight; call != nil {
		m.mu.Unlock()
		select {
		case <-call.done:
			return call.token, call.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	call := &refreshCall{done: make(chan struct{})}
	m.inflight = call
	refreshToken := m.refreshToken
	m.mu.Unlock()

	resp, err := m.doRefresh(ctx, refreshToken)

	m.mu.Lock()
	if err == nil {
		m.accessToken = resp.AccessToken
		call.token = resp.AccessToken
	}
	call.err = err
	m.inflight = nil
	m.mu.Unlock()

	if err == nil && m.onRefresh != nil {
		m.onRefresh(*resp)
	}

	close(call.done)

	return call.token, call.err
}

// doRefresh performs the actual refresh call. The refresh token travels in
// the lsv_refresh cookie, never in the body or a bearer header.
func (m *TokenManager) doRefresh(ctx context.Context, refreshToken string) (*RefreshResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+refreshPath, nil)
	if err != nil {
		return nil, fmt.Errorf("lsv: building refresh request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestedWithHeader, requestedWithValue)
	req.AddCookie(&http.Cookie{Name: RefreshCookieName, Value: refreshToken})

	resp, err := m.httpClient.Do(req)
	if err != nil {
		m.logger.Warn("token refresh failed", "error", err)
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		m.logger.Warn("token refresh rejected", "status", resp.StatusCode)
		return nil, classifyResponse(resp, body)
	}

	var rr RefreshResponse
	if err := json.Unmarshal(body, &rr); err != nil {
		return nil, fmt.Errorf("lsv: decoding refresh response: %w", err)
	}
	if rr.AccessToken == "" {
		return nil, errors.New("lsv: refresh response missing access token")
	}

	m.logger.Debug("access token refreshed")
	return &rr, nil
}

// DecodeTokenClaims decodes the claims of a JWT without verifying its
// signature.
//
// The client never holds signing keys, so token contents are advisory:
// useful for reading expiry or display attributes, never for trust
// decisions. Verification is the server's job.
func DecodeTokenClaims(token string) (map[string]any, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("lsv: decoding token payload: %w", err)
	}
	return claims, nil
}

// IsTokenExpired reports whether token is expired or expires within buffer.
//
// A token that cannot be decoded, or that carries no exp claim, counts as
// expired: the refresh path degrades gracefully to a server-side check,
// whereas trusting an unreadable token would fail the actual request.
func IsTokenExpired(token string, buffer time.Duration) bool {
	return isTokenExpiredAt(token, buffer, time.Now())
}

func isTokenExpiredAt(token string, buffer time.Duration, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return true
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}

	return !exp.Time.After(now.Add(buffer))
}
