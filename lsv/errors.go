package lsv

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

var (
	// ErrNoRefreshToken is returned by Refresh when no refresh token is
	// held, so a refresh cannot even be attempted.
	ErrNoRefreshToken = errors.New("lsv: no refresh token available")

	// ErrInvalidKeyLength is returned when a vault key does not decode to
	// exactly 32 bytes.
	ErrInvalidKeyLength = errors.New("lsv: vault key must be 64 hex characters (32 bytes)")

	// ErrInvalidEnvelope is returned when encrypted content is not a
	// well-formed envelope.
	ErrInvalidEnvelope = errors.New("lsv: malformed encrypted envelope")

	// ErrUnsupportedVersion is returned when an envelope declares a version
	// this package does not implement.
	ErrUnsupportedVersion = errors.New("lsv: unsupported envelope version")

	// ErrUnsupportedAlgorithm is returned when an envelope declares an
	// algorithm other than AES-256-GCM.
	ErrUnsupportedAlgorithm = errors.New("lsv: unsupported envelope algorithm")

	// ErrAuthenticationFailed is returned when an envelope fails its
	// integrity check. The ciphertext was tampered with or the key is
	// wrong; no partial plaintext is ever returned.
	ErrAuthenticationFailed = errors.New("lsv: envelope authentication failed")

	// ErrWebhookSignature is returned when a webhook delivery's signature
	// does not match the endpoint secret.
	ErrWebhookSignature = errors.New("lsv: webhook signature mismatch")

	// ErrWebhookTimestamp is returned when a webhook delivery's timestamp
	// is outside the replay window.
	ErrWebhookTimestamp = errors.New("lsv: webhook timestamp outside allowed window")
)

// ValidationError reports a request the server rejected as malformed (HTTP 400).
type ValidationError struct {
	Message   string
	RequestID string
}

func (e *ValidationError) Error() string {
	return "lsv: validation failed: " + e.Message
}

// AuthenticationError reports missing or invalid credentials (HTTP 401).
type AuthenticationError struct {
	Message   string
	RequestID string
}

func (e *AuthenticationError) Error() string {
	return "lsv: authentication failed: " + e.Message
}

// AuthorizationError reports a request the caller is not permitted to make
// (HTTP 403).
type AuthorizationError struct {
	Message   string
	RequestID string
}

func (e *AuthorizationError) Error() string {
	return "lsv: forbidden: " + e.Message
}

// NotFoundError reports a missing resource (HTTP 404).
//
// Resource and ID are populated when the response body names them, so callers
// can tell a missing vault from a missing document without string matching.
type NotFoundError struct {
	Message   string
	Resource  string
	ID        string
	RequestID string
}

func (e *NotFoundError) Error() string {
	if e.Resource != "" && e.ID != "" {
		return fmt.Sprintf("lsv: %s %q not found", e.Resource, e.ID)
	}
	return "lsv: not found: " + e.Message
}

// ConflictError reports a request that clashed with current server state,
// such as a duplicate name or a stale document version (HTTP 409).
type ConflictError struct {
	Message   string
	RequestID string
}

func (e *ConflictError) Error() string {
	return "lsv: conflict: " + e.Message
}

// RateLimitError reports request throttling (HTTP 429).
//
// RetryAfter is the server-suggested wait, zero when the response carried no
// Retry-After header.
type RateLimitError struct {
	Message    string
	RetryAfter time.Duration
	RequestID  string
}

func (e *RateLimitError) Error() string {
	return "lsv: rate limited: " + e.Message
}

// APIError reports any other non-success HTTP status. It is the fallback
// when no more specific error type applies.
type APIError struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("lsv: unexpected status %d: %s", e.StatusCode, e.Message)
}

// NetworkError reports a request that never produced an HTTP response:
// connection failures, timeouts, DNS errors.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "lsv: network failure: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// apiErrorBody mirrors the error payload returned by the Locksafe API.
type apiErrorBody struct {
	Message  string `json:"message"`
	Resource string `json:"resource"`
	ID       string `json:"id"`
}

// classifyResponse maps a non-success HTTP response onto the error taxonomy.
// It is the single place status codes are interpreted; transport code and
// resource services never switch on status themselves.
func classifyResponse(resp *http.Response, body []byte) error {
	var parsed apiErrorBody
	_ = json.Unmarshal(body, &parsed)

	msg := parsed.Message
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	requestID := resp.Header.Get(RequestIDHeader)

	switch resp.StatusCode {
	case http.StatusBadRequest:
		return &ValidationError{Message: msg, RequestID: requestID}
	case http.StatusUnauthorized:
		return &AuthenticationError{Message: msg, RequestID: requestID}
	case http.StatusForbidden:
		return &AuthorizationError{Message: msg, RequestID: requestID}
	case http.StatusNotFound:
		return &NotFoundError{
			Message:   msg,
			Resource:  parsed.Resource,
			ID:        parsed.ID,
			RequestID: requestID,
		}
	case http.StatusConflict:
		return &ConflictError{Message: msg, RequestID: requestID}
	case http.StatusTooManyRequests:
		return &RateLimitError{
			Message:    msg,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			RequestID:  requestID,
		}
	default:
		return &APIError{StatusCode: resp.StatusCode, Message: msg, RequestID: requestID}
	}
}

// parseRetryAfter interprets a Retry-After header given in seconds. HTTP-date
// values are ignored; the server only emits the delta form.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
