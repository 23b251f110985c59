package lsv

import "time"

const (
	// RefreshCookieName is the name of the cookie that carries the Locksafe
	// refresh token on calls to the token refresh endpoint.
	//
	// The refresh token is never sent on any other request.
	RefreshCookieName = "lsv_refresh"

	// SignatureHeader carries the lowercase hex HMAC-SHA256 signature of a
	// signed request.
	SignatureHeader = "x-signature"

	// SignatureTimestampHeader carries the timestamp the signature was
	// computed at, in millisecond-precision UTC (e.g.
	// "2024-01-15T10:30:00.000Z").
	SignatureTimestampHeader = "x-signature-timestamp"

	// SignatureNonceHeader carries the per-request nonce covered by the
	// signature.
	SignatureNonceHeader = "x-signature-nonce"

	// RequestIDHeader is set on every outbound request so calls can be
	// correlated with server-side logs. A fresh UUID is generated per
	// request unless one is pinned via WithRequestID.
	RequestIDHeader = "X-Request-Id"

	// MaxTimestampAge is the server's replay window for signed requests and
	// webhook deliveries. A signature whose timestamp is further than this
	// from the server's clock is rejected regardless of validity.
	MaxTimestampAge = 5 * time.Minute

	// DefaultExpiryBuffer is how long before its nominal expiry an access
	// token is already treated as expired, covering clock drift and request
	// latency.
	DefaultExpiryBuffer = 60 * time.Second

	// DefaultRetryMax is the number of times an idempotent request is
	// retried after a transient failure.
	DefaultRetryMax = 2
)

const (
	// signatureTimestampLayout renders timestamps the way the signing
	// scheme requires: millisecond precision, UTC, trailing "Z".
	signatureTimestampLayout = "2006-01-02T15:04:05.000Z"

	// nonceSize is the number of random bytes behind each request nonce.
	nonceSize = 16

	// requestedWithHeader marks SDK-originated refresh calls so the server
	// can tell them apart from browser navigations.
	requestedWithHeader = "X-Requested-With"
	requestedWithValue  = "XMLHttpRequest"
)

// API paths used by built-in operations.
const (
	loginPath        = "/api/v1/auth/login"
	logoutPath       = "/api/v1/auth/logout"
	mePath           = "/api/v1/auth/me"
	refreshPath      = "/api/v1/auth/refresh"
	healthPath       = "/api/v1/health"
	searchPath       = "/api/v1/search"
	vaultsPath       = "/api/v1/vaults"
	webhooksPath     = "/api/v1/webhooks"
	connectorsPath   = "/api/v1/connectors"
	membersPath      = "/api/v1/admin/members"
	auditLogPath     = "/api/v1/admin/audit-log"
	usagePath        = "/api/v1/billing/usage"
	subscriptionPath = "/api/v1/billing/subscription"
)
