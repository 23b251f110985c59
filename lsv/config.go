package lsv

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
)

// Config defines the configuration required to initialize a Locksafe client.
//
// Only BaseURL is required. The client performs strict validation when
// calling New and reports every invalid field at once.
type Config struct {
	// BaseURL is the root of the Locksafe Vault API, including scheme and
	// host (e.g. "https://api.locksafe.io"). A trailing slash is trimmed.
	BaseURL string

	// APIKey enables request signing. When set, every outbound request
	// carries signature, timestamp, and nonce headers computed under this
	// key.
	//
	// Leave empty for clients that authenticate with tokens only.
	APIKey string

	// AccessToken seeds the token manager with an existing access token,
	// for callers that completed authentication elsewhere.
	AccessToken string

	// RefreshToken enables automatic token refresh. When set, an expired
	// or expiring access token is replaced transparently before requests.
	RefreshToken string

	// ExpiryBuffer is how long before its nominal expiry an access token
	// is already treated as expired. Zero selects DefaultExpiryBuffer.
	ExpiryBuffer time.Duration

	// OnTokenRefresh, if set, is invoked after every successful token
	// refresh with the full refresh response, including the user object.
	// Callers typically use it to persist the rotated token.
	OnTokenRefresh func(RefreshResponse)

	// HTTPClient is used for all outbound calls. If nil,
	// http.DefaultClient is used.
	HTTPClient *http.Client

	// Logger receives transport and token lifecycle logs. If nil, logging
	// is disabled. Token values are never logged.
	Logger hclog.Logger
}

// validate checks the configuration and reports every problem found, not
// just the first.
func (c Config) validate() error {
	var result *multierror.Error

	if err := validation.ValidateStruct(&c,
		validation.Field(&c.BaseURL, validation.Required),
	); err != nil {
		result = multierror.Append(result, fmt.Errorf("lsv: invalid config: %w", err))
	}

	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			result = multierror.Append(result,
				fmt.Errorf("lsv: base URL %q is not an absolute URL", c.BaseURL))
		}
	}

	if c.ExpiryBuffer < 0 {
		result = multierror.Append(result,
			errors.New("lsv: expiry buffer must not be negative"))
	}

	return result.ErrorOrNil()
}
