package lsv

import (
	"context"
	"net/http"
	"time"
)

// LoginResponse is the payload returned by a successful login.
//
// As with refresh, the user object is left loosely typed; see
// RefreshResponse.
type LoginResponse struct {
	AccessToken  string         `json:"accessToken"`
	RefreshToken string         `json:"refreshToken"`
	User         map[string]any `json:"user"`
}

// Login authenticates with email and password and stores the returned token
// pair in the client's token manager. Subsequent requests authenticate as
// this user, refreshing transparently when the access token expires.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	in := map[string]string{"email": email, "password": password}

	var out LoginResponse
	if err := c.do(ctx, http.MethodPost, loginPath, nil, in, &out); err != nil {
		return nil, err
	}

	c.tokens.SetTokens(out.AccessToken, out.RefreshToken)
	return &out, nil
}

// Logout revokes the server-side session and drops both local tokens.
//
// Local state is cleared even when the server call fails, so a client is
// never left holding tokens it asked to revoke.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, logoutPath, nil, nil, nil)
	c.tokens.ClearTokens()
	return err
}

// CurrentUser represents the authenticated user's identity attributes.
//
// It intentionally contains only identity data, not authorization facts;
// permissions are evaluated server-side per request.
type CurrentUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Disabled  bool      `json:"disabled"`
	CreatedAt time.Time `json:"createdAt"`
}

// Me retrieves the identity of the currently authenticated user.
func (c *Client) Me(ctx context.Context) (*CurrentUser, error) {
	var user CurrentUser
	if err := c.do(ctx, http.MethodGet, mePath, nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
