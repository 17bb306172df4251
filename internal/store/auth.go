package store

import (
	"context"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"

	"github.com/rxl895/BrainWave/internal/domain"
)

// Session is the signed-in auth state. It lives in memory only; there is no
// local durable store.
type Session struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token,omitempty"`
	ExpiresIn    int          `json:"expires_in,omitempty"`
	User         *domain.User `json:"user,omitempty"`
}

func (c *Client) setSession(s *Session) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
}

// GetSession returns the current session, nil when signed out.
func (c *Client) GetSession() *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// SignInWithPassword exchanges credentials for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	q := url.Values{"grant_type": {"password"}}
	body := map[string]string{"email": email, "password": password}

	var s Session
	if err := c.doJSON(ctx, http.MethodPost, "/auth/v1/token", q, nil, body, &s); err != nil {
		return nil, err
	}
	c.setSession(&s)
	log.Info().Str("module", "store.auth").Str("email", email).Msg("signed in")
	return &s, nil
}

// SignUp registers a new account and mirrors it into the users table, the way
// the profile row has always been created on registration.
func (c *Client) SignUp(ctx context.Context, email, password, fullName string) (*Session, error) {
	body := map[string]any{
		"email":    email,
		"password": password,
		"data":     map[string]string{"full_name": fullName},
	}

	var s Session
	if err := c.doJSON(ctx, http.MethodPost, "/auth/v1/signup", nil, nil, body, &s); err != nil {
		return nil, err
	}
	c.setSession(&s)

	if s.User != nil {
		profile := map[string]any{
			"id":        s.User.ID,
			"email":     email,
			"full_name": fullName,
		}
		if err := c.From("users").Insert(ctx, profile, nil); err != nil {
			c.setSession(nil)
			return nil, err
		}
	}
	log.Info().Str("module", "store.auth").Str("email", email).Msg("signed up")
	return &s, nil
}

// SignOut revokes the session upstream and forgets it locally. Local state is
// cleared even when the revoke call fails.
func (c *Client) SignOut(ctx context.Context) error {
	err := c.doJSON(ctx, http.MethodPost, "/auth/v1/logout", nil, nil, nil, nil)
	c.setSession(nil)
	return err
}

// GetUser fetches the authenticated user from the auth endpoint.
func (c *Client) GetUser(ctx context.Context) (*domain.User, error) {
	var u domain.User
	if err := c.doJSON(ctx, http.MethodGet, "/auth/v1/user", nil, nil, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// OAuthURL builds the redirect URL for a provider flow. The browser follows
// it; the session lands on the callback route.
func (c *Client) OAuthURL(provider, redirectTo string) string {
	q := url.Values{"provider": {provider}}
	if redirectTo != "" {
		q.Set("redirect_to", redirectTo)
	}
	return c.baseURL + "/auth/v1/authorize?" + q.Encode()
}

// ResetPassword sends the recovery email.
func (c *Client) ResetPassword(ctx context.Context, email, redirectTo string) error {
	q := url.Values{}
	if redirectTo != "" {
		q.Set("redirect_to", redirectTo)
	}
	body := map[string]string{"email": email}
	return c.doJSON(ctx, http.MethodPost, "/auth/v1/recover", q, nil, body, nil)
}

// UpdatePassword changes the signed-in user's password.
func (c *Client) UpdatePassword(ctx context.Context, newPassword string) error {
	body := map[string]string{"password": newPassword}
	return c.doJSON(ctx, http.MethodPut, "/auth/v1/user", nil, nil, body, nil)
}
