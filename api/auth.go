package api

import (
	"context"
	"fmt"
)

// User is the authenticated account.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// CheckAuth validates the current session. The bearer token returned by
// the backend replaces the stored one.
func (c *Client) CheckAuth(ctx context.Context) (User, error) {
	var resp struct {
		User        User   `json:"user"`
		BearerToken string `json:"bearerToken"`
	}
	if err := c.getJSON(ctx, "/api/auth/protected", &resp); err != nil {
		return User{}, err
	}
	if resp.BearerToken != "" && resp.BearerToken != c.Token() {
		if err := c.SetToken(resp.BearerToken); err != nil {
			return User{}, err
		}
	}
	return resp.User, nil
}

// Login authenticates and stores the issued token.
func (c *Client) Login(ctx context.Context, email, password string) (User, error) {
	req := map[string]string{"email": email, "password": password}
	var resp struct {
		Token string `json:"token"`
		User  User   `json:"user"`
	}
	if err := c.postJSON(ctx, "/api/auth/login", req, &resp); err != nil {
		return User{}, fmt.Errorf("login: %w", err)
	}
	if resp.Token != "" {
		if err := c.SetToken(resp.Token); err != nil {
			return User{}, err
		}
	}
	return resp.User, nil
}

// Logout ends the session on the backend and forgets the token locally
// even if the request fails.
func (c *Client) Logout(ctx context.Context) error {
	reqErr := c.getJSON(ctx, "/api/auth/logout", nil)
	if err := c.SetToken(""); err != nil {
		return err
	}
	if reqErr != nil {
		return fmt.Errorf("logout: %w", reqErr)
	}
	return nil
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, name, email, password string) error {
	req := map[string]string{"name": name, "email": email, "password": password}
	if err := c.postJSON(ctx, "/api/auth/register", req, nil); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	return nil
}
