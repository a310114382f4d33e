package api

import (
	"context"
	"net/http"
)

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register creates a new account and returns its access token.
func (c *Client) Register(ctx context.Context, username, email, password string) (*TokenResponse, error) {
	req := RegisterRequest{
		Username: username,
		Email:    email,
		Password: password,
	}

	var resp TokenResponse
	if err := c.Do(ctx, http.MethodPost, "/api/auth/register", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Login authenticates and returns an access token.
func (c *Client) Login(ctx context.Context, username, password string) (*TokenResponse, error) {
	req := LoginRequest{
		Username: username,
		Password: password,
	}

	var resp TokenResponse
	if err := c.Do(ctx, http.MethodPost, "/api/auth/login", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetUser retrieves the currently authenticated user
func (c *Client) GetUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.Do(ctx, http.MethodGet, "/api/user/profile", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Health reports whether the backend is up.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.Do(ctx, http.MethodGet, "/health", nil, nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}
