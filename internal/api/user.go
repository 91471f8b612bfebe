// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/huythanhnguyen/phongthuyso-cli/internal/config"
)

// RegisterRequest is the body of a sign-up.
type RegisterRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phoneNumber"`
}

// UserUpdate holds the profile fields to change. Empty fields are left alone.
type UserUpdate struct {
	FullName string
	Email    string
	Password string
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, r RegisterRequest) (*Response, error) {
	if r.Name == "" || r.Email == "" || r.Password == "" {
		return nil, invalidInput("name, email and password are required")
	}
	return c.Do(ctx, Request{
		Method:   http.MethodPost,
		Endpoint: c.endpoints.Register,
		Body:     JSON(r),
	})
}

// Login exchanges credentials for a bearer token and stores it. The
// credentials go as a multipart form, the layout OAuth2 password flows expect.
func (c *Client) Login(ctx context.Context, email, password string) (*Response, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, invalidInput("email and password are required")
	}

	resp, err := c.Do(ctx, Request{
		Method:   http.MethodPost,
		Endpoint: c.endpoints.Token,
		Body:     NewForm().Field("username", email).Field("password", password),
	})
	if err != nil {
		return nil, err
	}

	token := resp.StringField("access_token")
	if token == "" {
		return nil, fmt.Errorf("%w: response has no access_token", ErrAuth)
	}
	if err := c.store.Set(config.KeyAccessToken, token); err != nil {
		return nil, fmt.Errorf("failed to save access token: %w", err)
	}
	c.log.Info("logged in")
	return resp, nil
}

// Logout forgets the stored token. No request is sent.
func (c *Client) Logout() error {
	if err := c.store.Delete(config.KeyAccessToken); err != nil {
		return fmt.Errorf("failed to clear access token: %w", err)
	}
	c.log.Info("logged out")
	return nil
}

// Me returns the logged-in user's profile.
func (c *Client) Me(ctx context.Context) (*Response, error) {
	return c.Do(ctx, Request{
		Method:   http.MethodGet,
		Endpoint: c.endpoints.Me,
		Auth:     AuthRequired,
	})
}

// UpdateMe changes the logged-in user's profile.
func (c *Client) UpdateMe(ctx context.Context, u UserUpdate) (*Response, error) {
	body := map[string]string{}
	if u.FullName != "" {
		body[c.endpoints.FullNameField] = u.FullName
	}
	if u.Email != "" {
		body["email"] = u.Email
	}
	if u.Password != "" {
		body["password"] = u.Password
	}
	if len(body) == 0 {
		return nil, invalidInput("nothing to update")
	}

	c.log.Debug("updating profile", zap.Int("fields", len(body)))
	return c.Do(ctx, Request{
		Method:   http.MethodPut,
		Endpoint: c.endpoints.Me,
		Body:     JSON(body),
		Auth:     AuthRequired,
	})
}
