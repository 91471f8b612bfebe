// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"net/http"
	"strings"
)

// CreateAPIKey issues a named API key.
func (c *Client) CreateAPIKey(ctx context.Context, name string) (*Response, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidInput("key name is required")
	}
	return c.Do(ctx, Request{
		Method:   http.MethodPost,
		Endpoint: c.endpoints.APIKeyCreate,
		Body:     JSON(map[string]string{"name": name}),
		Auth:     AuthRequired,
	})
}

// ListAPIKeys lists the caller's API keys.
func (c *Client) ListAPIKeys(ctx context.Context) (*Response, error) {
	return c.Do(ctx, Request{
		Method:   http.MethodGet,
		Endpoint: c.endpoints.APIKeyList,
		Auth:     AuthRequired,
	})
}

// DeleteAPIKey revokes a key by id.
func (c *Client) DeleteAPIKey(ctx context.Context, id string) (*Response, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, invalidInput("key id is required")
	}
	return c.Do(ctx, Request{
		Method:   http.MethodDelete,
		Endpoint: expand(c.endpoints.APIKeyDelete, id),
		Auth:     AuthRequired,
	})
}
