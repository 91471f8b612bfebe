// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"net/http"
)

// Health checks that the backend is up.
func (c *Client) Health(ctx context.Context) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Endpoint: c.endpoints.Health})
}

// Agents lists the backend's agents.
func (c *Client) Agents(ctx context.Context) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Endpoint: c.endpoints.Agents})
}
