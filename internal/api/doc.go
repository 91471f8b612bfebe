// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api is the client facade for the Phong Thuy So backend.
//
// The Client reads its base URL and bearer token from a config.Store on
// every call, so a login or logout performed elsewhere (another process
// writing the same state file) takes effect immediately.
//
// # Key Types
//
//   - Client: builds and sends requests, injects auth, normalizes errors
//   - Request / Body: one call; JSON or multipart form body
//   - Response: parsed JSON value or raw text of a 2xx reply
//   - APIError: non-2xx reply with the server's detail/message
//   - StreamSession: the single live chat event stream
//   - Endpoints: path map for a backend profile ("default" or "legacy")
//
// # Usage
//
//	client := api.New(store, api.WithLogger(logger))
//	if _, err := client.Login(ctx, "me@example.com", "secret"); err != nil {
//	    return err
//	}
//	resp, err := client.Me(ctx)
//
// # Errors
//
// Every failure wraps one of ErrInvalidConfig, ErrInvalidInput,
// ErrUnauthenticated, ErrNetwork, ErrAuth or ErrStream, or is an *APIError.
// Nothing is retried.
package api
