// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"net/http"
	"strings"
)

// ChatRequest is the body of a one-shot chat message.
type ChatRequest struct {
	Message string         `json:"message"`
	Context map[string]any `json:"context"`
}

// Chat sends one message and returns the agent's complete reply.
func (c *Client) Chat(ctx context.Context, message string, chatContext map[string]any) (*Response, error) {
	if strings.TrimSpace(message) == "" {
		return nil, invalidInput("message is required")
	}
	if chatContext == nil {
		chatContext = map[string]any{}
	}
	return c.Do(ctx, Request{
		Method:   http.MethodPost,
		Endpoint: c.endpoints.Chat,
		Body:     JSON(ChatRequest{Message: message, Context: chatContext}),
		Auth:     AuthOptional,
	})
}
