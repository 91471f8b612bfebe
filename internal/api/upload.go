// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

// UploadRequest is one file upload.
type UploadRequest struct {
	Filename string
	Content  io.Reader
	Type     string // optional
	Metadata string // optional, must be a JSON document
}

// Upload sends a file as multipart/form-data.
func (c *Client) Upload(ctx context.Context, u UploadRequest) (*Response, error) {
	if u.Content == nil || strings.TrimSpace(u.Filename) == "" {
		return nil, invalidInput("a file is required")
	}
	if u.Metadata != "" && !json.Valid([]byte(u.Metadata)) {
		return nil, invalidInput("metadata must be valid JSON")
	}

	form := NewForm().File("file", u.Filename, u.Content)
	if u.Type != "" {
		form.Field("type", u.Type)
	}
	if u.Metadata != "" {
		form.Field("metadata", u.Metadata)
	}

	return c.Do(ctx, Request{
		Method:   http.MethodPost,
		Endpoint: c.endpoints.Upload,
		Body:     form,
		Auth:     AuthOptional,
	})
}
