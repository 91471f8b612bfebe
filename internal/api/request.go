// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
)

// AuthMode says whether a request carries the bearer token.
type AuthMode int

const (
	// AuthNone never sends the token.
	AuthNone AuthMode = iota
	// AuthOptional sends the token when one is stored.
	AuthOptional
	// AuthRequired sends the token and fails with ErrUnauthenticated,
	// before any I/O, when none is stored.
	AuthRequired
)

func (m AuthMode) String() string {
	switch m {
	case AuthOptional:
		return "optional"
	case AuthRequired:
		return "required"
	default:
		return "none"
	}
}

// Request describes one API call.
type Request struct {
	Method   string     // http.MethodGet, MethodPost, MethodPut or MethodDelete
	Endpoint string     // path relative to the base URL, e.g. "/api/user/me"
	Query    url.Values // optional query parameters
	Body     Body       // nil for no body
	Auth     AuthMode
}

// Body is a request payload. Use JSON or NewForm.
type Body interface {
	// encode returns the payload and its Content-Type.
	encode() (io.Reader, string, error)
}

// =============================================================================
// JSON BODY
// =============================================================================

type jsonBody struct {
	v any
}

// JSON returns a body that serializes v as JSON.
func JSON(v any) Body {
	return jsonBody{v: v}
}

func (b jsonBody) encode() (io.Reader, string, error) {
	data, err := json.Marshal(b.v)
	if err != nil {
		return nil, "", fmt.Errorf("%w: failed to marshal request: %v", ErrInvalidInput, err)
	}
	return bytes.NewReader(data), "application/json", nil
}

// =============================================================================
// MULTIPART FORM BODY
// =============================================================================

// Form is a multipart/form-data body. Fields and files are written in the
// order they were added.
type Form struct {
	parts []formPart
}

type formPart struct {
	name     string
	value    string
	filename string
	content  io.Reader
}

// NewForm returns an empty multipart form.
func NewForm() *Form {
	return &Form{}
}

// Field adds a text field.
func (f *Form) Field(name, value string) *Form {
	f.parts = append(f.parts, formPart{name: name, value: value})
	return f
}

// File adds a file part read from content.
func (f *Form) File(name, filename string, content io.Reader) *Form {
	f.parts = append(f.parts, formPart{name: name, filename: filename, content: content})
	return f
}

func (f *Form) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, p := range f.parts {
		if p.content == nil {
			if err := w.WriteField(p.name, p.value); err != nil {
				return nil, "", fmt.Errorf("failed to write form field %s: %w", p.name, err)
			}
			continue
		}
		part, err := w.CreateFormFile(p.name, p.filename)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create form file %s: %w", p.name, err)
		}
		if _, err := io.Copy(part, p.content); err != nil {
			return nil, "", fmt.Errorf("failed to read %s: %w", p.filename, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
