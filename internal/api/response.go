// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
)

// MaxResponseSize caps how much of a reply body is read.
const MaxResponseSize = 10 * 1024 * 1024

// Response is a successful (2xx) reply.
type Response struct {
	Status      int
	ContentType string
	Body        []byte

	// Data is the decoded JSON value (map, slice, string, float64, bool or
	// nil). It is nil for non-JSON replies.
	Data any
}

// IsJSON reports whether the reply was declared as JSON.
func (r *Response) IsJSON() bool {
	return isJSON(r.ContentType)
}

// Text returns the raw body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// Value returns the decoded JSON value for JSON replies and the raw text
// otherwise. This is what gets displayed.
func (r *Response) Value() any {
	if r.IsJSON() {
		return r.Data
	}
	return r.Text()
}

// Decode unmarshals a JSON reply into v.
func (r *Response) Decode(v any) error {
	if !r.IsJSON() {
		return fmt.Errorf("response is %q, not JSON", r.ContentType)
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// Field returns a top-level field of a JSON object reply.
func (r *Response) Field(name string) (any, bool) {
	obj, ok := r.Data.(map[string]any)
	if !ok {
		return nil, false
	}
	v, ok := obj[name]
	return v, ok
}

// StringField returns a top-level string field, or "" if absent or not a string.
func (r *Response) StringField(name string) string {
	v, _ := r.Field(name)
	s, _ := v.(string)
	return s
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(contentType, "application/json")
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// readResponse reads the body with a size cap.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(body) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// newResponse decodes a 2xx reply.
func newResponse(status int, contentType string, body []byte) (*Response, error) {
	r := &Response{Status: status, ContentType: contentType, Body: body}
	if r.IsJSON() && len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, &r.Data); err != nil {
			return nil, &APIError{Status: status, Message: "malformed JSON response"}
		}
	}
	return r, nil
}

// apiError builds an *APIError from a non-2xx reply, taking the message from
// "detail" (string, or FastAPI validation list) then "message".
func apiError(status int, contentType string, body []byte) *APIError {
	if msg := errorMessage(contentType, body); msg != "" {
		return &APIError{Status: status, Message: msg}
	}
	return &APIError{
		Status:  status,
		Message: fmt.Sprintf("request failed with status %d %s", status, http.StatusText(status)),
	}
}

func errorMessage(contentType string, body []byte) string {
	if !isJSON(contentType) {
		return ""
	}
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		return ""
	}

	switch detail := obj["detail"].(type) {
	case string:
		if detail != "" {
			return detail
		}
	case []any:
		var msgs []string
		for _, item := range detail {
			if m, ok := item.(map[string]any); ok {
				if s, ok := m["msg"].(string); ok {
					msgs = append(msgs, s)
				}
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}

	if msg, ok := obj["message"].(string); ok && msg != "" {
		return msg
	}
	return ""
}
