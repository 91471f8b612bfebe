// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
)

// ParseJSONObject parses s as a JSON object. An empty or blank s yields an
// empty map. Anything else that is not an object is ErrInvalidInput.
func ParseJSONObject(s string) (map[string]any, error) {
	if strings.TrimSpace(s) == "" {
		return map[string]any{}, nil
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil || obj == nil {
		return nil, invalidInput("expected a JSON object, got %q", s)
	}
	return obj, nil
}

// AnalyzeNumber runs the quick analysis of a phone number.
// userData is sent as the JSON-encoded user_data parameter when non-empty.
func (c *Client) AnalyzeNumber(ctx context.Context, number string, userData map[string]any) (*Response, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, invalidInput("phone number is required")
	}

	q := url.Values{"number": {number}}
	if len(userData) > 0 {
		encoded, err := json.Marshal(userData)
		if err != nil {
			return nil, invalidInput("user data: %v", err)
		}
		q.Set("user_data", string(encoded))
	}

	return c.Do(ctx, Request{
		Method:   http.MethodGet,
		Endpoint: c.endpoints.AnalyzeNumber,
		Query:    q,
		Auth:     AuthOptional,
	})
}

// PhoneAnalysisRequest is the body of a full analysis.
type PhoneAnalysisRequest struct {
	PhoneNumber string         `json:"phone_number"`
	RequestType string         `json:"request_type"`
	UserData    map[string]any `json:"user_data"`
}

// AnalyzePhone runs the full Bat Cuc Linh So analysis of a phone number.
func (c *Client) AnalyzePhone(ctx context.Context, number string, userData map[string]any) (*Response, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, invalidInput("phone number is required")
	}
	if userData == nil {
		userData = map[string]any{}
	}

	return c.Do(ctx, Request{
		Method:   http.MethodPost,
		Endpoint: c.endpoints.AnalyzePhone,
		Body: JSON(PhoneAnalysisRequest{
			PhoneNumber: number,
			RequestType: "analysis",
			UserData:    userData,
		}),
		Auth: AuthOptional,
	})
}

// PhoneHistory lists the caller's past analyses.
func (c *Client) PhoneHistory(ctx context.Context) (*Response, error) {
	return c.Do(ctx, Request{
		Method:   http.MethodGet,
		Endpoint: c.endpoints.PhoneHistory,
		Auth:     AuthRequired,
	})
}

// PhoneDetail fetches the stored analysis of one number.
func (c *Client) PhoneDetail(ctx context.Context, number string) (*Response, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, invalidInput("phone number is required")
	}
	return c.Do(ctx, Request{
		Method:   http.MethodGet,
		Endpoint: expand(c.endpoints.PhoneDetail, number),
		Auth:     AuthRequired,
	})
}
