// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"fmt"
	"net/url"
	"strings"
)

// Endpoints maps each backend operation to its path. Paths containing
// "{id}" are expanded with a path-escaped identifier.
//
// Two backend generations exist in the wild; they differ only in the API
// key paths and the display-name field of the user update body.
type Endpoints struct {
	Health        string
	Agents        string
	AnalyzeNumber string
	AnalyzePhone  string
	PhoneHistory  string
	PhoneDetail   string
	Chat          string
	ChatStream    string

	Register string
	Token    string
	Me       string

	APIKeyCreate string
	APIKeyList   string
	APIKeyDelete string

	Plans          string
	Plan           string
	Payment        string
	PaymentHistory string
	Subscription   string

	Upload string

	// FullNameField is the JSON name of the display name in user updates.
	FullNameField string
}

// DefaultEndpoints is the current backend layout.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Health:        "/health",
		Agents:        "/agents",
		AnalyzeNumber: "/analyze_number",
		AnalyzePhone:  "/api/batcuclinh_so/analyze_phone",
		PhoneHistory:  "/api/phone-analysis/history",
		PhoneDetail:   "/api/phone-analysis/{id}",
		Chat:          "/api/chat",
		ChatStream:    "/api/chat",

		Register: "/api/user/register",
		Token:    "/api/user/token",
		Me:       "/api/user/me",

		APIKeyCreate: "/api/apikeys",
		APIKeyList:   "/api/apikeys",
		APIKeyDelete: "/api/apikeys/{id}",

		Plans:          "/api/payment/plans",
		Plan:           "/api/payment/plans/{id}",
		Payment:        "/api/payment",
		PaymentHistory: "/api/payment/history",
		Subscription:   "/api/payment/subscription",

		Upload: "/api/upload",

		FullNameField: "fullname",
	}
}

// LegacyEndpoints is the older backend layout.
func LegacyEndpoints() Endpoints {
	e := DefaultEndpoints()
	e.APIKeyCreate = "/api/apikey/create"
	e.APIKeyList = "/api/apikey/list"
	e.APIKeyDelete = "/api/apikey/{id}"
	e.FullNameField = "fullName"
	return e
}

// EndpointsFor returns the endpoint map for a profile name.
func EndpointsFor(profile string) (Endpoints, error) {
	switch strings.ToLower(profile) {
	case "", "default":
		return DefaultEndpoints(), nil
	case "legacy":
		return LegacyEndpoints(), nil
	default:
		return Endpoints{}, fmt.Errorf("%w: unknown endpoint profile %q", ErrInvalidConfig, profile)
	}
}

// expand substitutes id into a "{id}" path template.
func expand(template, id string) string {
	return strings.Replace(template, "{id}", url.PathEscape(id), 1)
}
