// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig indicates a malformed base URL or endpoint profile.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidInput indicates a missing or malformed argument, detected
	// before any network call.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthenticated indicates an auth-required call without a token.
	// No request is sent.
	ErrUnauthenticated = errors.New("not logged in")

	// ErrNetwork indicates the request could not be completed at the
	// transport level (DNS, connect, reset, cancelled).
	ErrNetwork = errors.New("network error")

	// ErrAuth indicates a login reply without an access token.
	ErrAuth = errors.New("login failed")

	// ErrStream indicates the event stream failed or sent a malformed event.
	ErrStream = errors.New("stream error")

	// ErrAPI matches every *APIError via errors.Is.
	ErrAPI = errors.New("api error")
)

// APIError is a non-2xx reply from the backend.
type APIError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
}

// Is reports whether target is ErrAPI.
func (e *APIError) Is(target error) bool {
	return target == ErrAPI
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
