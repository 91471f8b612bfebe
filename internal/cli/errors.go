// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/huythanhnguyen/phongthuyso-cli/internal/api"
	"github.com/huythanhnguyen/phongthuyso-cli/internal/config"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error, including API errors
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates a bad settings file, flag or base URL
	ExitConfigError = 3
	// ExitAuthError indicates a missing token or a rejected login
	ExitAuthError = 4
	// ExitNetworkError indicates the backend could not be reached, or a
	// stream broke
	ExitNetworkError = 5
	// ExitNotFoundError indicates the backend answered 404
	ExitNotFoundError = 7
)

// usageError marks a command line that could not be parsed.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

// ExitCode maps err to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var (
		usage  *usageError
		apiErr *api.APIError
		verrs  config.ValidationErrors
	)
	switch {
	case errors.As(err, &usage), errors.Is(err, api.ErrInvalidInput):
		return ExitUsageError
	case errors.Is(err, api.ErrInvalidConfig), errors.As(err, &verrs):
		return ExitConfigError
	case errors.Is(err, api.ErrUnauthenticated), errors.Is(err, api.ErrAuth):
		return ExitAuthError
	case errors.Is(err, api.ErrNetwork), errors.Is(err, api.ErrStream):
		return ExitNetworkError
	case errors.As(err, &apiErr):
		if apiErr.Status == http.StatusNotFound {
			return ExitNotFoundError
		}
		if apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden {
			return ExitAuthError
		}
		return ExitGeneralError
	default:
		return ExitGeneralError
	}
}

// =============================================================================
// ARGUMENT VALIDATORS
// =============================================================================

// exactArgs is cobra.ExactArgs with errors that map to ExitUsageError.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return usagef("%s expects %d argument(s), got %d", cmd.CommandPath(), n, len(args))
		}
		return nil
	}
}

// noArgs is cobra.NoArgs with errors that map to ExitUsageError.
func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return usagef("%s takes no arguments, got %q", cmd.CommandPath(), args[0])
	}
	return nil
}

// rangeArgs accepts between minN and maxN arguments.
func rangeArgs(minN, maxN int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) < minN || len(args) > maxN {
			return usagef("%s expects %d to %d argument(s), got %d", cmd.CommandPath(), minN, maxN, len(args))
		}
		return nil
	}
}

// minArgs is cobra.MinimumNArgs with errors that map to ExitUsageError.
func minArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) < n {
			return usagef("%s expects at least %d argument(s), got %d", cmd.CommandPath(), n, len(args))
		}
		return nil
	}
}
