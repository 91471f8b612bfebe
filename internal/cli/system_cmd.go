// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/huythanhnguyen/phongthuyso-cli/internal/api"
)

func (a *App) newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the backend is up",
		Args:  noArgs,
		RunE: a.run("Checking health", func(ctx context.Context, _ []string) (*api.Response, error) {
			return a.client.Health(ctx)
		}),
	}
}

func (a *App) newAgentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "agents",
		Short: "List the backend's agents",
		Args:  noArgs,
		RunE: a.run("Fetching agents", func(ctx context.Context, _ []string) (*api.Response, error) {
			return a.client.Agents(ctx)
		}),
	}
}

// status asks for health and agents in parallel and prints one summary.
func (a *App) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show API URL, login state, health and agents",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var health, agents *api.Response

			_, err := a.call(cmd.Context(), "Checking status", func(ctx context.Context) (*api.Response, error) {
				g, gctx := errgroup.WithContext(ctx)
				g.Go(func() error {
					var err error
					health, err = a.client.Health(gctx)
					return err
				})
				g.Go(func() error {
					var err error
					agents, err = a.client.Agents(gctx)
					return err
				})
				return nil, g.Wait()
			})
			if err != nil {
				return err
			}

			return a.printer.Print(map[string]any{
				"api_url":   a.client.BaseURL(),
				"logged_in": a.client.IsAuthenticated(),
				"health":    health.Value(),
				"agents":    agents.Value(),
			})
		},
	}
}
