// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/huythanhnguyen/phongthuyso-cli/internal/api"
	"github.com/huythanhnguyen/phongthuyso-cli/internal/util"
)

var apiKeyColumns = []column{
	{header: "ID", field: "id"},
	{header: "NAME", field: "name"},
	{header: "KEY", field: "key", format: masked},
	{header: "ACTIVE", field: "is_active"},
	{header: "CREATED", field: "created_at"},
	{header: "LAST USED", field: "last_used_at"},
}

func (a *App) newAPIKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "apikey",
		Aliases: []string{"apikeys"},
		Short:   "Manage API keys (login required)",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "create <name>",
			Short: "Create a key; the full key is shown only once",
			Args:  exactArgs(1),
			RunE: a.run("Creating API key", func(ctx context.Context, args []string) (*api.Response, error) {
				return a.client.CreateAPIKey(ctx, util.NormalizeInput(args[0]))
			}),
		},
		&cobra.Command{
			Use:   "list",
			Short: "List your keys",
			Args:  noArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				resp, err := a.call(cmd.Context(), "Fetching API keys", a.client.ListAPIKeys)
				if err != nil {
					return err
				}
				return a.showList(resp, apiKeyColumns)
			},
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a key",
			Args:  exactArgs(1),
			RunE: a.run("Deleting API key", func(ctx context.Context, args []string) (*api.Response, error) {
				return a.client.DeleteAPIKey(ctx, args[0])
			}),
		},
	)
	return cmd
}
