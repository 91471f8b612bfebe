// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/huythanhnguyen/phongthuyso-cli/internal/api"
	"github.com/huythanhnguyen/phongthuyso-cli/internal/util"
)

func (a *App) newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "analyze",
		Aliases: []string{"an"},
		Short:   "Phone number analysis",
	}
	cmd.AddCommand(
		a.newAnalyzeNumberCmd(),
		a.newAnalyzePhoneCmd(),
		a.newAnalyzeHistoryCmd(),
		a.newAnalyzeDetailCmd(),
	)
	return cmd
}

func (a *App) newAnalyzeNumberCmd() *cobra.Command {
	var userData string
	cmd := &cobra.Command{
		Use:   "number <number>",
		Short: "Quick analysis through the root agent",
		Args:  exactArgs(1),
		RunE: a.run("Analyzing", func(ctx context.Context, args []string) (*api.Response, error) {
			data, err := api.ParseJSONObject(userData)
			if err != nil {
				return nil, err
			}
			return a.client.AnalyzeNumber(ctx, util.NormalizeInput(args[0]), data)
		}),
	}
	cmd.Flags().StringVar(&userData, "user-data", "", `extra context as a JSON object, e.g. '{"birth_year":1990}'`)
	return cmd
}

func (a *App) newAnalyzePhoneCmd() *cobra.Command {
	var userData string
	cmd := &cobra.Command{
		Use:   "phone <number>",
		Short: "Full Bat Cuc Linh So analysis",
		Args:  exactArgs(1),
		RunE: a.run("Analyzing", func(ctx context.Context, args []string) (*api.Response, error) {
			data, err := api.ParseJSONObject(userData)
			if err != nil {
				return nil, err
			}
			return a.client.AnalyzePhone(ctx, util.NormalizeInput(args[0]), data)
		}),
	}
	cmd.Flags().StringVar(&userData, "user-data", "", "extra context as a JSON object")
	return cmd
}

func (a *App) newAnalyzeHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List your past analyses (login required)",
		Args:  noArgs,
		RunE: a.run("Fetching analyses", func(ctx context.Context, _ []string) (*api.Response, error) {
			return a.client.PhoneHistory(ctx)
		}),
	}
}

func (a *App) newAnalyzeDetailCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detail <number>",
		Short: "Show a stored analysis (login required)",
		Args:  exactArgs(1),
		RunE: a.run("Fetching analysis", func(ctx context.Context, args []string) (*api.Response, error) {
			return a.client.PhoneDetail(ctx, util.NormalizeInput(args[0]))
		}),
	}
}
