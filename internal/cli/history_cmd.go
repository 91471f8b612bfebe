// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/huythanhnguyen/phongthuyso-cli/internal/history"
)

var errHistoryDisabled = errors.New("history is disabled (history.enabled = false, --ephemeral, or the database could not be opened)")

func (a *App) newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Local journal of API calls made by this client",
	}
	cmd.AddCommand(a.newHistoryListCmd(), a.newHistoryPruneCmd(), a.newHistoryClearCmd())
	return cmd
}

func (a *App) newHistoryListCmd() *cobra.Command {
	var (
		limit      int
		failedOnly bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show recent calls, newest first",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.journal == nil {
				return errHistoryDisabled
			}
			entries, err := a.journal.List(cmd.Context(), limit)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				if failedOnly && !e.Failed() {
					continue
				}
				rows = append(rows, historyRow(e))
			}
			return a.printer.Table([]string{"ID", "TIME", "METHOD", "PATH", "STATUS", "DURATION", "ERROR"}, rows)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "entries to show (0 for all)")
	cmd.Flags().BoolVar(&failedOnly, "failed", false, "only calls that failed")
	return cmd
}

func historyRow(e history.Entry) []string {
	status := "-"
	if e.Status != 0 {
		status = strconv.Itoa(e.Status)
	}
	return []string{
		strconv.FormatInt(e.ID, 10),
		e.Time.Local().Format("2006-01-02 15:04:05"),
		e.Method,
		e.Path,
		status,
		e.Duration.Round(time.Millisecond).String(),
		e.Err,
	}
}

func (a *App) newHistoryPruneCmd() *cobra.Command {
	var keep int
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the newest entries",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.journal == nil {
				return errHistoryDisabled
			}
			if keep < 0 {
				return usagef("--keep must be non-negative")
			}
			n, err := a.journal.Prune(cmd.Context(), keep)
			if err != nil {
				return err
			}
			return a.printer.Success(fmt.Sprintf("Removed %d entries", n))
		},
	}
	cmd.Flags().IntVar(&keep, "keep", 100, "entries to keep")
	return cmd
}

func (a *App) newHistoryClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every entry",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.journal == nil {
				return errHistoryDisabled
			}
			n, err := a.journal.Clear(cmd.Context())
			if err != nil {
				return err
			}
			return a.printer.Success(fmt.Sprintf("Removed %d entries", n))
		},
	}
}
