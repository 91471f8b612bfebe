// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/huythanhnguyen/phongthuyso-cli/internal/api"
)

var (
	planColumns = []column{
		{header: "ID", field: "id"},
		{header: "NAME", field: "name"},
		{header: "TYPE", field: "type"},
		{header: "PRICE", field: "price"},
		{header: "CURRENCY", field: "currency"},
		{header: "INTERVAL", field: "interval"},
	}
	paymentColumns = []column{
		{header: "ID", field: "id"},
		{header: "PLAN", field: "plan_id"},
		{header: "AMOUNT", field: "amount"},
		{header: "CURRENCY", field: "currency"},
		{header: "STATUS", field: "status"},
		{header: "CREATED", field: "created_at"},
	}
)

func (a *App) newPaymentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "payment",
		Aliases: []string{"pay"},
		Short:   "Plans, payments and subscription",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "plans",
			Short: "List subscription plans",
			Args:  noArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				resp, err := a.call(cmd.Context(), "Fetching plans", a.client.ListPlans)
				if err != nil {
					return err
				}
				return a.showList(resp, planColumns)
			},
		},
		&cobra.Command{
			Use:   "plan <id>",
			Short: "Show one plan",
			Args:  exactArgs(1),
			RunE: a.run("Fetching plan", func(ctx context.Context, args []string) (*api.Response, error) {
				return a.client.GetPlan(ctx, args[0])
			}),
		},
		a.newPaymentCreateCmd(),
		&cobra.Command{
			Use:   "history",
			Short: "List your payments (login required)",
			Args:  noArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				resp, err := a.call(cmd.Context(), "Fetching payments", a.client.PaymentHistory)
				if err != nil {
					return err
				}
				return a.showList(resp, paymentColumns)
			},
		},
		&cobra.Command{
			Use:   "subscription",
			Short: "Show your current subscription (login required)",
			Args:  noArgs,
			RunE: a.run("Fetching subscription", func(ctx context.Context, _ []string) (*api.Response, error) {
				return a.client.Subscription(ctx)
			}),
		},
	)
	return cmd
}

func (a *App) newPaymentCreateCmd() *cobra.Command {
	var (
		req    api.PaymentRequest
		amount string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Start a payment for a plan (login required)",
		Example: `  ptso payment create --plan premium --method momo --amount 199000
  ptso payment create --plan basic --method card --amount 9.99 --currency USD`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("%w: amount %q is not a number", api.ErrInvalidInput, amount)
			}
			req.Amount = d

			resp, err := a.call(cmd.Context(), "Creating payment", func(ctx context.Context) (*api.Response, error) {
				return a.client.CreatePayment(ctx, req)
			})
			if err != nil {
				return err
			}
			if err := a.show(resp); err != nil {
				return err
			}
			if u := api.PaymentURL(resp); u != "" {
				a.printer.Info("Complete the payment at " + u)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.PlanID, "plan", "", "plan id (required)")
	f.StringVar(&req.PaymentMethod, "method", "", "payment method (required)")
	f.StringVar(&amount, "amount", "", "amount, e.g. 199000 or 9.99 (required)")
	f.StringVar(&req.Currency, "currency", api.DefaultCurrency, "ISO currency code")
	return cmd
}
