// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/huythanhnguyen/phongthuyso-cli/internal/api"
	"github.com/huythanhnguyen/phongthuyso-cli/internal/util"
)

func (a *App) newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Account registration, login and profile",
	}
	cmd.AddCommand(
		a.newRegisterCmd(),
		a.newLoginCmd(),
		a.newLogoutCmd(),
		a.newMeCmd(),
		a.newUpdateMeCmd(),
	)
	return cmd
}

func (a *App) newRegisterCmd() *cobra.Command {
	var (
		req           api.RegisterRequest
		passwordStdin bool
	)
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Name == "" || req.Email == "" {
				return fmt.Errorf("%w: --name and --email are required", api.ErrInvalidInput)
			}
			password, err := a.readPassword("Password: ", passwordStdin)
			if err != nil {
				return err
			}
			req.Name = util.NormalizeInput(req.Name)
			req.Email = util.NormalizeInput(req.Email)
			req.PhoneNumber = util.NormalizeInput(req.PhoneNumber)
			req.Password = password

			resp, err := a.call(cmd.Context(), "Registering", func(ctx context.Context) (*api.Response, error) {
				return a.client.Register(ctx, req)
			})
			if err != nil {
				return err
			}
			return a.show(resp)
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Name, "name", "", "display name (required)")
	f.StringVar(&req.Email, "email", "", "email address (required)")
	f.StringVar(&req.PhoneNumber, "phone", "", "phone number")
	f.BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	return cmd
}

func (a *App) newLoginCmd() *cobra.Command {
	var passwordStdin bool
	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Log in and store the access token",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email := util.NormalizeInput(args[0])
			password, err := a.readPassword("Password: ", passwordStdin)
			if err != nil {
				return err
			}

			_, err = a.call(cmd.Context(), "Logging in", func(ctx context.Context) (*api.Response, error) {
				return a.client.Login(ctx, email, password)
			})
			if err != nil {
				return err
			}
			// The reply carries the token; only confirm.
			return a.printer.Success("Logged in as " + email)
		},
	}
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	return cmd
}

func (a *App) newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored access token",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.client.IsAuthenticated() {
				return a.printer.Success("Not logged in")
			}
			if err := a.client.Logout(); err != nil {
				return err
			}
			return a.printer.Success("Logged out")
		},
	}
}

func (a *App) newMeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show your profile (login required)",
		Args:  noArgs,
		RunE: a.run("Fetching profile", func(ctx context.Context, _ []string) (*api.Response, error) {
			return a.client.Me(ctx)
		}),
	}
}

func (a *App) newUpdateMeCmd() *cobra.Command {
	var (
		update         api.UserUpdate
		changePassword bool
		passwordStdin  bool
	)
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change your name, email or password (login required)",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			update.FullName = util.NormalizeInput(update.FullName)
			update.Email = util.NormalizeInput(update.Email)
			if changePassword || passwordStdin {
				password, err := a.readPassword("New password: ", passwordStdin)
				if err != nil {
					return err
				}
				update.Password = password
			}

			resp, err := a.call(cmd.Context(), "Updating profile", func(ctx context.Context) (*api.Response, error) {
				return a.client.UpdateMe(ctx, update)
			})
			if err != nil {
				return err
			}
			if update.Password != "" {
				a.printer.Info(fmt.Sprintf("Password changed for %s", a.client.BaseURL()))
			}
			return a.show(resp)
		},
	}
	f := cmd.Flags()
	f.StringVar(&update.FullName, "name", "", "new display name")
	f.StringVar(&update.Email, "email", "", "new email address")
	f.BoolVar(&changePassword, "password", false, "prompt for a new password")
	f.BoolVar(&passwordStdin, "password-stdin", false, "read the new password from stdin")
	return cmd
}
