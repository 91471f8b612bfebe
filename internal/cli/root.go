// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/huythanhnguyen/phongthuyso-cli/internal/config"
)

// Execute runs ptso with args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	app := NewApp(stdin, stdout, stderr)
	code := app.Run(ctx, args)
	if err := app.Close(); err != nil {
		app.log.Warn("cleanup failed", zap.Error(err))
	}
	return code
}

// Run executes one command line against a fresh command tree and reports
// any error on stderr. The App stays usable afterwards.
func (a *App) Run(ctx context.Context, args []string) int {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	root := a.newRootCmd()
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err != nil {
		err = classify(err)
		a.printer.Error(err)
		if ExitCode(err) == ExitUsageError {
			a.printer.Info("Run '" + root.Name() + " --help' for usage.")
		}
	}
	return ExitCode(err)
}

// classify turns cobra's own parse errors into usage errors.
func classify(err error) error {
	if strings.HasPrefix(err.Error(), "unknown command") || strings.HasPrefix(err.Error(), "unknown flag") {
		return &usageError{err: err}
	}
	return err
}

func (a *App) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ptso",
		Short: "Command-line client for the Phong Thuy So API",
		Long: `ptso talks to a Phong Thuy So backend: phone number analysis, chat
agents, accounts, API keys, payments and uploads.

The API URL and login token are kept in ~/.ptso/state.toml; settings live
in ~/.ptso/config.toml. Set PTSO_HOME to use another directory.`,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: a.preRun,
	}
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	// Defaults are the current values, so a shell line starts from the
	// flags the shell itself was started with.
	f := a.flags
	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configPath, "config", f.configPath, "settings file (default ~/.ptso/config.toml)")
	pf.StringVarP(&a.flags.output, "output", "o", f.output, "output format: text, json or yaml")
	pf.StringVar(&a.flags.profile, "profile", f.profile, "endpoint profile: default or legacy")
	pf.StringVar(&a.flags.apiURL, "api-url", f.apiURL, "API base URL for this run only (or PTSO_API_URL)")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", f.verbose, "debug logging on stderr")
	pf.BoolVar(&a.flags.noColor, "no-color", f.noColor, "disable colored output")
	pf.BoolVar(&a.flags.logJSON, "log-json", f.logJSON, "log as JSON")
	pf.BoolVar(&a.flags.ephemeral, "ephemeral", f.ephemeral, "keep URL and token in memory only, no history")

	root.AddCommand(
		a.newConfigCmd(),
		a.newHealthCmd(),
		a.newAgentsCmd(),
		a.newStatusCmd(),
		a.newAnalyzeCmd(),
		a.newChatCmd(),
		a.newUserCmd(),
		a.newAPIKeyCmd(),
		a.newPaymentCmd(),
		a.newUploadCmd(),
		a.newHistoryCmd(),
		a.newShellCmd(),
		a.newVersionCmd(),
	)
	return root
}

func (a *App) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the client version",
		Args:        noArgs,
		Annotations: map[string]string{annotationLocal: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.printer.Print(map[string]any{
				"version": config.Version,
				"go":      runtime.Version(),
				"os":      runtime.GOOS + "/" + runtime.GOARCH,
			})
		},
	}
}
