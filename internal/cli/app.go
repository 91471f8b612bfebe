// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// app.go - Process-wide state shared by every command: settings, logger,
// state store, history journal, API client and printer.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/huythanhnguyen/phongthuyso-cli/internal/api"
	"github.com/huythanhnguyen/phongthuyso-cli/internal/config"
	"github.com/huythanhnguyen/phongthuyso-cli/internal/display"
	"github.com/huythanhnguyen/phongthuyso-cli/internal/history"
	"github.com/huythanhnguyen/phongthuyso-cli/internal/logging"
	"github.com/huythanhnguyen/phongthuyso-cli/internal/ui"
)

// annotationLocal marks commands that only touch local files and must keep
// working when the settings file is broken.
const annotationLocal = "ptso/local"

// globalFlags are the persistent flags of the root command.
type globalFlags struct {
	configPath string
	output     string
	profile    string
	apiURL     string
	verbose    bool
	noColor    bool
	logJSON    bool
	ephemeral  bool
}

// App carries the resources commands work with. Long-lived resources are
// opened once by setup; the client and printer are rebuilt for every
// command line so per-line flags in the shell take effect.
type App struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	// httpClient replaces the default transport when non-nil.
	httpClient *http.Client

	flags globalFlags

	ready     bool
	cfg       *config.Config
	cfgPath   string
	log       *zap.Logger
	store     config.Store
	fileStore *config.FileStore
	journal   *history.Journal

	client  *api.Client
	printer *display.Printer

	inShell bool
}

// NewApp returns an App reading from in and writing to out and errOut.
func NewApp(in io.Reader, out, errOut io.Writer) *App {
	return &App{
		in:      in,
		out:     out,
		errOut:  errOut,
		log:     zap.NewNop(),
		printer: display.NewPrinter(out, errOut, display.Options{Format: display.FormatText}),
	}
}

// Close releases everything setup opened.
func (a *App) Close() error {
	var errs []error
	if a.client != nil {
		a.client.CloseStream()
	}
	if a.journal != nil {
		errs = append(errs, a.journal.Close())
		a.journal = nil
	}
	_ = a.log.Sync()
	return errors.Join(errs...)
}

// =============================================================================
// SETUP
// =============================================================================

// preRun is the root PersistentPreRunE.
func (a *App) preRun(cmd *cobra.Command, _ []string) error {
	if cmd.Annotations[annotationLocal] == "true" {
		return a.setupPrinter(config.Default())
	}
	return a.setup()
}

// setup opens long-lived resources on first use, then builds the printer
// and client from the current flags.
func (a *App) setup() error {
	if !a.ready {
		if err := a.open(); err != nil {
			return err
		}
		a.ready = true
	}
	if err := a.setupPrinter(a.cfg); err != nil {
		return err
	}
	return a.setupClient()
}

func (a *App) open() error {
	path, err := a.configFile()
	if err != nil {
		return err
	}
	cfg, err := config.LoadFromPath(path)
	if err != nil {
		var verrs config.ValidationErrors
		if errors.As(err, &verrs) {
			return err
		}
		return fmt.Errorf("%w: %w", api.ErrInvalidConfig, err)
	}
	a.cfg, a.cfgPath = cfg, path

	log, err := logging.New(logging.Options{
		Level:   cfg.Log.Level,
		JSON:    cfg.Log.JSON || a.flags.logJSON,
		Verbose: a.flags.verbose,
		Out:     a.errOut,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", api.ErrInvalidConfig, err)
	}
	a.log = log

	if a.flags.ephemeral {
		a.store = config.NewMemoryStore()
	} else {
		statePath, err := config.StatePath()
		if err != nil {
			return err
		}
		fs, err := config.OpenFileStore(statePath, log)
		if err != nil {
			return err
		}
		a.store, a.fileStore = fs, fs
	}

	if cfg.History.Enabled && !a.flags.ephemeral {
		a.journal = a.openJournal(cfg)
	}

	log.Debug("setup complete",
		zap.String("config", path),
		zap.String("profile", cfg.API.Profile),
		zap.Bool("history", a.journal != nil))
	return nil
}

// openJournal returns nil when the journal cannot be opened; history is
// optional and must not block API calls.
func (a *App) openJournal(cfg *config.Config) *history.Journal {
	path, err := cfg.HistoryPath()
	if err != nil {
		a.log.Warn("history disabled", zap.Error(err))
		return nil
	}
	j, err := history.Open(path, cfg.History.Keep)
	if err != nil {
		a.log.Warn("history disabled", zap.String("path", path), zap.Error(err))
		return nil
	}
	return j
}

func (a *App) configFile() (string, error) {
	if a.flags.configPath != "" {
		return a.flags.configPath, nil
	}
	return config.Path()
}

func (a *App) setupPrinter(cfg *config.Config) error {
	format := cfg.Output.Format
	if a.flags.output != "" {
		format = a.flags.output
	}
	f, err := display.ParseFormat(format)
	if err != nil {
		return &usageError{err: err}
	}
	a.printer = display.NewPrinter(a.out, a.errOut, display.Options{
		Format:   f,
		Color:    cfg.Output.Color && !a.flags.noColor,
		Markdown: cfg.Output.RenderMarkdown,
	})
	return nil
}

func (a *App) setupClient() error {
	profile := a.cfg.API.Profile
	if a.flags.profile != "" {
		profile = a.flags.profile
	}
	endpoints, err := api.EndpointsFor(profile)
	if err != nil {
		return err
	}

	opts := []api.Option{
		api.WithLogger(a.log),
		api.WithEndpoints(endpoints),
		api.WithUserAgent(a.cfg.API.UserAgent),
		api.WithRateLimit(a.cfg.API.RateLimit),
	}
	if a.httpClient != nil {
		opts = append(opts, api.WithHTTPClient(a.httpClient))
	}
	if a.cfg.API.TimeoutSecs > 0 {
		opts = append(opts, api.WithTimeout(a.cfg.Timeout()))
	}
	if a.journal != nil {
		opts = append(opts, api.WithRecorder(a.journal))
	}
	if u := a.baseURLOverride(); u != "" {
		opts = append(opts, api.WithBaseURL(u))
	}

	if a.client != nil {
		a.client.CloseStream()
	}
	client, err := api.NewChecked(a.store, opts...)
	if err != nil {
		return err
	}
	a.client = client
	return nil
}

func (a *App) baseURLOverride() string {
	if a.flags.apiURL != "" {
		return a.flags.apiURL
	}
	return strings.TrimSpace(os.Getenv("PTSO_API_URL"))
}

// =============================================================================
// COMMAND HELPERS
// =============================================================================

// spinner reports whether a spinner may be drawn on errOut.
func (a *App) spinner() bool {
	return display.IsTerminal(a.errOut) && !a.flags.verbose
}

// call runs fn under a spinner.
func (a *App) call(ctx context.Context, message string, fn func(context.Context) (*api.Response, error)) (*api.Response, error) {
	return ui.Run(ctx, a.errOut, a.spinner(), message, fn)
}

// show prints a reply. Empty bodies become a short success line.
func (a *App) show(resp *api.Response) error {
	if resp.Data == nil && strings.TrimSpace(resp.Text()) == "" {
		return a.printer.Success(fmt.Sprintf("Done (HTTP %d)", resp.Status))
	}
	return a.printer.Print(resp.Value())
}

// run returns a RunE that performs one call and shows its reply.
func (a *App) run(message string, fn func(ctx context.Context, args []string) (*api.Response, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		resp, err := a.call(cmd.Context(), message, func(ctx context.Context) (*api.Response, error) {
			return fn(ctx, args)
		})
		if err != nil {
			return err
		}
		return a.show(resp)
	}
}
