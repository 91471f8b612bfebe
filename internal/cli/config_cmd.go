// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/huythanhnguyen/phongthuyso-cli/internal/config"
)

func (a *App) newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings and the API URL",
	}
	cmd.AddCommand(
		a.newConfigShowCmd(),
		a.newConfigGetCmd(),
		a.newConfigSetCmd(),
		a.newConfigURLCmd(),
		a.newConfigPathCmd(),
	)
	return cmd
}

// config show prints the effective settings, env overrides included.
func (a *App) newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective settings",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([][]string, 0, len(config.Keys())+2)
			for _, key := range config.Keys() {
				v, err := a.cfg.Get(key)
				if err != nil {
					return err
				}
				rows = append(rows, []string{key, fmt.Sprint(v)})
			}
			rows = append(rows,
				[]string{"state.api_url", a.client.BaseURL()},
				[]string{"state.logged_in", fmt.Sprint(a.client.IsAuthenticated())},
			)
			return a.printer.Table([]string{"KEY", "VALUE"}, rows)
		},
	}
}

func (a *App) newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "get <key>",
		Short:       "Print one setting as written in the settings file",
		Args:        exactArgs(1),
		Annotations: map[string]string{annotationLocal: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := a.loadFile()
			if err != nil {
				return err
			}
			v, err := cfg.Get(args[0])
			if err != nil {
				return &usageError{err: err}
			}
			return a.printer.Print(v)
		},
	}
}

func (a *App) newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one setting in the settings file",
		Long: `Change one setting in the settings file. Keys use dot notation,
for example:

  ptso config set output.format json
  ptso config set api.profile legacy
  ptso config set history.enabled false`,
		Args:        exactArgs(2),
		Annotations: map[string]string{annotationLocal: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := a.loadFile()
			if err != nil {
				return err
			}
			if err := cfg.Set(args[0], args[1]); err != nil {
				return &usageError{err: err}
			}
			if err := config.SaveTo(cfg, path); err != nil {
				return err
			}
			return a.printer.Success(fmt.Sprintf("%s = %s", args[0], args[1]))
		},
	}
}

// config url prints the base URL, or validates and stores a new one.
func (a *App) newConfigURLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "url [url]",
		Short: "Show or set the API base URL",
		Args:  rangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return a.printer.Print(a.client.BaseURL())
			}
			if err := a.client.Configure(args[0]); err != nil {
				return err
			}
			msg := "API URL set to " + a.client.BaseURL()
			if a.baseURLOverride() != "" {
				stored, _ := a.store.Get(config.KeyAPIURL)
				msg = "API URL saved as " + stored + " (overridden for this run)"
			}
			return a.printer.Success(msg)
		},
	}
}

func (a *App) newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "path",
		Short:       "Print the settings, state and history file locations",
		Args:        noArgs,
		Annotations: map[string]string{annotationLocal: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, err := a.configFile()
			if err != nil {
				return err
			}
			statePath, err := config.StatePath()
			if err != nil {
				return err
			}
			historyPath := "(unavailable)"
			if cfg, _, err := a.loadFile(); err == nil {
				if p, err := cfg.HistoryPath(); err == nil {
					historyPath = p
				}
			}
			return a.printer.Print(map[string]string{
				"config":  cfgPath,
				"state":   statePath,
				"history": historyPath,
			})
		},
	}
}

// loadFile reads the settings file without env overrides or validation.
func (a *App) loadFile() (*config.Config, string, error) {
	path, err := a.configFile()
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}
