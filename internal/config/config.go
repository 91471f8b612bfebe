// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/huythanhnguyen/phongthuyso-cli/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config holds the user-editable ptso settings.
// Mutable session state (base URL, token) lives in the Store, not here.
type Config struct {
	API     APIConfig     `toml:"api"`
	Output  OutputConfig  `toml:"output"`
	Log     LogConfig     `toml:"log"`
	History HistoryConfig `toml:"history"`
}

// APIConfig controls how the client talks to the backend.
type APIConfig struct {
	// Profile selects the endpoint map: "default" or "legacy".
	Profile string `toml:"profile"`
	// TimeoutSecs bounds a single non-streaming call. 0 disables the bound.
	TimeoutSecs int `toml:"timeout_secs"`
	// RateLimit is the maximum requests per second (0 = unlimited).
	RateLimit float64 `toml:"rate_limit"`
	// UserAgent is sent with every request.
	UserAgent string `toml:"user_agent"`
}

// OutputConfig controls result rendering.
type OutputConfig struct {
	// Format is "text", "json" or "yaml".
	Format string `toml:"format"`
	// Color enables ANSI styling when the output is a terminal.
	Color bool `toml:"color"`
	// RenderMarkdown renders chat answers as markdown in text mode.
	RenderMarkdown bool `toml:"render_markdown"`
}

// LogConfig controls diagnostic logging on stderr.
type LogConfig struct {
	Level string `toml:"level"`
	JSON  bool   `toml:"json"`
}

// HistoryConfig controls the local call journal.
type HistoryConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"` // empty = ~/.ptso/history.db
	Keep    int    `toml:"keep"` // rows kept after pruning
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			Profile:     "default",
			TimeoutSecs: 60,
			UserAgent:   "ptso/" + Version,
		},
		Output: OutputConfig{
			Format:         "text",
			Color:          true,
			RenderMarkdown: true,
		},
		Log: LogConfig{
			Level: "warn",
		},
		History: HistoryConfig{
			Enabled: true,
			Keep:    1000,
		},
	}
}

// Version is the client version reported in the User-Agent. Set at build time.
var Version = "0.1.0"

// Timeout returns the per-call timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSecs) * time.Second
}

// =============================================================================
// PATHS
// =============================================================================

// Dir returns the ptso directory (~/.ptso), honoring PTSO_HOME.
func Dir() (string, error) {
	if dir := os.Getenv("PTSO_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".ptso"), nil
}

// Path returns the settings file path.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// StatePath returns the state store path.
func StatePath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "state.toml"), nil
}

// HistoryPath returns the history database path configured in c,
// falling back to ~/.ptso/history.db.
func (c *Config) HistoryPath() (string, error) {
	if c.History.Path != "" {
		return c.History.Path, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load reads the default settings file. A missing file yields defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath reads settings from path, fills defaults, applies env
// overrides and validates. A missing file is not an error.
func LoadFromPath(path string) (*Config, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFile reads only what is written in path, on top of defaults. No env
// overrides, no validation; this is what "ptso config set" edits.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("unknown config key %q in %s", undecoded[0].String(), path)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	cfg.SetDefaults()
	return cfg, nil
}

// Save writes cfg to the default settings file.
func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	return SaveTo(cfg, path)
}

// SaveTo writes cfg to path atomically with 0600 permissions.
func SaveTo(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# ptso configuration file\n")
	buf.WriteString("# Session state (API URL, token) is kept in state.toml.\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SetDefaults fills zero-value fields that have no meaningful zero.
func (c *Config) SetDefaults() {
	d := Default()
	if c.API.Profile == "" {
		c.API.Profile = d.API.Profile
	}
	if c.API.UserAgent == "" {
		c.API.UserAgent = d.API.UserAgent
	}
	if c.Output.Format == "" {
		c.Output.Format = d.Output.Format
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.History.Keep == 0 {
		c.History.Keep = d.History.Keep
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError is a single invalid setting.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every invalid setting found by Validate.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	var errs ValidationErrors

	switch c.API.Profile {
	case "default", "legacy":
	default:
		errs = append(errs, ValidationError{
			Field:   "api.profile",
			Message: fmt.Sprintf("invalid profile '%s', must be one of: default, legacy", c.API.Profile),
		})
	}
	if c.API.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{Field: "api.timeout_secs", Message: "must be non-negative"})
	}
	if c.API.RateLimit < 0 {
		errs = append(errs, ValidationError{Field: "api.rate_limit", Message: "must be non-negative"})
	}

	switch c.Output.Format {
	case "text", "json", "yaml":
	default:
		errs = append(errs, ValidationError{
			Field:   "output.format",
			Message: fmt.Sprintf("invalid format '%s', must be one of: text, json, yaml", c.Output.Format),
		})
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		})
	}

	if c.History.Keep < 0 {
		errs = append(errs, ValidationError{Field: "history.keep", Message: "must be non-negative"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies PTSO_* environment variables:
//   - PTSO_PROFILE: api.profile
//   - PTSO_TIMEOUT: api.timeout_secs
//   - PTSO_OUTPUT: output.format
//   - PTSO_LOG_LEVEL: log.level
//   - PTSO_NO_HISTORY: disables history when "1" or "true"
//
// PTSO_API_URL is handled by the state store, not here.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("PTSO_PROFILE"); v != "" {
		c.API.Profile = v
	}
	if v := os.Getenv("PTSO_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			c.API.TimeoutSecs = secs
		}
	}
	if v := os.Getenv("PTSO_OUTPUT"); v != "" {
		c.Output.Format = v
	}
	if v := os.Getenv("PTSO_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("PTSO_NO_HISTORY"); v == "1" || strings.EqualFold(v, "true") {
		c.History.Enabled = false
	}
}

// =============================================================================
// GET/SET (DOT NOTATION)
// =============================================================================

// Get returns the value at a dotted key such as "output.format".
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set parses value into the field at a dotted key and revalidates.
// The config is left unchanged when the new value is invalid.
func (c *Config) Set(key, value string) error {
	next := *c
	field, err := next.lookup(key)
	if err != nil {
		return err
	}
	if err := setFieldValue(field, value); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// Keys returns every settable key in dot notation.
func Keys() []string {
	var keys []string
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		section := t.Field(i)
		for j := 0; j < section.Type.NumField(); j++ {
			keys = append(keys, section.Tag.Get("toml")+"."+section.Type.Field(j).Tag.Get("toml"))
		}
	}
	return keys
}

// lookup resolves a dotted key to an addressable field by its toml tag.
func (c *Config) lookup(key string) (reflect.Value, error) {
	parts := strings.Split(key, ".")
	if len(parts) != 2 {
		return reflect.Value{}, fmt.Errorf("invalid key %q, expected section.name", key)
	}

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		found := false
		for j := 0; j < v.NumField(); j++ {
			if v.Type().Field(j).Tag.Get("toml") == part {
				v = v.Field(j)
				found = true
				break
			}
		}
		if !found {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
	}
	return v, nil
}

func setFieldValue(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value %q", value)
		}
		field.SetInt(int64(n))
	case reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid number value %q", value)
		}
		field.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean value %q", value)
		}
		field.SetBool(b)
	default:
		return fmt.Errorf("unsupported field type %s", field.Type())
	}
	return nil
}
