// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "default", cfg.API.Profile)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.True(t, cfg.History.Enabled)
}

func TestLoadFromPath_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default().API, cfg.API)
}

func TestSaveTo_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.API.Profile = "legacy"
	cfg.API.RateLimit = 2.5
	cfg.Output.Format = "yaml"
	cfg.History.Keep = 50
	require.NoError(t, SaveTo(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	if info.Mode().Perm() != 0600 {
		t.Errorf("config permissions = %o, want 0600", info.Mode().Perm())
	}

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadFromPath_RejectsUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[api]\nprofil = \"legacy\"\n"), 0600))

	_, err := LoadFromPath(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api.profil")
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.API.Profile = "v9"
	cfg.Output.Format = "xml"
	cfg.Log.Level = "loud"

	err := cfg.Validate()
	require.Error(t, err)

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Len(t, verrs, 3)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("PTSO_PROFILE", "legacy")
	t.Setenv("PTSO_TIMEOUT", "5")
	t.Setenv("PTSO_OUTPUT", "json")
	t.Setenv("PTSO_NO_HISTORY", "true")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	assert.Equal(t, "legacy", cfg.API.Profile)
	assert.Equal(t, 5, cfg.API.TimeoutSecs)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.False(t, cfg.History.Enabled)
}

func TestGetSet_DotNotation(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Set("api.rate_limit", "3"))
	v, err := cfg.Get("api.rate_limit")
	require.NoError(t, err)
	assert.Equal(t, 3.0, v)

	require.NoError(t, cfg.Set("output.color", "false"))
	assert.False(t, cfg.Output.Color)

	_, err = cfg.Get("api.nope")
	assert.Error(t, err)
}

func TestSet_InvalidValueLeavesConfigUnchanged(t *testing.T) {
	cfg := Default()

	err := cfg.Set("output.format", "xml")
	require.Error(t, err)
	assert.Equal(t, "text", cfg.Output.Format)

	err = cfg.Set("api.timeout_secs", "soon")
	require.Error(t, err)
	assert.Equal(t, 60, cfg.API.TimeoutSecs)
}

func TestKeys(t *testing.T) {
	keys := Keys()
	assert.Contains(t, keys, "api.profile")
	assert.Contains(t, keys, "history.keep")

	cfg := Default()
	for _, k := range keys {
		_, err := cfg.Get(k)
		assert.NoError(t, err, k)
	}
}

func TestPaths_HonorPTSOHome(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PTSO_HOME", dir)

	p, err := Path()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.toml"), p)

	sp, err := StatePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "state.toml"), sp)

	hp, err := Default().HistoryPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "history.db"), hp)
}

func TestLoadFile_IgnoresEnvAndValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[output]\nformat = \"xml\"\n"), 0600))
	t.Setenv("PTSO_PROFILE", "legacy")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "xml", cfg.Output.Format, "invalid values are kept so they can be fixed")
	assert.Equal(t, "default", cfg.API.Profile, "env overrides are not applied")

	_, err = LoadFromPath(path)
	var verrs ValidationErrors
	assert.True(t, errors.As(err, &verrs))
}
