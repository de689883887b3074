// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/sansreduction/pkg/validation"
)

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sansbatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  path: /data/sans
batch:
  output_mode: Both
  slots: true
server:
  address: 127.0.0.1:9000
  read_timeout: 5s
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/sans", cfg.Store.Path)
	assert.Equal(t, "Both", cfg.Batch.OutputMode)
	assert.True(t, cfg.Batch.Slots)
	assert.True(t, cfg.Batch.UseOptimizations, "unset keys keep their defaults")
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Address)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sansbatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("stor:\n  path: x\n"), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "parse config")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvStorePath, "/env/store")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvIPFDir, "/env/ipf")
	t.Setenv(EnvOutputMode, "SaveToFile")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "/env/store", cfg.Store.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/env/ipf", cfg.Instruments.IPFDir)
	assert.Equal(t, "SaveToFile", cfg.Batch.OutputMode)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Batch.OutputMode = "Everywhere"
	cfg.Logging.Level = "loud"
	cfg.Telemetry.Enabled = true
	cfg.Telemetry.Exporter = "otlp"
	cfg.Telemetry.SampleRate = 2

	err := cfg.Validate()
	require.ErrorIs(t, err, validation.ErrValidation)
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	for _, f := range []string{"batch.output_mode", "logging.level", "telemetry.otlp_endpoint", "telemetry.sample_rate"} {
		assert.True(t, verr.Has(f), "missing %s in %v", f, verr.Fields())
	}
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sansbatch.yaml")
	cfg := DefaultConfig()
	cfg.Instruments.IPFDir = "/ipf"

	require.NoError(t, cfg.Save(path))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}
