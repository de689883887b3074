// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config holds the sansbatch service configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/sansreduction/pkg/validation"
	"github.com/AleutianAI/sansreduction/services/reduction/enums"
)

// Environment variables that override file settings.
const (
	EnvStorePath  = "SANS_STORE_PATH"
	EnvLogLevel   = "SANS_LOG_LEVEL"
	EnvIPFDir     = "SANS_IPF_DIR"
	EnvOutputMode = "SANS_OUTPUT_MODE"
)

// Config is the service configuration.
type Config struct {
	Store       StoreConfig       `yaml:"store"`
	Logging     LoggingConfig     `yaml:"logging"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	Batch       BatchConfig       `yaml:"batch"`
	Server      ServerConfig      `yaml:"server"`
	Instruments InstrumentsConfig `yaml:"instruments"`
}

// StoreConfig selects where workspaces and saved files live. An empty Path
// keeps everything in memory.
type StoreConfig struct {
	Path       string        `yaml:"path"`
	SyncWrites bool          `yaml:"sync_writes"`
	GCInterval time.Duration `yaml:"gc_interval" validate:"gte=0"`
}

type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn warning error DEBUG INFO WARN WARNING ERROR"`
	Dir   string `yaml:"dir"`
	JSON  bool   `yaml:"json"`
	Quiet bool   `yaml:"quiet"`
}

type TelemetryConfig struct {
	Enabled bool `yaml:"enabled"`
	// Exporter is "stdout" or "otlp".
	Exporter     string  `yaml:"exporter" validate:"oneof=stdout otlp"`
	OTLPEndpoint string  `yaml:"otlp_endpoint"`
	SampleRate   float64 `yaml:"sample_rate" validate:"gte=0,lte=1"`
}

type BatchConfig struct {
	UseOptimizations bool   `yaml:"use_optimizations"`
	OutputMode       string `yaml:"output_mode" validate:"notblank"`
	// Slots declares OutputWorkspace<bank>_<n> slots instead of publishing
	// outputs into the store by name.
	Slots bool `yaml:"slots"`
}

type ServerConfig struct {
	Address      string        `yaml:"address" validate:"notblank"`
	ReadTimeout  time.Duration `yaml:"read_timeout" validate:"gte=0"`
	WriteTimeout time.Duration `yaml:"write_timeout" validate:"gte=0"`
}

type InstrumentsConfig struct {
	// IPFDir holds <INSTRUMENT>_Parameters.xml files.
	IPFDir string `yaml:"ipf_dir"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Store: StoreConfig{GCInterval: 10 * time.Minute},
		Logging: LoggingConfig{
			Level: "info",
		},
		Telemetry: TelemetryConfig{
			Exporter:   "stdout",
			SampleRate: 1,
		},
		Batch: BatchConfig{
			UseOptimizations: true,
			OutputMode:       "PublishToADS",
		},
		Server: ServerConfig{
			Address:      ":8095",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 10 * time.Minute,
		},
	}
}

// DefaultPath is ~/.sans/sansbatch.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "sansbatch.yaml"
	}
	return filepath.Join(home, ".sans", "sansbatch.yaml")
}

// Load reads path over the defaults, applies environment overrides and
// validates. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnvOverrides()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(EnvStorePath); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvIPFDir); v != "" {
		c.Instruments.IPFDir = v
	}
	if v := os.Getenv(EnvOutputMode); v != "" {
		c.Batch.OutputMode = v
	}
}

// Validate checks field rules and that the output mode is a known mode.
func (c *Config) Validate() error {
	r := validation.NewReport("Config")
	r.Struct(c)
	if _, err := enums.GetOutputModes(c.Batch.OutputMode); err != nil && c.Batch.OutputMode != "" {
		r.Addf("batch.output_mode", "must be PublishToADS, SaveToFile or Both, got %q", c.Batch.OutputMode)
	}
	if c.Telemetry.Enabled && c.Telemetry.Exporter == "otlp" && c.Telemetry.OTLPEndpoint == "" {
		r.Add("telemetry.otlp_endpoint", "must be set for the otlp exporter")
	}
	return r.Err()
}

// Save writes c to path, creating the directory.
func (c Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
