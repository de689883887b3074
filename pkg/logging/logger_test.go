// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"loud", LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLogger_WritesToOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelInfo, Service: "test", Output: &buf})

	logger.Debug("hidden")
	logger.Info("batch started", "entries", 3)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "batch started")
	assert.Contains(t, out, "entries=3")
	assert.Contains(t, out, "service=test")
}

func TestLogger_SinkSeesBoundAttrs(t *testing.T) {
	sink := NewMemorySink()
	logger := New(Config{Level: LevelWarn, Quiet: true, Sink: sink})

	child := logger.With("batch_id", "b-1")
	child.Info("below threshold")
	child.Warn("entry failed", "entry", "second")

	entries := sink.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "entry failed", entries[0].Message)
	assert.Equal(t, LevelWarn, entries[0].Level)
	assert.Equal(t, "b-1", entries[0].Attrs["batch_id"])
	assert.Equal(t, "second", entries[0].Attrs["entry"])
}

func TestLogger_FileLogging(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{Level: LevelInfo, LogDir: dir, Service: "svc", Quiet: true})
	logger.Info("to file")
	require.NoError(t, logger.Close())

	matches, err := filepath.Glob(filepath.Join(dir, "svc_*.log"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"to file"`)
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.Error("nothing happens")
	assert.NoError(t, logger.Close())
}

func TestLogger_TeesConsoleAndFile(t *testing.T) {
	var buf bytes.Buffer
	dir := t.TempDir()
	logger := New(Config{Level: LevelInfo, LogDir: dir, Service: "sansbatch", JSON: true, Output: &buf})

	logger.With("batch_id", "b-2").Warn("entry skipped", "entry", "third")
	require.NoError(t, logger.Close())

	assert.Contains(t, buf.String(), `"batch_id":"b-2"`)
	matches, err := filepath.Glob(filepath.Join(dir, "sansbatch_*.log"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"entry":"third"`)
	assert.Contains(t, string(data), `"service":"sansbatch"`)
}

func TestLogger_CloseIsIdempotent(t *testing.T) {
	logger := New(Config{Level: LevelInfo, LogDir: t.TempDir(), Quiet: true, Sink: NewMemorySink()})
	require.NoError(t, logger.Close())
	assert.NoError(t, logger.Close())
}
