// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPrinter_NonTerminalIsPlain(t *testing.T) {
	var buf bytes.Buffer
	assert.False(t, NewPrinter(&buf).Styled())
}

func TestPlainPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := NewPlainPrinter(&buf)

	p.Title("ignored")
	p.Success("batch valid")
	p.Warning("slow")
	p.Error("boom")
	p.Info("note")
	p.Box("Batch", "3 entries")

	assert.Equal(t, "OK: batch valid\nWARN: slow\nERROR: boom\nnote\nBatch: 3 entries\n", buf.String())
}

func TestPlainPrinter_Entries(t *testing.T) {
	var buf bytes.Buffer
	p := NewPlainPrinter(&buf)

	p.Entries([]EntryStatus{
		{Key: "one", Status: IconSuccess, Detail: "22024_LAB_1D_2.0_14.0"},
		{Key: "two", Status: IconError, Detail: "invalid", Problems: []string{"data.sample_scatter: must be set"}},
		{Key: "three", Status: IconPending},
	})
	p.Counts(1, 1, 1)

	assert.Equal(t,
		"ok\tone\t22024_LAB_1D_2.0_14.0\n"+
			"failed\ttwo\tinvalid\n"+
			"\t\tdata.sample_scatter: must be set\n"+
			"skipped\tthree\t\n"+
			"SUMMARY: ok=1 failed=1 skipped=1\n",
		buf.String())
}

func TestStyledPrinter_IncludesText(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{out: &buf, styled: true}

	p.Entries([]EntryStatus{{Key: "one", Status: IconError, Problems: []string{"scale: must be set"}}})
	p.Box("Batch", "content")

	out := buf.String()
	assert.Contains(t, out, "one")
	assert.Contains(t, out, "scale: must be set")
	assert.Contains(t, out, "content")
}
