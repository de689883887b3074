// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package batch

import (
	"context"
	"time"

	"github.com/AleutianAI/sansreduction/services/reduction/enums"
	"github.com/AleutianAI/sansreduction/services/reduction/output"
)

// DefaultOutputMode is used when a Request leaves OutputMode empty.
const DefaultOutputMode = "PublishToADS"

// Request is the public batch entry point.
type Request struct {
	States *Entries `json:"states"`

	// UseOptimizations defaults to true when nil.
	UseOptimizations *bool `json:"use_optimizations,omitempty"`

	// OutputMode is PublishToADS, SaveToFile or Both.
	OutputMode string `json:"output_mode,omitempty"`
}

// Optimizations resolves the UseOptimizations default.
func (r Request) Optimizations() bool {
	return r.UseOptimizations == nil || *r.UseOptimizations
}

// Flags resolves the output mode default and expands it.
func (r Request) Flags() ([]enums.OutputFlag, error) {
	mode := r.OutputMode
	if mode == "" {
		mode = DefaultOutputMode
	}
	return enums.GetOutputModes(mode)
}

// Summary describes one batch run.
type Summary struct {
	BatchID   string   `json:"batch_id"`
	Entries   int      `json:"entries"`
	Completed []string `json:"completed"`
	// FailedKey is the entry that aborted the run, empty otherwise.
	FailedKey      string                   `json:"failed_key,omitempty"`
	Duration       time.Duration            `json:"duration"`
	EntryDurations map[string]time.Duration `json:"entry_durations"`
	Outputs        []output.Record          `json:"outputs"`
}

// Execute resolves the request defaults and runs the batch.
func (o *Orchestrator) Execute(ctx context.Context, req Request) (*Summary, error) {
	flags, err := req.Flags()
	if err != nil {
		return nil, err
	}
	return o.Run(ctx, req.States, req.Optimizations(), flags)
}
