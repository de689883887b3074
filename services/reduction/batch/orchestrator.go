// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package batch validates and runs batches of SANS reductions.
//
// A batch is an ordered set of state trees. Every entry is decoded and
// validated before anything runs, so a single malformed entry stops the
// whole batch up front. Entries then run one at a time in batch order and
// the first failure aborts the rest. Outputs already produced are kept.
package batch

import (
	"context"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/google/uuid"

	"github.com/AleutianAI/sansreduction/pkg/logging"
	"github.com/AleutianAI/sansreduction/pkg/validation"
	"github.com/AleutianAI/sansreduction/services/reduction/enums"
	"github.com/AleutianAI/sansreduction/services/reduction/output"
	"github.com/AleutianAI/sansreduction/services/reduction/state"
)

var tracer = otel.Tracer("sansreduction.batch")

// Result is what one reduction produced.
type Result = output.Result

// Deserializer turns one state tree into a state.
type Deserializer interface {
	Deserialize(tree state.Tree) (*state.State, error)
}

// Reducer runs one reduction and registers its outputs.
type Reducer interface {
	ReduceForBatch(ctx context.Context, st *state.State, useOptimizations bool, flags []enums.OutputFlag) (*Result, error)
}

// Orchestrator runs batches against one Reducer.
//
// Thread Safety: an Orchestrator holds no per-run state, but it never
// runs entries concurrently and callers sharing a store should serialise
// runs.
type Orchestrator struct {
	deserializer Deserializer
	reducer      Reducer
	logger       *logging.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithDeserializer replaces the default state.Decoder.
func WithDeserializer(d Deserializer) Option {
	return func(o *Orchestrator) { o.deserializer = d }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// New creates an Orchestrator handing every entry to reducer.
func New(reducer Reducer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		deserializer: &state.Decoder{},
		reducer:      reducer,
		logger:       logging.Discard(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ValidateInputs decodes and validates every entry.
//
// Description:
//
//	All entries are checked even after the first failure. When flags
//	include SaveToFile, entries must also list at least one file format.
//
// Outputs:
//
//	[]*state.State - The states in batch order, nil on failure.
//	error - *BatchValidationError naming every failing entry, or
//	ErrEmptyBatch.
func (o *Orchestrator) ValidateInputs(entries *Entries, flags ...enums.OutputFlag) ([]*state.State, error) {
	if entries.Len() == 0 {
		return nil, ErrEmptyBatch
	}
	saving := slices.Contains(flags, enums.SaveToFile)

	states := make([]*state.State, 0, entries.Len())
	failed := &BatchValidationError{Total: entries.Len()}
	for _, e := range entries.All() {
		st, err := o.deserializer.Deserialize(e.State)
		if err == nil {
			err = st.Validate()
		}
		if err == nil && saving && (st.Save == nil || len(st.Save.FileFormats) == 0) {
			r := validation.NewReport("State")
			r.Add("save.file_format", "must list at least one format when saving to file")
			err = r.Err()
		}
		if err != nil {
			failed.add(e.Key, err)
			continue
		}
		states = append(states, st)
	}

	if len(failed.Keys) > 0 {
		batchInvalidEntries.Add(float64(len(failed.Keys)))
		return nil, failed
	}
	return states, nil
}

// Run validates entries and then reduces them one by one.
//
// Description:
//
//	Nothing is reduced unless every entry validates. The context is
//	checked before each entry; cancellation aborts the batch like any
//	other failure. useOptimizations and flags reach the Reducer
//	unchanged.
//
// Outputs:
//
//	*Summary - Always non-nil; describes how far the batch got.
//	error - *BatchValidationError before execution, *EntryError during it.
func (o *Orchestrator) Run(ctx context.Context, entries *Entries, useOptimizations bool, flags []enums.OutputFlag) (*Summary, error) {
	start := time.Now()
	sum := &Summary{
		BatchID:        uuid.NewString(),
		Entries:        entries.Len(),
		EntryDurations: make(map[string]time.Duration),
	}
	log := o.logger.With("batch_id", sum.BatchID)
	defer func() {
		sum.Duration = time.Since(start)
		batchDuration.Observe(sum.Duration.Seconds())
	}()

	ctx, span := tracer.Start(ctx, "batch.Run",
		trace.WithAttributes(
			attribute.String("batch.id", sum.BatchID),
			attribute.Int("batch.entries", entries.Len()),
			attribute.Bool("batch.use_optimizations", useOptimizations),
		),
	)
	defer span.End()

	states, err := o.ValidateInputs(entries, flags...)
	if err != nil {
		batchRuns.WithLabelValues("invalid").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		log.Warn("batch rejected", "entries", entries.Len(), "error", err.Error())
		return sum, err
	}

	log.Info("batch started", "entries", len(states), "use_optimizations", useOptimizations)
	keys := entries.Keys()
	for i, st := range states {
		key := keys[i]
		if err := ctx.Err(); err != nil {
			return sum, o.fail(span, log, sum, key, i, err)
		}

		entryStart := time.Now()
		res, err := o.runEntry(ctx, key, i, st, useOptimizations, flags)
		elapsed := time.Since(entryStart)
		sum.EntryDurations[key] = elapsed
		if err != nil {
			entryDuration.WithLabelValues("error").Observe(elapsed.Seconds())
			return sum, o.fail(span, log, sum, key, i, err)
		}
		entryDuration.WithLabelValues("success").Observe(elapsed.Seconds())

		sum.Completed = append(sum.Completed, key)
		if res != nil {
			sum.Outputs = append(sum.Outputs, res.Records...)
		}
		log.Info("entry complete", "entry", key, "index", i+1, "duration_ms", elapsed.Milliseconds())
	}

	batchRuns.WithLabelValues("success").Inc()
	span.SetStatus(codes.Ok, "")
	log.Info("batch complete", "entries", len(states), "outputs", len(sum.Outputs))
	return sum, nil
}

func (o *Orchestrator) runEntry(ctx context.Context, key string, i int, st *state.State, useOptimizations bool, flags []enums.OutputFlag) (*Result, error) {
	ctx, span := tracer.Start(ctx, "batch.Entry",
		trace.WithAttributes(
			attribute.String("entry.key", key),
			attribute.Int("entry.index", i),
		),
	)
	defer span.End()

	res, err := o.reducer.ReduceForBatch(ctx, st, useOptimizations, flags)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return res, err
}

func (o *Orchestrator) fail(span trace.Span, log *logging.Logger, sum *Summary, key string, i int, err error) error {
	sum.FailedKey = key
	wrapped := &EntryError{Key: key, Index: i, Err: err}
	batchRuns.WithLabelValues("failed").Inc()
	span.RecordError(wrapped)
	span.SetStatus(codes.Error, "entry failed")
	log.Error("batch aborted", "entry", key, "index", i+1, "completed", len(sum.Completed), "error", err.Error())
	return wrapped
}
