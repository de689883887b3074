// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package single runs one reduction for the batch orchestrator: it loads
// the scatter runs from the workspace store, slices them, hands each bank
// to the physics core, merges the banks when asked and routes the outputs.
package single

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/AleutianAI/sansreduction/pkg/logging"
	"github.com/AleutianAI/sansreduction/services/reduction/enums"
	"github.com/AleutianAI/sansreduction/services/reduction/output"
	"github.com/AleutianAI/sansreduction/services/reduction/slicer"
	"github.com/AleutianAI/sansreduction/services/reduction/state"
	"github.com/AleutianAI/sansreduction/services/reduction/workspace"
)

// ErrIncomplete is returned for states missing a leaf the reduction reads.
var ErrIncomplete = errors.New("reduction state is incomplete")

// Inputs are the sliced runs handed to the core for one bank.
type Inputs struct {
	Sample       workspace.Workspace
	SampleFactor float64

	// Can is nil when no can run is configured.
	Can       workspace.Workspace
	CanFactor float64
}

// Core reduces one detector bank.
type Core interface {
	Reduce(ctx context.Context, st *state.State, in Inputs, bank enums.DetectorType) (workspace.Workspace, error)
}

// Merger combines the low- and high-angle outputs.
type Merger interface {
	Merge(ctx context.Context, st *state.State, lab, hab workspace.Workspace) (workspace.Workspace, error)
}

// Reducer is the default single reduction.
//
// Thread Safety: Reducer is safe for concurrent use, although the batch
// orchestrator only ever calls it from one goroutine.
type Reducer struct {
	store   workspace.Store
	slicers *slicer.Factory
	core    Core
	merger  Merger
	router  *output.Router
	logger  *logging.Logger

	mu      sync.Mutex
	factors map[string]float64
	flight  singleflight.Group
}

// Option configures a Reducer.
type Option func(*Reducer)

// WithCore replaces the PassThroughCore.
func WithCore(c Core) Option {
	return func(r *Reducer) { r.core = c }
}

// WithMerger replaces the StitchMerger.
func WithMerger(m Merger) Option {
	return func(r *Reducer) { r.merger = m }
}

// WithSlicerFactory replaces the default slicer factory.
func WithSlicerFactory(f *slicer.Factory) Option {
	return func(r *Reducer) { r.slicers = f }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(r *Reducer) { r.logger = l }
}

// New creates a Reducer reading runs from store and registering outputs
// through router.
func New(store workspace.Store, router *output.Router, opts ...Option) *Reducer {
	r := &Reducer{
		store:   store,
		core:    PassThroughCore{},
		merger:  StitchMerger{},
		router:  router,
		logger:  logging.Discard(),
		factors: make(map[string]float64),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.slicers == nil {
		r.slicers = slicer.NewFactory(slicer.WithLogger(r.logger))
	}
	return r
}

// ReduceForBatch reduces st and routes the outputs to flags.
//
// Description:
//
//	With useOptimizations set, sliced runs are cached in the store under a
//	key derived from the run, data type and window, and reused by later
//	reductions of the same run. Each bank named by the reduction mode is
//	reduced by the core and renamed with output.Name. Merged and All
//	modes also produce a merged output.
//
// Outputs:
//
//	*output.Result - The outputs and where they were registered.
//	error - Store, slicer, core, merger or sink errors, wrapped.
func (r *Reducer) ReduceForBatch(ctx context.Context, st *state.State, useOptimizations bool, flags []enums.OutputFlag) (*output.Result, error) {
	if st.Data == nil || st.Reduction == nil {
		return nil, ErrIncomplete
	}
	log := r.logger.With("run", st.Data.RunLabel())

	var (
		in  Inputs
		err error
	)
	in.Sample, in.SampleFactor, err = r.load(ctx, st.Data.SampleScatter, enums.Sample, st.Slice, useOptimizations)
	if err != nil {
		return nil, err
	}
	if st.Data.HasCan() {
		in.Can, in.CanFactor, err = r.load(ctx, st.Data.CanScatter, enums.Can, st.Slice, useOptimizations)
		if err != nil {
			return nil, err
		}
	}

	res := &output.Result{}
	mode := st.Reduction.ReductionMode
	for _, det := range mode.Banks() {
		ws, err := r.core.Reduce(ctx, st, in, det)
		if err != nil {
			return nil, fmt.Errorf("reduce %s: %w", det, err)
		}
		bank := output.BankFor(det)
		res.Set(bank, ws.Renamed(output.Name(st, bank)))
	}

	if mode.Merges() {
		strategy := st.Reduction.MergeStrategy()
		merged, err := r.merger.Merge(ctx, st, res.Get(output.BankFor(strategy[0])), res.Get(output.BankFor(strategy[1])))
		if err != nil {
			return nil, fmt.Errorf("merge: %w", err)
		}
		res.Merged = merged.Renamed(output.Name(st, output.BankMerged))
		if mode == enums.Merged {
			// only the merged output is kept for Merged
			res.LAB, res.HAB = nil, nil
		}
	}

	res.Records, err = r.router.Route(ctx, st, res, flags)
	if err != nil {
		return res, err
	}
	log.Info("reduction complete",
		"mode", mode.String(),
		"outputs", len(res.Banks()),
		"sample_factor", in.SampleFactor,
	)
	return res, nil
}

// load retrieves a scatter run and slices it. Cached loads of the same key
// share one slicing through singleflight.
func (r *Reducer) load(ctx context.Context, name string, dt enums.DataType, window *state.Slice, cache bool) (workspace.Workspace, float64, error) {
	if !cache || !window.IsSet() {
		return r.slice(ctx, name, dt, window)
	}

	key := cacheKey(name, dt, window)
	if ws, factor, ok := r.cached(ctx, key); ok {
		r.logger.Debug("reusing sliced run", "key", key)
		return ws, factor, nil
	}

	v, err, _ := r.flight.Do(key, func() (any, error) {
		ws, factor, err := r.slice(ctx, name, dt, window)
		if err != nil {
			return nil, err
		}
		if err := r.store.AddOrReplace(ctx, key, ws); err != nil {
			return nil, fmt.Errorf("cache %s: %w", key, err)
		}
		r.mu.Lock()
		r.factors[key] = factor
		r.mu.Unlock()
		return slicedRun{ws: ws, factor: factor}, nil
	})
	if err != nil {
		return nil, 0, err
	}
	run := v.(slicedRun)
	return run.ws.Clone(), run.factor, nil
}

type slicedRun struct {
	ws     workspace.Workspace
	factor float64
}

func (r *Reducer) slice(ctx context.Context, name string, dt enums.DataType, window *state.Slice) (workspace.Workspace, float64, error) {
	raw, err := r.store.Retrieve(ctx, name)
	if err != nil {
		return nil, 0, fmt.Errorf("load %s run: %w", dt, err)
	}
	s, err := r.slicers.ForWorkspace(raw, dt)
	if err != nil {
		return nil, 0, err
	}
	sliced, factor, err := s.Slice(ctx, raw, window)
	if err != nil {
		return nil, 0, fmt.Errorf("slice %s: %w", name, err)
	}
	return sliced, factor, nil
}

func (r *Reducer) cached(ctx context.Context, key string) (workspace.Workspace, float64, bool) {
	r.mu.Lock()
	factor, ok := r.factors[key]
	r.mu.Unlock()
	if !ok {
		return nil, 0, false
	}
	ws, err := r.store.Retrieve(ctx, key)
	if err != nil {
		return nil, 0, false
	}
	return ws, factor, true
}

// cacheKey names a sliced run in the store. Can runs ignore the window, so
// all their slices share one key. Sample keys carry the exact bounds; the
// rounded Tag is only fit for output names.
func cacheKey(name string, dt enums.DataType, window *state.Slice) string {
	if dt == enums.Can {
		return fmt.Sprintf("%s_sliced_%s", name, dt)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s_sliced_%s", name, dt)
	if window != nil {
		for _, t := range window.StartTime {
			b.WriteString("_t" + strconv.FormatFloat(t, 'g', -1, 64))
		}
		for _, t := range window.EndTime {
			b.WriteString("_T" + strconv.FormatFloat(t, 'g', -1, 64))
		}
	}
	return b.String()
}
