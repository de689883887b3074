// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package slicer selects and runs the time-slicing strategy for a workspace.
//
// Slicing keeps the part of an event run that falls inside one time window
// and reports the slice factor: the fraction of the run's proton charge
// delivered inside that window. Monitor-derived normalisation is scaled by
// the same factor so it stays consistent with the sliced data.
package slicer

import (
	"context"
	"errors"
	"fmt"

	"github.com/AleutianAI/sansreduction/pkg/logging"
	"github.com/AleutianAI/sansreduction/services/reduction/enums"
	"github.com/AleutianAI/sansreduction/services/reduction/state"
	"github.com/AleutianAI/sansreduction/services/reduction/workspace"
)

// EndTimeEpsilon is added to the run length when a window is open at the
// end, so the event lying exactly on the last time boundary survives the
// half-open time filter.
const EndTimeEpsilon = 0.001

var (
	// ErrMultipleWindows is returned when more than one start/end pair is
	// requested. Only a single window can be sliced per reduction.
	ErrMultipleWindows = errors.New("only one slice window is supported")

	// ErrNoCharge is returned when a run has no proton charge to scale by.
	ErrNoCharge = errors.New("workspace has no proton charge")

	// ErrNotEventData is returned when an event slicer receives a workspace
	// it cannot filter.
	ErrNotEventData = errors.New("workspace does not hold event data")
)

// Slicer cuts one time window out of a workspace.
type Slicer interface {
	// Slice returns the sliced workspace and the slice factor. A nil or
	// empty window returns ws unchanged with a factor of 1.
	Slice(ctx context.Context, ws workspace.Workspace, window *state.Slice) (workspace.Workspace, float64, error)
}

// NullSlicer is used for histogram data, which has no time axis left to
// slice. It always returns its input with a factor of 1.
type NullSlicer struct{}

func (NullSlicer) Slice(_ context.Context, ws workspace.Workspace, _ *state.Slice) (workspace.Workspace, float64, error) {
	return ws, 1.0, nil
}

// EventSlicer slices event data by absolute pulse time.
//
// Thread Safety: EventSlicer holds no mutable state and is safe for
// concurrent use.
type EventSlicer struct {
	dataType enums.DataType
	charge   ChargeAccountant
	logger   *logging.Logger
}

// DataType reports which kind of run the slicer was created for.
func (s *EventSlicer) DataType() enums.DataType { return s.dataType }

// Slice applies window to ws.
//
// Description:
//
//	Can runs are never partially sliced: for enums.Can the requested
//	window is replaced by the full run. An open start means time zero and
//	an open end means the run length plus EndTimeEpsilon. The factor is
//	charge(window) / charge(total).
//
// Outputs:
//
//	workspace.Workspace - The events inside [start, stop).
//	float64 - The slice factor.
//	error - ErrMultipleWindows, ErrNoCharge, or an accountant error.
func (s *EventSlicer) Slice(ctx context.Context, ws workspace.Workspace, window *state.Slice) (workspace.Workspace, float64, error) {
	if !window.IsSet() {
		return ws, 1.0, nil
	}
	if len(window.StartTime) != 1 || len(window.EndTime) != 1 {
		return nil, 0, fmt.Errorf("%w: got %d start and %d end time(s)",
			ErrMultipleWindows, len(window.StartTime), len(window.EndTime))
	}

	start, stop := window.StartTime[0], window.EndTime[0]
	if s.dataType == enums.Can {
		start, stop = state.OpenBound, state.OpenBound
	}

	totalCharge, totalTime, err := s.charge.Totals(ctx, ws)
	if err != nil {
		return nil, 0, fmt.Errorf("charge totals for %s: %w", ws.Name(), err)
	}
	if totalCharge <= 0 {
		return nil, 0, fmt.Errorf("%w: %s", ErrNoCharge, ws.Name())
	}

	if start == state.OpenBound {
		start = 0
	}
	if stop == state.OpenBound {
		stop = totalTime + EndTimeEpsilon
	}

	sliced, err := s.charge.FilterByTime(ctx, ws, start, stop)
	if err != nil {
		return nil, 0, fmt.Errorf("filter %s by time: %w", ws.Name(), err)
	}
	partialCharge, _, err := s.charge.Totals(ctx, sliced)
	if err != nil {
		return nil, 0, fmt.Errorf("charge totals for sliced %s: %w", ws.Name(), err)
	}

	factor := partialCharge / totalCharge
	s.logger.Debug("sliced workspace",
		"workspace", ws.Name(),
		"data_type", s.dataType.String(),
		"start", start,
		"stop", stop,
		"slice_factor", factor,
	)
	return sliced, factor, nil
}

var (
	_ Slicer = NullSlicer{}
	_ Slicer = (*EventSlicer)(nil)
)
