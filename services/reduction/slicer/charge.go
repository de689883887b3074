// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package slicer

import (
	"context"
	"fmt"

	"github.com/AleutianAI/sansreduction/services/reduction/workspace"
)

// ChargeAccountant reports and filters the proton charge of a run.
type ChargeAccountant interface {
	// Totals returns the integrated proton charge and the run length in
	// seconds.
	Totals(ctx context.Context, ws workspace.Workspace) (totalCharge, totalTime float64, err error)

	// FilterByTime keeps the data recorded in [start, stop), in seconds
	// since the run start.
	FilterByTime(ctx context.Context, ws workspace.Workspace, start, stop float64) (workspace.Workspace, error)
}

// EventLogAccountant reads charge from the proton-charge log of a
// workspace.EventWorkspace.
type EventLogAccountant struct{}

func (EventLogAccountant) Totals(ctx context.Context, ws workspace.Workspace) (float64, float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	ev, err := asEvents(ws)
	if err != nil {
		return 0, 0, err
	}
	var charge float64
	for _, c := range ev.ProtonCharge {
		charge += c.Charge
	}
	return charge, runLength(ev), nil
}

func (EventLogAccountant) FilterByTime(ctx context.Context, ws workspace.Workspace, start, stop float64) (workspace.Workspace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ev, err := asEvents(ws)
	if err != nil {
		return nil, err
	}
	out := &workspace.EventWorkspace{Header: ev.Header}
	for _, n := range ev.Events {
		if n.PulseTime >= start && n.PulseTime < stop {
			out.Events = append(out.Events, n)
		}
	}
	for _, c := range ev.ProtonCharge {
		if c.Time >= start && c.Time < stop {
			out.ProtonCharge = append(out.ProtonCharge, c)
		}
	}
	out.Duration = min(stop, runLength(ev)) - start
	if out.Duration < 0 {
		out.Duration = 0
	}
	return out, nil
}

// runLength is the recorded duration, or the latest timestamp when the
// duration was never recorded.
func runLength(ev *workspace.EventWorkspace) float64 {
	if ev.Duration > 0 {
		return ev.Duration
	}
	var last float64
	for _, c := range ev.ProtonCharge {
		last = max(last, c.Time)
	}
	for _, n := range ev.Events {
		last = max(last, n.PulseTime)
	}
	return last
}

func asEvents(ws workspace.Workspace) (*workspace.EventWorkspace, error) {
	ev, ok := ws.(*workspace.EventWorkspace)
	if !ok {
		return nil, fmt.Errorf("%w: %s is a %s workspace", ErrNotEventData, ws.Name(), ws.Kind())
	}
	return ev, nil
}

var _ ChargeAccountant = EventLogAccountant{}
