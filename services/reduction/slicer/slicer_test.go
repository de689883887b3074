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
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/sansreduction/pkg/logging"
	"github.com/AleutianAI/sansreduction/services/reduction/enums"
	"github.com/AleutianAI/sansreduction/services/reduction/state"
	"github.com/AleutianAI/sansreduction/services/reduction/workspace"
)

// run returns a 10 s event run with one pulse per second. Pulse i delivers
// i+1 uAh, so the total charge is 55.
func run() *workspace.EventWorkspace {
	ws := &workspace.EventWorkspace{
		Header:   workspace.Header{WorkspaceName: "SANS2D00022024", Inst: enums.SANS2D},
		Duration: 10,
	}
	for i := 0; i < 10; i++ {
		ts := float64(i)
		ws.ProtonCharge = append(ws.ProtonCharge, workspace.ChargeSample{Time: ts, Charge: float64(i + 1)})
		ws.Events = append(ws.Events, workspace.Neutron{PulseTime: ts, TOF: 1000 + ts, Spectrum: i})
	}
	// one event exactly on the end of the run
	ws.Events = append(ws.Events, workspace.Neutron{PulseTime: 10, TOF: 5000, Spectrum: 99})
	return ws
}

func window(start, end float64) *state.Slice {
	return &state.Slice{StartTime: []float64{start}, EndTime: []float64{end}}
}

func eventSlicer(t *testing.T, dt enums.DataType) Slicer {
	t.Helper()
	s, err := NewFactory().Create(workspace.Event, enums.SANS2D, dt)
	require.NoError(t, err)
	return s
}

func TestEventSlicer_FactorIsChargeFraction(t *testing.T) {
	ctx := context.Background()
	s := eventSlicer(t, enums.Sample)

	tests := []struct {
		name       string
		start, end float64
		want       float64
		events     int
	}{
		{name: "first half", start: 0, end: 5, want: 15.0 / 55.0, events: 5},
		{name: "middle", start: 2, end: 4, want: 7.0 / 55.0, events: 2},
		{name: "open start", start: state.OpenBound, end: 3, want: 6.0 / 55.0, events: 3},
		{name: "open end", start: 8, end: state.OpenBound, want: 19.0 / 55.0, events: 3},
		{name: "empty window", start: 3.2, end: 3.8, want: 0, events: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sliced, factor, err := s.Slice(ctx, run(), window(tt.start, tt.end))
			require.NoError(t, err)
			assert.InDelta(t, tt.want, factor, 1e-12)
			assert.Len(t, sliced.(*workspace.EventWorkspace).Events, tt.events)
		})
	}
}

func TestEventSlicer_FullRangeIsOne(t *testing.T) {
	ctx := context.Background()
	s := eventSlicer(t, enums.Sample)

	for _, w := range []*state.Slice{
		window(0, 10+EndTimeEpsilon),
		window(state.OpenBound, state.OpenBound),
	} {
		sliced, factor, err := s.Slice(ctx, run(), w)
		require.NoError(t, err)
		assert.Equal(t, 1.0, factor)
		assert.Len(t, sliced.(*workspace.EventWorkspace).Events, 11, "boundary event must survive")
	}
}

func TestEventSlicer_NoWindowReturnsInput(t *testing.T) {
	ws := run()
	s := eventSlicer(t, enums.Sample)

	for _, w := range []*state.Slice{nil, {}} {
		got, factor, err := s.Slice(context.Background(), ws, w)
		require.NoError(t, err)
		assert.Same(t, ws, got)
		assert.Equal(t, 1.0, factor)
	}
}

func TestEventSlicer_RejectsSeveralWindows(t *testing.T) {
	s := eventSlicer(t, enums.Sample)
	w := &state.Slice{StartTime: []float64{0, 5}, EndTime: []float64{5, 10}}

	_, _, err := s.Slice(context.Background(), run(), w)
	assert.ErrorIs(t, err, ErrMultipleWindows)
}

func TestEventSlicer_CanUsesWholeRun(t *testing.T) {
	s := eventSlicer(t, enums.Can)

	sliced, factor, err := s.Slice(context.Background(), run(), window(2, 4))
	require.NoError(t, err)
	assert.Equal(t, 1.0, factor)
	assert.Len(t, sliced.(*workspace.EventWorkspace).Events, 11)
}

func TestEventSlicer_ZeroChargeFails(t *testing.T) {
	ws := run()
	ws.ProtonCharge = nil
	s := eventSlicer(t, enums.Sample)

	_, _, err := s.Slice(context.Background(), ws, window(0, 1))
	assert.ErrorIs(t, err, ErrNoCharge)
}

type failingAccountant struct{ EventLogAccountant }

var errAccountant = errors.New("charge log unavailable")

func (failingAccountant) Totals(context.Context, workspace.Workspace) (float64, float64, error) {
	return 0, 0, errAccountant
}

func TestEventSlicer_PropagatesAccountantErrors(t *testing.T) {
	s, err := NewFactory(WithChargeAccountant(failingAccountant{})).Create(workspace.Event, enums.LOQ, enums.Sample)
	require.NoError(t, err)

	_, _, err = s.Slice(context.Background(), run(), window(0, 1))
	assert.ErrorIs(t, err, errAccountant)
}

func TestEventSlicer_LogsFactor(t *testing.T) {
	sink := logging.NewMemorySink()
	logger := logging.New(logging.Config{Level: logging.LevelDebug, Quiet: true, Sink: sink})
	s, err := NewFactory(WithLogger(logger)).Create(workspace.Event, enums.ZOOM, enums.Sample)
	require.NoError(t, err)

	_, _, err = s.Slice(context.Background(), run(), window(0, 5))
	require.NoError(t, err)
	assert.Contains(t, sink.Messages(), "sliced workspace")
}

func TestNullSlicer_Idempotent(t *testing.T) {
	h := &workspace.HistogramWorkspace{
		Header: workspace.Header{WorkspaceName: "iq", Inst: enums.LOQ},
		X:      []float64{1, 2},
		Y:      []float64{3},
		E:      []float64{1},
	}
	s, err := NewFactory().ForWorkspace(h, enums.Sample)
	require.NoError(t, err)

	var got workspace.Workspace = h
	for i := 0; i < 3; i++ {
		var factor float64
		got, factor, err = s.Slice(context.Background(), got, window(1, 2))
		require.NoError(t, err)
		assert.Same(t, h, got)
		assert.Equal(t, 1.0, factor)
	}
}

func TestFactory_Selection(t *testing.T) {
	f := NewFactory()

	tests := []struct {
		name       string
		kind       workspace.Kind
		instrument enums.Instrument
		dataType   enums.DataType
		want       reflect.Type
	}{
		{"histogram", workspace.Histogram, enums.SANS2D, enums.Sample, reflect.TypeOf(NullSlicer{})},
		{"histogram without instrument", workspace.Histogram, enums.NoInstrument, enums.Can, reflect.TypeOf(NullSlicer{})},
		{"event sample", workspace.Event, enums.LARMOR, enums.Sample, reflect.TypeOf(&EventSlicer{})},
		{"event can", workspace.Event, enums.LOQ, enums.Can, reflect.TypeOf(&EventSlicer{})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, err := f.Create(tt.kind, tt.instrument, tt.dataType)
			require.NoError(t, err)
			second, err := f.Create(tt.kind, tt.instrument, tt.dataType)
			require.NoError(t, err)
			assert.Equal(t, tt.want, reflect.TypeOf(first))
			assert.Equal(t, reflect.TypeOf(first), reflect.TypeOf(second))
			if ev, ok := first.(*EventSlicer); ok {
				assert.Equal(t, tt.dataType, ev.DataType())
			}
		})
	}
}

func TestFactory_UnsupportedInstrument(t *testing.T) {
	_, err := NewFactory().Create(workspace.Event, enums.NoInstrument, enums.Sample)

	var sel *enums.SelectionError
	require.ErrorAs(t, err, &sel)
	assert.ErrorIs(t, err, enums.ErrNotImplemented)
	assert.Equal(t, "slicer", sel.What)
}

func TestEventLogAccountant(t *testing.T) {
	ctx := context.Background()
	acc := EventLogAccountant{}

	charge, length, err := acc.Totals(ctx, run())
	require.NoError(t, err)
	assert.Equal(t, 55.0, charge)
	assert.Equal(t, 10.0, length)

	noDuration := run()
	noDuration.Duration = 0
	_, length, err = acc.Totals(ctx, noDuration)
	require.NoError(t, err)
	assert.Equal(t, 10.0, length)

	filtered, err := acc.FilterByTime(ctx, run(), 2, 5)
	require.NoError(t, err)
	ev := filtered.(*workspace.EventWorkspace)
	assert.Len(t, ev.ProtonCharge, 3)
	assert.Equal(t, 3.0, ev.Duration)
	assert.Equal(t, "SANS2D00022024", ev.Name())

	_, _, err = acc.Totals(ctx, &workspace.HistogramWorkspace{})
	assert.ErrorIs(t, err, ErrNotEventData)
}
