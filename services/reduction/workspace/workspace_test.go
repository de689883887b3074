// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package workspace

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/sansreduction/services/reduction/enums"
	"github.com/AleutianAI/sansreduction/services/reduction/storage/badger"
)

func sampleEvents() *EventWorkspace {
	return &EventWorkspace{
		Header: Header{WorkspaceName: "raw", Inst: enums.SANS2D},
		Events: []Neutron{
			{PulseTime: 0.5, TOF: 1000, Spectrum: 1},
			{PulseTime: 2.5, TOF: 2000, Spectrum: 2},
		},
		ProtonCharge: []ChargeSample{{Time: 0.5, Charge: 1}, {Time: 2.5, Charge: 3}},
		Duration:     3,
	}
}

func sampleHistogram() *HistogramWorkspace {
	return &HistogramWorkspace{
		Header: Header{WorkspaceName: "iq", Inst: enums.LOQ},
		X:      []float64{0, 1, 2},
		Y:      []float64{10, 20},
		E:      []float64{1, 2},
		Unit:   "MomentumTransfer",
	}
}

func stores(t *testing.T) map[string]Store {
	t.Helper()
	db, err := badger.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return map[string]Store{
		"memory": NewMemoryStore(),
		"badger": NewBadgerStore(db),
	}
}

func TestStore_Contract(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, s.Add(ctx, "a", sampleEvents()))
			assert.ErrorIs(t, s.Add(ctx, "a", sampleEvents()), ErrExists)
			assert.ErrorIs(t, s.Add(ctx, "", sampleEvents()), ErrInvalidName)
			require.NoError(t, s.AddOrReplace(ctx, "b", sampleHistogram()))

			ok, err := s.Exists(ctx, "a")
			require.NoError(t, err)
			assert.True(t, ok)

			got, err := s.Retrieve(ctx, "a")
			require.NoError(t, err)
			assert.Equal(t, "a", got.Name())
			assert.Equal(t, Event, got.Kind())
			assert.Equal(t, enums.SANS2D, got.Instrument())
			assert.Len(t, got.(*EventWorkspace).Events, 2)

			names, err := s.Names(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b"}, names)

			require.NoError(t, s.Remove(ctx, "a"))
			assert.ErrorIs(t, s.Remove(ctx, "a"), ErrNotFound)
			_, err = s.Retrieve(ctx, "a")
			assert.ErrorIs(t, err, ErrNotFound)
			ok, err = s.Exists(ctx, "a")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestStore_CopiesInAndOut(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			h := sampleHistogram()
			require.NoError(t, s.Add(ctx, "h", h))

			h.Y[0] = -1
			got, err := s.Retrieve(ctx, "h")
			require.NoError(t, err)
			assert.Equal(t, 10.0, got.(*HistogramWorkspace).Y[0])

			got.(*HistogramWorkspace).Y[1] = -1
			again, err := s.Retrieve(ctx, "h")
			require.NoError(t, err)
			assert.Equal(t, 20.0, again.(*HistogramWorkspace).Y[1])
		})
	}
}

func TestHistogram_Centre(t *testing.T) {
	edges := sampleHistogram()
	assert.Equal(t, 0.5, edges.Centre(0))
	assert.Equal(t, 1.5, edges.Centre(1))

	points := &HistogramWorkspace{X: []float64{3, 4}, Y: []float64{1, 1}}
	assert.Equal(t, 4.0, points.Centre(1))
}

func TestReadRecords(t *testing.T) {
	doc := `[
	  {"kind": "Event", "event": {"name": "SANS2D00022024", "instrument": "SANS2D",
	    "events": [{"pulse_time": 1, "tof": 5, "spectrum": 1}],
	    "proton_charge": [{"time": 1, "charge": 2}], "duration": 10}},
	  {"kind": "Histogram", "histogram": {"name": "direct", "instrument": "SANS2D",
	    "x": [1, 2], "y": [3], "e": [1]}}
	]`
	got, err := ReadRecords(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "SANS2D00022024", got[0].Name())
	assert.Equal(t, Event, got[0].Kind())
	assert.Equal(t, Histogram, got[1].Kind())

	_, err = ReadRecords(strings.NewReader(`[{"kind": "Event"}]`))
	assert.ErrorContains(t, err, "record 0")
}

func TestNewRecord_RejectsForeignTypes(t *testing.T) {
	_, err := NewRecord(nil)
	assert.Error(t, err)
}
