// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package output

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/sansreduction/services/reduction/enums"
	"github.com/AleutianAI/sansreduction/services/reduction/params"
	"github.com/AleutianAI/sansreduction/services/reduction/state"
	"github.com/AleutianAI/sansreduction/services/reduction/state/statetest"
	"github.com/AleutianAI/sansreduction/services/reduction/storage/badger"
	"github.com/AleutianAI/sansreduction/services/reduction/workspace"
)

func iq(name string) *workspace.HistogramWorkspace {
	return &workspace.HistogramWorkspace{
		Header: workspace.Header{WorkspaceName: name, Inst: enums.SANS2D},
		X:      []float64{0.01, 0.02, 0.03},
		Y:      []float64{5, 4},
		E:      []float64{0.5, 0.4},
		Unit:   "MomentumTransfer",
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		name   string
		bank   Bank
		mutate func(*state.State)
		want   string
	}{
		{name: "generated", bank: BankLAB, want: "22024_LAB_1D_2.0_14.0"},
		{
			name: "generated two dimensional sliced",
			bank: BankHAB,
			mutate: func(st *state.State) {
				st.Reduction.ReductionDimensionality = enums.TwoDim
				st.Wavelength.WavelengthLow = params.Float(1.75)
				st.Slice = &state.Slice{StartTime: []float64{0}, EndTime: []float64{100}}
			},
			want: "22024_HAB_2D_1.75_14.0_t0.00_T100.00",
		},
		{
			name:   "user name",
			bank:   BankLAB,
			mutate: func(st *state.State) { st.Save.UserSpecifiedOutputName = "cell" },
			want:   "cell",
		},
		{
			name: "user name with suffix and mode",
			bank: BankLAB,
			mutate: func(st *state.State) {
				st.Save.UserSpecifiedOutputName = "cell"
				st.Save.UserSpecifiedOutputNameSuffix = "_v2"
				st.Save.UseReductionModeAsSuffix = true
			},
			want: "cell_LAB_v2",
		},
		{
			name: "user name in merged reduction",
			bank: BankHAB,
			mutate: func(st *state.State) {
				st.Save.UserSpecifiedOutputName = "cell"
				st.Reduction.ReductionMode = enums.Merged
			},
			want: "cell_HAB",
		},
		{
			name: "merged output keeps user name",
			bank: BankMerged,
			mutate: func(st *state.State) {
				st.Save.UserSpecifiedOutputName = "cell"
				st.Reduction.ReductionMode = enums.Merged
			},
			want: "cell",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := state.FromTree(statetest.Tree("SANS2D00022024"))
			require.NoError(t, err)
			if tt.mutate != nil {
				tt.mutate(st)
			}
			assert.Equal(t, tt.want, Name(st, tt.bank))
		})
	}
}

func TestResult_Banks(t *testing.T) {
	var res Result
	assert.Empty(t, res.Banks())

	res.Set(BankMerged, iq("m"))
	res.Set(BankLAB, iq("l"))
	assert.Equal(t, []Bank{BankLAB, BankMerged}, res.Banks())
	assert.Nil(t, res.Get(BankHAB))
}

func TestSlotSink_CountsPerBank(t *testing.T) {
	ctx := context.Background()
	sink := NewSlotSink()

	var targets []string
	for _, bank := range []Bank{BankLAB, BankLAB, BankHAB, BankMerged, BankLAB, BankHAB} {
		recs, err := sink.Register(ctx, nil, bank, iq("x"))
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, enums.PublishToADS, recs[0].Flag)
		targets = append(targets, recs[0].Target)
	}
	assert.Equal(t, []string{
		"OutputWorkspaceLAB_1",
		"OutputWorkspaceLAB_2",
		"OutputWorkspaceHAB_1",
		"OutputWorkspaceMerged_1",
		"OutputWorkspaceLAB_3",
		"OutputWorkspaceHAB_2",
	}, targets)

	assert.Len(t, sink.Slots(), 6)
	_, ok := sink.Lookup("OutputWorkspaceMerged_1")
	assert.True(t, ok)
	_, ok = sink.Lookup("OutputWorkspaceMerged_2")
	assert.False(t, ok)
}

func TestStoreSink(t *testing.T) {
	ctx := context.Background()
	store := workspace.NewMemoryStore()
	sink := NewStoreSink(store)

	recs, err := sink.Register(ctx, nil, BankLAB, iq("22024_LAB_1D_2.0_14.0"))
	require.NoError(t, err)
	assert.Equal(t, []Record{{Bank: BankLAB, Flag: enums.PublishToADS, Target: "22024_LAB_1D_2.0_14.0"}}, recs)

	titled := iq("")
	titled.WorkspaceTitle = "by-title"
	_, err = sink.Register(ctx, nil, BankHAB, titled)
	require.NoError(t, err)

	names, err := store.Names(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"22024_LAB_1D_2.0_14.0", "by-title"}, names)

	_, err = sink.Register(ctx, nil, BankHAB, iq(""))
	assert.ErrorIs(t, err, workspace.ErrInvalidName)
}

func TestFileSink_ArchivesEveryFormat(t *testing.T) {
	ctx := context.Background()
	db, err := badger.OpenInMemory()
	require.NoError(t, err)
	defer db.Close()

	saver := NewArchiveSaver(db)
	st := statetest.State(t, "SANS2D00022024", func(st *state.State) {
		st.Save.FileFormats = []enums.SaveType{enums.NXcanSAS, enums.CanSAS}
	})

	recs, err := NewFileSink(saver).Register(ctx, st, BankLAB, iq("out"))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "file/out.h5", recs[0].Target)
	assert.Equal(t, "file/out.xml", recs[1].Target)

	files, err := saver.Files(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"file/out.h5", "file/out.xml"}, files)

	f, err := saver.Open(ctx, "file/out.xml")
	require.NoError(t, err)
	assert.Equal(t, enums.CanSAS, f.Format)
	ws, err := f.Record.Workspace()
	require.NoError(t, err)
	assert.Equal(t, "out", ws.Name())
}

func TestFileSink_RequiresFormats(t *testing.T) {
	st := statetest.State(t, "SANS2D00022024", func(st *state.State) {
		st.Save.FileFormats = nil
	})
	_, err := NewFileSink(nil).Register(context.Background(), st, BankLAB, iq("out"))
	assert.ErrorContains(t, err, "no file formats")
}

type memSaver struct{}

func (memSaver) Save(_ context.Context, _ workspace.Workspace, name string, format enums.SaveType) (string, error) {
	return "mem/" + name + format.Extension(), nil
}

type failingSink struct{ err error }

func (f failingSink) Register(context.Context, *state.State, Bank, workspace.Workspace) ([]Record, error) {
	return nil, f.err
}

func TestRouter(t *testing.T) {
	ctx := context.Background()
	st := statetest.State(t, "SANS2D00022024")
	res := &Result{LAB: iq("l"), Merged: iq("m")}

	t.Run("both flags", func(t *testing.T) {
		r := NewRouter(NewSlotSink(), NewFileSink(memSaver{}), nil)

		recs, err := r.Route(ctx, st, res, []enums.OutputFlag{enums.PublishToADS, enums.SaveToFile})
		require.NoError(t, err)
		assert.Equal(t, []Record{
			{Bank: BankLAB, Flag: enums.PublishToADS, Target: "OutputWorkspaceLAB_1"},
			{Bank: BankMerged, Flag: enums.PublishToADS, Target: "OutputWorkspaceMerged_1"},
			{Bank: BankLAB, Flag: enums.SaveToFile, Target: "mem/l.h5"},
			{Bank: BankMerged, Flag: enums.SaveToFile, Target: "mem/m.h5"},
		}, recs)
	})

	t.Run("missing sink", func(t *testing.T) {
		r := NewRouter(NewSlotSink(), nil, nil)
		_, err := r.Route(ctx, st, res, []enums.OutputFlag{enums.SaveToFile})
		assert.ErrorIs(t, err, ErrNoSink)
	})

	t.Run("sink failure stops routing", func(t *testing.T) {
		boom := errors.New("disk full")
		r := NewRouter(failingSink{err: boom}, nil, nil)
		recs, err := r.Route(ctx, st, res, []enums.OutputFlag{enums.PublishToADS})
		assert.ErrorIs(t, err, boom)
		assert.Empty(t, recs)
	})
}
