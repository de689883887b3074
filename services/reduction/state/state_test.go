// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package state_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/sansreduction/pkg/validation"
	"github.com/AleutianAI/sansreduction/services/reduction/enums"
	"github.com/AleutianAI/sansreduction/services/reduction/params"
	"github.com/AleutianAI/sansreduction/services/reduction/state"
	"github.com/AleutianAI/sansreduction/services/reduction/state/statetest"
)

// copyLeaf copies the named leaf from src to dst. Copying from an empty
// State clears it.
func copyLeaf(dst, src *state.State, name string) {
	switch name {
	case state.LeafData:
		dst.Data = src.Data
	case state.LeafMove:
		dst.Move = src.Move
	case state.LeafMask:
		dst.Mask = src.Mask
	case state.LeafReduction:
		dst.Reduction = src.Reduction
	case state.LeafSlice:
		dst.Slice = src.Slice
	case state.LeafWavelength:
		dst.Wavelength = src.Wavelength
	case state.LeafSave:
		dst.Save = src.Save
	case state.LeafScale:
		dst.Scale = src.Scale
	case state.LeafAdjustment:
		dst.Adjustment = src.Adjustment
	case state.LeafConvertToQ:
		dst.ConvertToQ = src.ConvertToQ
	case state.LeafCompatibility:
		dst.Compatibility = src.Compatibility
	case state.LeafBackgroundSubtraction:
		dst.BackgroundSubtraction = src.BackgroundSubtraction
	}
}

func validationError(t *testing.T, err error) *validation.Error {
	t.Helper()
	require.Error(t, err)
	var verr *validation.Error
	require.True(t, errors.As(err, &verr), "want *validation.Error, got %T: %v", err, err)
	return verr
}

func TestState_ValidStateValidates(t *testing.T) {
	st, err := state.FromTree(statetest.Tree("SANS2D00022024"))
	require.NoError(t, err)
	assert.NoError(t, st.Validate())
}

func TestState_MissingLeafIsNamed(t *testing.T) {
	original := statetest.State(t, "SANS2D00022024")

	for _, name := range state.LeafNames {
		if name == state.LeafCompatibility {
			continue
		}
		t.Run(name, func(t *testing.T) {
			st := original.Clone()
			copyLeaf(st, &state.State{}, name)

			verr := validationError(t, st.Validate())
			assert.Contains(t, verr.Fields(), name)

			copyLeaf(st, original, name)
			assert.NoError(t, st.Validate())
		})
	}
}

func TestState_MissingCompatibilityIsRebuilt(t *testing.T) {
	st := statetest.State(t, "SANS2D00022024")
	st.Compatibility = nil

	require.NoError(t, st.Validate())
	require.NotNil(t, st.Compatibility)
	assert.False(t, st.Compatibility.UseCompatibilityMode)
}

func TestState_MissingDataAndCompatibility(t *testing.T) {
	st := statetest.State(t, "SANS2D00022024")
	st.Data, st.Compatibility = nil, nil

	verr := validationError(t, st.Validate())
	assert.Contains(t, verr.Fields(), state.LeafData)
	assert.Contains(t, verr.Fields(), state.LeafCompatibility)
}

func TestState_ReportsEveryLeafViolation(t *testing.T) {
	st := statetest.State(t, "SANS2D00022024")
	st.Data.SampleScatter = ""
	st.ConvertToQ.QMin = nil
	st.Slice.StartTime = []float64{1}

	verr := validationError(t, st.Validate())
	assert.True(t, verr.Has("data.sample_scatter"))
	assert.True(t, verr.Has("convert_to_q.q_min"))
	assert.True(t, verr.Has("slice.start_time"))
}

func TestState_CrossLeafRules(t *testing.T) {
	t.Run("merged needs both banks", func(t *testing.T) {
		st := statetest.State(t, "SANS2D00022024")
		st.Reduction.ReductionMode = enums.Merged
		delete(st.Move.Detectors, enums.HAB)
		verr := validationError(t, st.Validate())
		assert.True(t, verr.Has("reduction.reduction_mode"))
	})

	t.Run("wavelength inside monitor range", func(t *testing.T) {
		st := statetest.State(t, "SANS2D00022024")
		st.Wavelength.WavelengthHigh = params.Float(20)
		verr := validationError(t, st.Validate())
		assert.Contains(t, verr.Fields(), "wavelength")
	})

	t.Run("wide angle correction is 1D only", func(t *testing.T) {
		st := statetest.State(t, "SANS2D00022024")
		st.Adjustment.WideAngleCorrection = true
		st.ConvertToQ.ReductionDimensionality = enums.TwoDim
		st.ConvertToQ.QXYMax, st.ConvertToQ.QXYStep = params.Float(0.1), params.Float(0.002)
		verr := validationError(t, st.Validate())
		assert.Equal(t, []string{"adjustment.wide_angle_correction"}, verr.Fields())
	})

	t.Run("instrument mismatch", func(t *testing.T) {
		st := statetest.State(t, "SANS2D00022024")
		st.Move.Instrument = enums.LOQ
		verr := validationError(t, st.Validate())
		assert.Contains(t, verr.Fields(), "move.instrument")
	})
}

func TestState_CloneIsDeep(t *testing.T) {
	st := statetest.State(t, "SANS2D00022024")
	c := st.Clone()
	assert.Equal(t, st, c)

	c.Data.SampleScatter = "other"
	*c.Wavelength.WavelengthLow = 3
	c.Move.Detectors[enums.LAB].SampleCentrePos1 = 0.1
	c.Tree()["data"].(map[string]any)["sample_scatter"] = "changed"

	assert.Equal(t, "SANS2D00022024", st.Data.SampleScatter)
	assert.Equal(t, 2.0, *st.Wavelength.WavelengthLow)
	assert.Equal(t, 0.0, st.Move.Detectors[enums.LAB].SampleCentrePos1)
	assert.Equal(t, "SANS2D00022024", st.Tree()["data"].(map[string]any)["sample_scatter"])
}

func buildFromLeaves(t *testing.T) *state.Builder {
	t.Helper()
	data, err := state.NewDataBuilder(enums.SANS2D).
		SetSampleScatter("SANS2D00022024", 0).
		SetRunNumber(22024, false).
		Build()
	require.NoError(t, err)

	mb, err := state.NewMoveBuilder(data)
	require.NoError(t, err)
	move, err := mb.SetSampleOffset(0.053).SetBeamCentre(enums.LAB, 0.1, -0.2).Build()
	require.NoError(t, err)

	maskB, err := state.NewMaskBuilder(data)
	require.NoError(t, err)
	mask, err := maskB.SetRadius(0.038, 1.5).AddBinMask(13000, 15750).Build()
	require.NoError(t, err)

	rb, err := state.NewReductionModeBuilder(data, nil)
	require.NoError(t, err)
	reduction, err := rb.SetReductionMode(enums.ReductionModeHAB).Build()
	require.NoError(t, err)

	slice, err := state.NewSliceBuilder().SetWindow(0, 100).Build()
	require.NoError(t, err)

	wb, err := state.NewWavelengthBuilder(data)
	require.NoError(t, err)
	wav, err := wb.SetRange(2, 14, 0.125, enums.Lin).Build()
	require.NoError(t, err)

	sb, err := state.NewSaveBuilder(data)
	require.NoError(t, err)
	save, err := sb.SetFileFormats(enums.NXcanSAS, enums.CSV).Build()
	require.NoError(t, err)

	scb, err := state.NewScaleBuilder(data)
	require.NoError(t, err)
	scale, err := scb.SetShape(enums.Disc).SetDimensions(1, 8, 8).Build()
	require.NoError(t, err)

	ab, err := state.NewAdjustmentBuilder(data)
	require.NoError(t, err)
	adj, err := ab.SetWavelengthRange(2, 14, 0.125, enums.Lin).Build()
	require.NoError(t, err)

	qb, err := state.NewConvertToQBuilder(data)
	require.NoError(t, err)
	toQ, err := qb.SetQRange(0.001, 0.2).SetGravity(true, 0).Build()
	require.NoError(t, err)

	cb, err := state.NewCompatibilityBuilder(data)
	require.NoError(t, err)
	compat, err := cb.Build()
	require.NoError(t, err)

	bg, err := state.NewBackgroundSubtractionBuilder().Build()
	require.NoError(t, err)

	return state.NewBuilder().
		SetData(data).SetMove(move).SetMask(mask).SetReduction(reduction).
		SetSlice(slice).SetWavelength(wav).SetSave(save).SetScale(scale).
		SetAdjustment(adj).SetConvertToQ(toQ).SetCompatibility(compat).
		SetBackgroundSubtraction(bg)
}

func TestBuilder_EquivalentBuildersYieldEqualStates(t *testing.T) {
	a, err := buildFromLeaves(t).Build()
	require.NoError(t, err)
	b, err := buildFromLeaves(t).Build()
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Nil(t, a.Tree())
}

func TestBuilder_ProductDoesNotAliasBuilder(t *testing.T) {
	builder := buildFromLeaves(t)
	first, err := builder.Build()
	require.NoError(t, err)

	first.Data.SampleScatter = "mutated"
	first.Save.FileFormats[0] = enums.RKH

	second, err := builder.Build()
	require.NoError(t, err)
	assert.Equal(t, "SANS2D00022024", second.Data.SampleScatter)
	assert.Equal(t, enums.NXcanSAS, second.Save.FileFormats[0])
}

func TestBuilder_InvalidStateFailsBuild(t *testing.T) {
	st, err := buildFromLeaves(t).SetConvertToQ(&state.ConvertToQ{}).Build()
	assert.Nil(t, st)
	verr := validationError(t, err)
	assert.True(t, verr.Has("convert_to_q.q_min"))
}

func TestBuilder_LeafBuildValidates(t *testing.T) {
	_, err := state.NewDataBuilder(enums.LOQ).Build()
	verr := validationError(t, err)
	assert.Equal(t, "Data", verr.Object)
	assert.Contains(t, verr.Fields(), "sample_scatter")
}
