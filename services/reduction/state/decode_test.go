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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/sansreduction/services/reduction/enums"
	"github.com/AleutianAI/sansreduction/services/reduction/ipf"
	"github.com/AleutianAI/sansreduction/services/reduction/params"
	"github.com/AleutianAI/sansreduction/services/reduction/state"
	"github.com/AleutianAI/sansreduction/services/reduction/state/statetest"
)

func TestFromTree_AppliesInstrumentDefaults(t *testing.T) {
	st, err := state.FromTree(statetest.Tree("SANS2D00022024"))
	require.NoError(t, err)

	assert.Equal(t, enums.ISIS, st.Data.Facility)
	assert.Equal(t, 0.053, st.Move.SampleOffset)
	assert.Equal(t, "rear-detector", st.Move.Detectors[enums.LAB].DetectorName)
	assert.Equal(t, -90.0, st.Mask.PhiMin)
	assert.Equal(t, 1.0, st.Reduction.MergeScale)
	assert.Equal(t, 3, st.Adjustment.CalculateTransmission.TransmissionMonitor)
	assert.Equal(t, []enums.SaveType{enums.NXcanSAS}, st.Save.FileFormats)
	assert.True(t, st.Save.ZeroFreeCorrection)
}

func TestFromTree_MissingLeafStaysNil(t *testing.T) {
	tree := statetest.Tree("SANS2D00022024")
	delete(tree, state.LeafMask)

	st, err := state.FromTree(tree)
	require.NoError(t, err)
	assert.Nil(t, st.Mask)
	assert.Contains(t, validationError(t, st.Validate()).Fields(), state.LeafMask)
}

func TestFromTree_TypeConstraints(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(state.Tree)
		field  string
	}{
		{"unknown leaf", func(tr state.Tree) { tr["physics"] = map[string]any{} }, "physics"},
		{"leaf not a mapping", func(tr state.Tree) { tr["slice"] = "0-100" }, "slice"},
		{"string for float", func(tr state.Tree) {
			tr["wavelength"].(map[string]any)["wavelength_low"] = "two"
		}, "wavelength"},
		{"unknown enum", func(tr state.Tree) {
			tr["reduction"].(map[string]any)["reduction_mode"] = "Sideways"
		}, "reduction"},
		{"unknown field", func(tr state.Tree) {
			tr["save"].(map[string]any)["output_colour"] = "blue"
		}, "save"},
		{"negative period", func(tr state.Tree) {
			tr["data"].(map[string]any)["sample_scatter_period"] = -1
		}, "data"},
		{"fractional run number", func(tr state.Tree) {
			tr["data"].(map[string]any)["sample_scatter_run_number"] = 22024.5
		}, "data"},
		{"bool for run name", func(tr state.Tree) {
			tr["data"].(map[string]any)["sample_scatter"] = true
		}, "data.sample_scatter"},
		{"number for run name", func(tr state.Tree) {
			tr["data"].(map[string]any)["sample_scatter"] = 123
		}, "data.sample_scatter"},
		{"fractional monitor", func(tr state.Tree) {
			tr["adjustment"].(map[string]any)["normalize_to_monitor"].(map[string]any)["incident_monitor"] = 1.5
		}, "adjustment.normalize_to_monitor.incident_monitor"},
		{"number for bool", func(tr state.Tree) {
			tr["save"].(map[string]any)["zero_free_correction"] = 1
		}, "save.zero_free_correction"},
		{"number in file list", func(tr state.Tree) {
			tr["adjustment"].(map[string]any)["calculate_transmission"].(map[string]any)["transmission_roi_files"] = []any{7}
		}, "adjustment.calculate_transmission.transmission_roi_files"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := statetest.Tree("SANS2D00022024")
			tt.mutate(tree)

			st, err := state.FromTree(tree)
			assert.Nil(t, st)
			require.ErrorIs(t, err, params.ErrTypeConstraint)
			var te *params.TypeError
			require.ErrorAs(t, err, &te)
			assert.Contains(t, te.Field, tt.field)
		})
	}
}

func TestFromTree_WholeFloatRunNumber(t *testing.T) {
	tree := statetest.Tree("SANS2D00022024")
	tree["data"].(map[string]any)["sample_scatter_run_number"] = 22024.0

	st, err := state.FromTree(tree)
	require.NoError(t, err)
	assert.Equal(t, 22024, st.Data.SampleScatterRunNumber.Int())
}

func TestFromTree_KeepsSourceTree(t *testing.T) {
	tree := statetest.Tree("SANS2D00022024")
	st, err := state.FromTree(tree)
	require.NoError(t, err)

	assert.Equal(t, tree, st.Tree())
	tree["data"].(map[string]any)["sample_scatter"] = "changed"
	assert.Equal(t, "SANS2D00022024", st.Tree()["data"].(map[string]any)["sample_scatter"])
}

func TestFromTree_YAMLDocument(t *testing.T) {
	doc := `
data: {sample_scatter: LOQ74044, instrument: LOQ, can_scatter: LOQ74019}
move: {detectors: {LAB: {detector_name: main-detector-bank, detector_name_short: main, sample_centre_pos1: 0.3}}}
mask: {}
reduction: {reduction_mode: HAB, detector_names: {HAB: HAB}}
slice: {start_time: [0], end_time: [600]}
wavelength: {wavelength_low: 2.2, wavelength_high: 10, wavelength_step: 0.035, wavelength_step_type: Log}
save: {}
scale: {}
adjustment:
  calculate_transmission: {wavelength_low: 2.2, wavelength_high: 10, wavelength_step: 0.035}
  normalize_to_monitor: {wavelength_low: 2.2, wavelength_high: 10, wavelength_step: 0.035}
  wavelength_and_pixel_adjustment: {wavelength_low: 2.2, wavelength_high: 10, wavelength_step: 0.035}
convert_to_q: {q_min: 0.008, q_max: 0.28, q_1d_rebin_string: "0.008,-0.02,0.28"}
background_subtraction: {}
`
	var tree state.Tree
	require.NoError(t, yaml.Unmarshal([]byte(doc), &tree))

	st, err := state.FromTree(tree)
	require.NoError(t, err)
	require.NoError(t, st.Validate())

	assert.Equal(t, enums.LOQ, st.Data.Instrument)
	assert.Equal(t, 0.3, st.Move.Detectors[enums.LAB].SampleCentrePos1)
	assert.Equal(t, []float64{600}, st.Slice.EndTime)
	assert.Equal(t, enums.Log, st.Wavelength.WavelengthStepType)
	assert.Equal(t, 2, st.Adjustment.CalculateTransmission.TransmissionMonitor)
	require.NotNil(t, st.Compatibility)

	name, err := st.Reduction.DetectorNameForReductionMode(enums.ReductionModeHAB)
	require.NoError(t, err)
	assert.Equal(t, "HAB", name)
}

func TestDecoder_ResolvesDetectorNamesFromParameterFile(t *testing.T) {
	dir := t.TempDir()
	xml := `<parameter-file instrument="SANS2D"><component-link name="SANS2D">
<parameter name="low-angle-detector-name"><value val="rear-detector"/></parameter>
<parameter name="high-angle-detector-name"><value val="front-detector"/></parameter>
</component-link></parameter-file>`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "SANS2D_Parameters.xml"), []byte(xml), 0o644))

	tree := statetest.Tree("SANS2D00022024")
	tree["reduction"].(map[string]any)["detector_names"] = map[string]any{"LAB": "explicit"}

	d := &state.Decoder{IPF: ipf.Resolver{Dir: dir}}
	st, err := d.Deserialize(tree)
	require.NoError(t, err)

	assert.Equal(t, "explicit", st.Reduction.DetectorNames[enums.LAB])
	assert.Equal(t, "front-detector", st.Reduction.DetectorNames[enums.HAB])
}
