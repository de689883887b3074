// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package statetest provides reduction state fixtures for tests.
package statetest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/sansreduction/services/reduction/state"
)

func wavelength(low, high float64) map[string]any {
	return map[string]any{
		"wavelength_low":       low,
		"wavelength_high":      high,
		"wavelength_step":      0.125,
		"wavelength_step_type": "Lin",
	}
}

// Tree returns a complete, valid SANS2D LAB reduction tree for the given
// sample scatter workspace.
func Tree(sampleScatter string) state.Tree {
	return state.Tree{
		"data": map[string]any{
			"sample_scatter":            sampleScatter,
			"sample_scatter_run_number": 22024,
			"instrument":                "SANS2D",
		},
		"move":      map[string]any{"sample_offset": 0.053},
		"mask":      map[string]any{"radius_min": 0.038, "radius_max": 1.5},
		"reduction": map[string]any{"reduction_mode": "LAB"},
		"slice":     map[string]any{},
		"wavelength": map[string]any{
			"wavelength_low":       2.0,
			"wavelength_high":      14.0,
			"wavelength_step":      0.125,
			"wavelength_step_type": "Lin",
			"rebin_type":           "Rebin",
		},
		"save":  map[string]any{"file_format": []any{"NXcanSAS"}},
		"scale": map[string]any{"shape": "Disc", "thickness": 1.0, "width": 8.0, "height": 8.0},
		"adjustment": map[string]any{
			"calculate_transmission":          wavelength(2, 14),
			"normalize_to_monitor":            wavelength(2, 14),
			"wavelength_and_pixel_adjustment": wavelength(2, 14),
		},
		"convert_to_q":           map[string]any{"q_min": 0.001, "q_max": 0.2},
		"compatibility":          map[string]any{},
		"background_subtraction": map[string]any{},
	}
}

// State decodes Tree(sampleScatter), applies mutate and requires the result
// to validate.
func State(t testing.TB, sampleScatter string, mutate ...func(*state.State)) *state.State {
	t.Helper()
	st, err := state.FromTree(Tree(sampleScatter))
	require.NoError(t, err)
	for _, m := range mutate {
		m(st)
	}
	require.NoError(t, st.Validate())
	return st
}
