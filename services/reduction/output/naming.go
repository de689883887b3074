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
	"strconv"
	"strings"

	"github.com/AleutianAI/sansreduction/services/reduction/state"
)

// Name returns the workspace name for the bank output of st.
//
// A user specified output name is used as is. Otherwise the name is
// <run>_<bank>_<1D|2D>_<wavelength low>_<wavelength high>. The slice tag
// follows when the state slices, and the user suffix comes last. When a
// user name is set, single-bank outputs of a multi-bank reduction carry the
// bank so they do not collide; UseReductionModeAsSuffix adds it to every
// output.
func Name(st *state.State, bank Bank) string {
	var b strings.Builder
	save := st.Save
	if save == nil {
		save = &state.Save{}
	}

	if save.UserSpecifiedOutputName != "" {
		b.WriteString(save.UserSpecifiedOutputName)
		multi := st.Reduction != nil && st.Reduction.ReductionMode.Merges()
		if save.UseReductionModeAsSuffix || (multi && bank != BankMerged) {
			b.WriteString("_" + bank.String())
		}
	} else {
		if st.Data != nil {
			b.WriteString(st.Data.RunLabel())
		}
		b.WriteString("_" + bank.String())
		if st.Reduction != nil {
			b.WriteString("_" + st.Reduction.ReductionDimensionality.Suffix())
		}
		if st.Wavelength != nil {
			b.WriteString("_" + formatWavelength(st.Wavelength.WavelengthLow))
			b.WriteString("_" + formatWavelength(st.Wavelength.WavelengthHigh))
		}
	}

	b.WriteString(st.Slice.Tag())
	if save.UserSpecifiedOutputNameSuffix != "" {
		b.WriteString(save.UserSpecifiedOutputNameSuffix)
	}
	return b.String()
}

// formatWavelength keeps at least one decimal, so 2 prints as "2.0".
func formatWavelength(v *float64) string {
	if v == nil {
		return "0.0"
	}
	s := strconv.FormatFloat(*v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
