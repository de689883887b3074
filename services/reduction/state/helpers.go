// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package state

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/AleutianAI/sansreduction/pkg/validation"
	"github.com/AleutianAI/sansreduction/services/reduction/enums"
)

// WavelengthRange is the low/high/step wavelength binning shared by several
// leaves. Wavelengths are in Angstrom.
type WavelengthRange struct {
	WavelengthLow      *float64            `yaml:"wavelength_low,omitempty"`
	WavelengthHigh     *float64            `yaml:"wavelength_high,omitempty"`
	WavelengthStep     *float64            `yaml:"wavelength_step,omitempty"`
	WavelengthStepType enums.RangeStepType `yaml:"wavelength_step_type"`
}

func (w WavelengthRange) check(r *validation.Report) {
	r.Check(w.WavelengthLow != nil, "wavelength_low", "must be set")
	r.Check(w.WavelengthHigh != nil, "wavelength_high", "must be set")
	r.Check(w.WavelengthStep != nil, "wavelength_step", "must be set")
	r.Check(w.WavelengthStepType != enums.StepNotSet, "wavelength_step_type", "must be set")
	nonNegative(r, "wavelength_low", w.WavelengthLow)
	positive(r, "wavelength_step", w.WavelengthStep)
	ordered(r, "wavelength_low", "wavelength_high", w.WavelengthLow, w.WavelengthHigh)
}

// covers reports whether inner lies within w. Unset bounds cover anything.
func (w WavelengthRange) covers(inner WavelengthRange) bool {
	if w.WavelengthLow != nil && inner.WavelengthLow != nil && *inner.WavelengthLow < *w.WavelengthLow {
		return false
	}
	if w.WavelengthHigh != nil && inner.WavelengthHigh != nil && *inner.WavelengthHigh > *w.WavelengthHigh {
		return false
	}
	return true
}

func (w WavelengthRange) clone() WavelengthRange {
	return WavelengthRange{
		WavelengthLow:      cloneFloat(w.WavelengthLow),
		WavelengthHigh:     cloneFloat(w.WavelengthHigh),
		WavelengthStep:     cloneFloat(w.WavelengthStep),
		WavelengthStepType: w.WavelengthStepType,
	}
}

// SetRange fills all four fields at once.
func (w *WavelengthRange) SetRange(low, high, step float64, stepType enums.RangeStepType) {
	w.WavelengthLow, w.WavelengthHigh, w.WavelengthStep = &low, &high, &step
	w.WavelengthStepType = stepType
}

func positive(r *validation.Report, field string, v *float64) {
	if v != nil && !(*v > 0) {
		r.Addf(field, "must be greater than 0, got %v", *v)
	}
}

func nonNegative(r *validation.Report, field string, v *float64) {
	if v != nil && *v < 0 {
		r.Addf(field, "must not be negative, got %v", *v)
	}
}

// ordered requires low < high when both are set.
func ordered(r *validation.Report, lowField, highField string, low, high *float64) {
	if low != nil && high != nil && !(*low < *high) {
		r.Addf(lowField, "must be less than %s (%v >= %v)", highField, *low, *high)
	}
}

// together requires that either all or none of the named values are set.
func together(r *validation.Report, fields []string, set ...bool) {
	n := 0
	for _, s := range set {
		if s {
			n++
		}
	}
	if n != 0 && n != len(set) {
		r.Addf(fields[0], "must be set together with %s", strings.Join(fields[1:], ", "))
	}
}

// intRanges checks paired start/stop index lists.
func intRanges(r *validation.Report, field string, starts, stops []int) {
	if len(starts) != len(stops) {
		r.Addf(field, "has %d start(s) but %d stop(s)", len(starts), len(stops))
		return
	}
	for i := range starts {
		if starts[i] > stops[i] {
			r.Addf(field, "range %d starts after it stops (%d > %d)", i, starts[i], stops[i])
		}
	}
}

func nonNegativeInts(r *validation.Report, field string, values []int) {
	for _, v := range values {
		if v < 0 {
			r.Addf(field, "must not contain negative indices, got %d", v)
			return
		}
	}
}

// ParseRebinString parses a "x1,dx1,x2[,dx2,x3...]" binning string. A
// negative width selects logarithmic steps for that segment.
func ParseRebinString(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) < 3 || len(parts)%2 == 0 {
		return nil, fmt.Errorf("rebin string %q must hold an odd number (>= 3) of values", s)
	}
	out := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("rebin string %q: %w", s, err)
		}
		out[i] = v
	}
	for i := 1; i < len(out); i += 2 {
		if out[i] == 0 {
			return nil, fmt.Errorf("rebin string %q: zero bin width", s)
		}
		if out[i+1] <= out[i-1] {
			return nil, fmt.Errorf("rebin string %q: boundaries must increase", s)
		}
	}
	return out, nil
}
