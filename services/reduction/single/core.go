// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package single

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/AleutianAI/sansreduction/services/reduction/enums"
	"github.com/AleutianAI/sansreduction/services/reduction/state"
	"github.com/AleutianAI/sansreduction/services/reduction/workspace"
)

var (
	// ErrBinning is returned when two histograms cannot be combined bin by
	// bin, or when no binning can be derived from the state.
	ErrBinning = errors.New("incompatible binning")

	// ErrNotHistogram is returned when a merge input is not binned.
	ErrNotHistogram = errors.New("merge input is not a histogram")
)

// PassThroughCore stands in for the physics reduction. Event runs are
// binned on their recorded TOF value using the wavelength leaf, counts
// are divided by the slice factor and the can is subtracted bin by bin.
// Histogram runs pass through with the same treatment.
type PassThroughCore struct{}

func (PassThroughCore) Reduce(ctx context.Context, st *state.State, in Inputs, bank enums.DetectorType) (workspace.Workspace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sample, err := toHistogram(st, in.Sample, in.SampleFactor)
	if err != nil {
		return nil, err
	}
	if in.Can != nil {
		can, err := toHistogram(st, in.Can, in.CanFactor)
		if err != nil {
			return nil, err
		}
		if err := subtract(sample, can); err != nil {
			return nil, err
		}
	}
	sample.WorkspaceTitle = fmt.Sprintf("%s reduction of %s", bank, in.Sample.Name())
	return sample, nil
}

func toHistogram(st *state.State, ws workspace.Workspace, factor float64) (*workspace.HistogramWorkspace, error) {
	var h *workspace.HistogramWorkspace
	switch w := ws.(type) {
	case *workspace.HistogramWorkspace:
		h = w.Clone().(*workspace.HistogramWorkspace)
	case *workspace.EventWorkspace:
		if st.Wavelength == nil {
			return nil, fmt.Errorf("%w: no wavelength binning for %s", ErrBinning, ws.Name())
		}
		edges, err := binEdges(st.Wavelength.WavelengthRange)
		if err != nil {
			return nil, err
		}
		h = binEvents(w, edges)
	default:
		return nil, fmt.Errorf("cannot reduce workspace of type %T", ws)
	}
	if factor > 0 && factor != 1 {
		for i := range h.Y {
			h.Y[i] /= factor
			h.E[i] /= factor
		}
	}
	return h, nil
}

// maxBins caps the histogram length a wavelength range may ask for.
const maxBins = 1_000_000

// binEdges expands a wavelength range into bin edges. Log steps are
// fractional: each edge is the previous one times (1 + step).
func binEdges(w state.WavelengthRange) ([]float64, error) {
	if w.WavelengthLow == nil || w.WavelengthHigh == nil || w.WavelengthStep == nil {
		return nil, fmt.Errorf("%w: wavelength range is not set", ErrBinning)
	}
	low, high, step := *w.WavelengthLow, *w.WavelengthHigh, *w.WavelengthStep
	logarithmic := w.WavelengthStepType == enums.Log || w.WavelengthStepType == enums.RangeLog
	if step <= 0 || high <= low || (logarithmic && low <= 0) {
		return nil, fmt.Errorf("%w: cannot bin %v to %v in steps of %v", ErrBinning, low, high, step)
	}
	n := (high - low) / step
	if logarithmic {
		n = math.Log(high/low) / math.Log1p(step)
	}
	if math.IsNaN(n) || n > maxBins {
		return nil, fmt.Errorf("%w: %v to %v in steps of %v needs more than %d bins", ErrBinning, low, high, step, maxBins)
	}
	edges := make([]float64, 1, int(math.Ceil(n))+2)
	edges[0] = low
	for k := 1; ; k++ {
		x := low + float64(k)*step
		if logarithmic {
			x = low * math.Pow(1+step, float64(k))
		}
		if x >= high-1e-9*step {
			return append(edges, high), nil
		}
		edges = append(edges, x)
	}
}

func binEvents(ev *workspace.EventWorkspace, edges []float64) *workspace.HistogramWorkspace {
	n := len(edges) - 1
	h := &workspace.HistogramWorkspace{
		Header: ev.Header,
		X:      edges,
		Y:      make([]float64, n),
		E:      make([]float64, n),
		Unit:   "Wavelength",
	}
	for _, e := range ev.Events {
		// first edge strictly greater than the value
		i := sort.SearchFloat64s(edges, e.TOF)
		if i < len(edges) && edges[i] == e.TOF {
			i++
		}
		if i == 0 || i > n {
			continue
		}
		h.Y[i-1]++
	}
	for i, y := range h.Y {
		h.E[i] = math.Sqrt(y)
	}
	return h
}

func subtract(sample, can *workspace.HistogramWorkspace) error {
	if len(sample.Y) != len(can.Y) {
		return fmt.Errorf("%w: sample has %d bins, can has %d", ErrBinning, len(sample.Y), len(can.Y))
	}
	for i := range sample.Y {
		sample.Y[i] -= can.Y[i]
		sample.E[i] = math.Hypot(sample.E[i], can.E[i])
	}
	return nil
}

// StitchMerger joins the low- and high-angle histograms. The high-angle
// data is rescaled as scale*HAB + shift. Below the merge range the LAB
// data is used, above it the rescaled HAB data, and inside it the mean of
// both. Without a merge range the whole axis is the overlap.
//
// The fit mode decides whether shift and scale are taken from the state
// or fitted over the overlap by least squares.
type StitchMerger struct{}

func (StitchMerger) Merge(ctx context.Context, st *state.State, lab, hab workspace.Workspace) (workspace.Workspace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l, ok := lab.(*workspace.HistogramWorkspace)
	if !ok {
		return nil, fmt.Errorf("%w: LAB", ErrNotHistogram)
	}
	h, ok := hab.(*workspace.HistogramWorkspace)
	if !ok {
		return nil, fmt.Errorf("%w: HAB", ErrNotHistogram)
	}
	if len(l.Y) != len(h.Y) || len(l.X) != len(h.X) {
		return nil, fmt.Errorf("%w: LAB has %d bins, HAB has %d", ErrBinning, len(l.Y), len(h.Y))
	}

	rm := st.Reduction
	low, high := math.Inf(-1), math.Inf(1)
	if rm.MergeRangeMin != nil {
		low = *rm.MergeRangeMin
	}
	if rm.MergeRangeMax != nil {
		high = *rm.MergeRangeMax
	}
	var overlap []int
	for i := range l.Y {
		if x := l.Centre(i); x >= low && x <= high {
			overlap = append(overlap, i)
		}
	}
	shift, scale := fitMerge(rm.MergeFitMode, rm.MergeShift, rm.MergeScale, l.Y, h.Y, overlap)

	out := &workspace.HistogramWorkspace{
		Header: workspace.Header{
			WorkspaceName:  "merged",
			WorkspaceTitle: fmt.Sprintf("merged with shift %.6g and scale %.6g", shift, scale),
			Inst:           l.Inst,
		},
		X:    append([]float64(nil), l.X...),
		Y:    make([]float64, len(l.Y)),
		E:    make([]float64, len(l.Y)),
		Unit: l.Unit,
	}
	for i := range l.Y {
		hy, he := scale*h.Y[i]+shift, scale*h.E[i]
		switch x := l.Centre(i); {
		case x < low:
			out.Y[i], out.E[i] = l.Y[i], l.E[i]
		case x > high:
			out.Y[i], out.E[i] = hy, he
		default:
			out.Y[i] = (l.Y[i] + hy) / 2
			out.E[i] = math.Hypot(l.E[i], he) / 2
		}
	}
	return out, nil
}

// fitMerge returns the shift and scale to apply to the HAB data. Fitted
// values fall back to the given ones when the overlap cannot constrain
// them.
func fitMerge(mode enums.FitMode, shift, scale float64, lab, hab []float64, overlap []int) (float64, float64) {
	n := float64(len(overlap))
	if mode == enums.NoFit || n == 0 {
		return shift, scale
	}
	var sl, sh, shh, slh float64
	for _, i := range overlap {
		sl += lab[i]
		sh += hab[i]
		shh += hab[i] * hab[i]
		slh += lab[i] * hab[i]
	}
	switch mode {
	case enums.ShiftOnly:
		return (sl - scale*sh) / n, scale
	case enums.ScaleOnly:
		if sh == 0 {
			return shift, scale
		}
		return shift, (sl - n*shift) / sh
	case enums.FitBoth:
		denom := n*shh - sh*sh
		if denom == 0 {
			return (sl - scale*sh) / n, scale
		}
		fitted := (n*slh - sl*sh) / denom
		return (sl - fitted*sh) / n, fitted
	}
	return shift, scale
}

var (
	_ Core   = PassThroughCore{}
	_ Merger = StitchMerger{}
)
