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
	"maps"

	"github.com/AleutianAI/sansreduction/pkg/validation"
	"github.com/AleutianAI/sansreduction/services/reduction/enums"
	"github.com/AleutianAI/sansreduction/services/reduction/ipf"
)

// IPF parameter names holding the detector component names.
const (
	LowAngleDetectorParam  = "low-angle-detector-name"
	HighAngleDetectorParam = "high-angle-detector-name"
)

// ReductionMode selects the banks to reduce, the output dimensionality and
// how LAB and HAB are merged.
type ReductionMode struct {
	ReductionMode           enums.ReductionMode           `yaml:"reduction_mode"`
	ReductionDimensionality enums.ReductionDimensionality `yaml:"reduction_dimensionality"`

	MergeFitMode  enums.FitMode `yaml:"merge_fit_mode"`
	MergeShift    float64       `yaml:"merge_shift"`
	MergeScale    float64       `yaml:"merge_scale" validate:"gt=0"`
	MergeRangeMin *float64      `yaml:"merge_range_min,omitempty"`
	MergeRangeMax *float64      `yaml:"merge_range_max,omitempty"`

	// DetectorNames maps each bank to its instrument component name. Names
	// the parameter file does not provide stay empty.
	DetectorNames map[enums.DetectorType]string `yaml:"detector_names,omitempty"`
}

func (m *ReductionMode) Validate() error {
	r := validation.NewReport("ReductionMode")
	r.Struct(m)
	ordered(r, "merge_range_min", "merge_range_max", m.MergeRangeMin, m.MergeRangeMax)
	return r.Err()
}

func (m *ReductionMode) Clone() *ReductionMode {
	if m == nil {
		return nil
	}
	c := *m
	c.MergeRangeMin, c.MergeRangeMax = cloneFloat(m.MergeRangeMin), cloneFloat(m.MergeRangeMax)
	c.DetectorNames = maps.Clone(m.DetectorNames)
	return &c
}

// DetectorNameForReductionMode returns the component name of a single-bank
// mode. Merged and All have no single component and fail with a
// *enums.SelectionError.
func (m *ReductionMode) DetectorNameForReductionMode(mode enums.ReductionMode) (string, error) {
	det, ok := mode.DetectorType()
	if !ok {
		return "", &enums.SelectionError{What: "detector for reduction mode", Value: mode.String(), Err: enums.ErrUnsupported}
	}
	return m.DetectorNames[det], nil
}

// MergeStrategy is the order banks are combined in when merging.
func (m *ReductionMode) MergeStrategy() []enums.DetectorType {
	return []enums.DetectorType{enums.LAB, enums.HAB}
}

// AllReductionModes lists the outputs an All reduction produces.
func (m *ReductionMode) AllReductionModes() []enums.ReductionMode {
	return []enums.ReductionMode{enums.ReductionModeLAB, enums.ReductionModeHAB, enums.Merged}
}

// ReductionModeBuilder builds a ReductionMode leaf.
type ReductionModeBuilder struct {
	state *ReductionMode
}

// NewReductionModeBuilder starts from LAB, OneDim, no fit, shift 0, scale 1.
// Detector names are resolved from params when it is non-nil.
func NewReductionModeBuilder(data *Data, params ipf.Lookup) (*ReductionModeBuilder, error) {
	if _, err := layoutFor(data, "reduction mode builder"); err != nil {
		return nil, err
	}
	m := &ReductionMode{
		ReductionMode:           enums.ReductionModeLAB,
		ReductionDimensionality: enums.OneDim,
		MergeFitMode:            enums.NoFit,
		MergeScale:              1.0,
		DetectorNames:           map[enums.DetectorType]string{enums.LAB: "", enums.HAB: ""},
	}
	resolveDetectorNames(m, params)
	return &ReductionModeBuilder{state: m}, nil
}

func resolveDetectorNames(m *ReductionMode, params ipf.Lookup) {
	if params == nil {
		return
	}
	if m.DetectorNames == nil {
		m.DetectorNames = make(map[enums.DetectorType]string, 2)
	}
	for det, key := range map[enums.DetectorType]string{enums.LAB: LowAngleDetectorParam, enums.HAB: HighAngleDetectorParam} {
		if m.DetectorNames[det] != "" {
			continue
		}
		if name, ok := params.Lookup(key); ok {
			m.DetectorNames[det] = name
		}
	}
}

func (b *ReductionModeBuilder) SetReductionMode(v enums.ReductionMode) *ReductionModeBuilder {
	b.state.ReductionMode = v
	return b
}

func (b *ReductionModeBuilder) SetReductionDimensionality(v enums.ReductionDimensionality) *ReductionModeBuilder {
	b.state.ReductionDimensionality = v
	return b
}

func (b *ReductionModeBuilder) SetMergeFitMode(v enums.FitMode) *ReductionModeBuilder {
	b.state.MergeFitMode = v
	return b
}

func (b *ReductionModeBuilder) SetMergeShift(v float64) *ReductionModeBuilder {
	b.state.MergeShift = v
	return b
}

func (b *ReductionModeBuilder) SetMergeScale(v float64) *ReductionModeBuilder {
	b.state.MergeScale = v
	return b
}

func (b *ReductionModeBuilder) SetMergeRange(low, high float64) *ReductionModeBuilder {
	b.state.MergeRangeMin, b.state.MergeRangeMax = &low, &high
	return b
}

func (b *ReductionModeBuilder) SetDetectorName(det enums.DetectorType, name string) *ReductionModeBuilder {
	b.state.DetectorNames[det] = name
	return b
}

func (b *ReductionModeBuilder) Build() (*ReductionMode, error) {
	return build(b.state)
}
