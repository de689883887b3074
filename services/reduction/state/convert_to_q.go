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
	"github.com/AleutianAI/sansreduction/pkg/validation"
	"github.com/AleutianAI/sansreduction/services/reduction/enums"
)

// ConvertToQ configures the conversion from wavelength to momentum transfer.
type ConvertToQ struct {
	ReductionDimensionality enums.ReductionDimensionality `yaml:"reduction_dimensionality"`

	UseGravity         bool    `yaml:"use_gravity"`
	GravityExtraLength float64 `yaml:"gravity_extra_length" validate:"gte=0"`
	RadiusCutoff       float64 `yaml:"radius_cutoff" validate:"gte=0"`
	WavelengthCutoff   float64 `yaml:"wavelength_cutoff" validate:"gte=0"`

	// 1D
	QMin           *float64 `yaml:"q_min,omitempty"`
	QMax           *float64 `yaml:"q_max,omitempty"`
	Q1DRebinString string   `yaml:"q_1d_rebin_string,omitempty"`

	// 2D
	QXYMax      *float64            `yaml:"q_xy_max,omitempty"`
	QXYStep     *float64            `yaml:"q_xy_step,omitempty"`
	QXYStepType enums.RangeStepType `yaml:"q_xy_step_type"`

	UseQResolution               bool     `yaml:"use_q_resolution"`
	QResolutionCollimationLength *float64 `yaml:"q_resolution_collimation_length,omitempty"`
	QResolutionDeltaR            *float64 `yaml:"q_resolution_delta_r,omitempty"`
	ModeratorFile                string   `yaml:"moderator_file,omitempty"`
	QResolutionA1                *float64 `yaml:"q_resolution_a1,omitempty"`
	QResolutionA2                *float64 `yaml:"q_resolution_a2,omitempty"`
	QResolutionH1                *float64 `yaml:"q_resolution_h1,omitempty"`
	QResolutionW1                *float64 `yaml:"q_resolution_w1,omitempty"`
	QResolutionH2                *float64 `yaml:"q_resolution_h2,omitempty"`
	QResolutionW2                *float64 `yaml:"q_resolution_w2,omitempty"`
}

func (c *ConvertToQ) Validate() error {
	r := validation.NewReport("ConvertToQ")
	r.Struct(c)

	switch c.ReductionDimensionality {
	case enums.OneDim:
		r.Check(c.QMin != nil, "q_min", "must be set for a OneDim reduction")
		r.Check(c.QMax != nil, "q_max", "must be set for a OneDim reduction")
		nonNegative(r, "q_min", c.QMin)
		ordered(r, "q_min", "q_max", c.QMin, c.QMax)
		if c.Q1DRebinString != "" {
			if _, err := ParseRebinString(c.Q1DRebinString); err != nil {
				r.Add("q_1d_rebin_string", err.Error())
			}
		}
	case enums.TwoDim:
		r.Check(c.QXYMax != nil, "q_xy_max", "must be set for a TwoDim reduction")
		r.Check(c.QXYStep != nil, "q_xy_step", "must be set for a TwoDim reduction")
		positive(r, "q_xy_max", c.QXYMax)
		positive(r, "q_xy_step", c.QXYStep)
	}

	if c.UseQResolution {
		r.Check(c.QResolutionCollimationLength != nil, "q_resolution_collimation_length", "must be set when use_q_resolution is on")
		r.Check(c.QResolutionDeltaR != nil, "q_resolution_delta_r", "must be set when use_q_resolution is on")
		r.Check(c.ModeratorFile != "", "moderator_file", "must be set when use_q_resolution is on")

		circular := c.QResolutionA1 != nil && c.QResolutionA2 != nil
		rectangular := c.QResolutionH1 != nil && c.QResolutionW1 != nil && c.QResolutionH2 != nil && c.QResolutionW2 != nil
		if !circular && !rectangular {
			r.Add("q_resolution_a1", "needs either a1/a2 or h1/w1/h2/w2 apertures when use_q_resolution is on")
		}
	}
	return r.Err()
}

func (c *ConvertToQ) Clone() *ConvertToQ {
	if c == nil {
		return nil
	}
	cp := *c
	cp.QMin, cp.QMax = cloneFloat(c.QMin), cloneFloat(c.QMax)
	cp.QXYMax, cp.QXYStep = cloneFloat(c.QXYMax), cloneFloat(c.QXYStep)
	cp.QResolutionCollimationLength = cloneFloat(c.QResolutionCollimationLength)
	cp.QResolutionDeltaR = cloneFloat(c.QResolutionDeltaR)
	cp.QResolutionA1, cp.QResolutionA2 = cloneFloat(c.QResolutionA1), cloneFloat(c.QResolutionA2)
	cp.QResolutionH1, cp.QResolutionW1 = cloneFloat(c.QResolutionH1), cloneFloat(c.QResolutionW1)
	cp.QResolutionH2, cp.QResolutionW2 = cloneFloat(c.QResolutionH2), cloneFloat(c.QResolutionW2)
	return &cp
}

// ConvertToQBuilder builds a ConvertToQ leaf, OneDim without gravity by
// default.
type ConvertToQBuilder struct {
	state *ConvertToQ
}

func NewConvertToQBuilder(data *Data) (*ConvertToQBuilder, error) {
	if _, err := layoutFor(data, "convert to q builder"); err != nil {
		return nil, err
	}
	return &ConvertToQBuilder{state: &ConvertToQ{ReductionDimensionality: enums.OneDim, QXYStepType: enums.Lin}}, nil
}

func (b *ConvertToQBuilder) SetReductionDimensionality(v enums.ReductionDimensionality) *ConvertToQBuilder {
	b.state.ReductionDimensionality = v
	return b
}

func (b *ConvertToQBuilder) SetGravity(use bool, extraLength float64) *ConvertToQBuilder {
	b.state.UseGravity, b.state.GravityExtraLength = use, extraLength
	return b
}

func (b *ConvertToQBuilder) SetCutoffs(radius, wavelength float64) *ConvertToQBuilder {
	b.state.RadiusCutoff, b.state.WavelengthCutoff = radius, wavelength
	return b
}

func (b *ConvertToQBuilder) SetQRange(low, high float64) *ConvertToQBuilder {
	b.state.QMin, b.state.QMax = &low, &high
	return b
}

func (b *ConvertToQBuilder) SetQ1DRebinString(v string) *ConvertToQBuilder {
	b.state.Q1DRebinString = v
	return b
}

func (b *ConvertToQBuilder) SetQXY(qMax, step float64, stepType enums.RangeStepType) *ConvertToQBuilder {
	b.state.QXYMax, b.state.QXYStep, b.state.QXYStepType = &qMax, &step, stepType
	return b
}

// SetCircularQResolution switches on Q resolution with circular apertures.
func (b *ConvertToQBuilder) SetCircularQResolution(collimation, deltaR float64, moderator string, a1, a2 float64) *ConvertToQBuilder {
	b.state.UseQResolution = true
	b.state.QResolutionCollimationLength, b.state.QResolutionDeltaR = &collimation, &deltaR
	b.state.ModeratorFile = moderator
	b.state.QResolutionA1, b.state.QResolutionA2 = &a1, &a2
	return b
}

func (b *ConvertToQBuilder) Build() (*ConvertToQ, error) {
	return build(b.state)
}
