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
	"slices"
	"strings"

	"github.com/AleutianAI/sansreduction/pkg/validation"
	"github.com/AleutianAI/sansreduction/services/reduction/enums"
)

// MaskDetector lists the strips, blocks and spectra masked on one bank.
type MaskDetector struct {
	SingleVerticalStripMask   []int `yaml:"single_vertical_strip_mask,omitempty"`
	RangeVerticalStripStart   []int `yaml:"range_vertical_strip_start,omitempty"`
	RangeVerticalStripStop    []int `yaml:"range_vertical_strip_stop,omitempty"`
	SingleHorizontalStripMask []int `yaml:"single_horizontal_strip_mask,omitempty"`
	RangeHorizontalStripStart []int `yaml:"range_horizontal_strip_start,omitempty"`
	RangeHorizontalStripStop  []int `yaml:"range_horizontal_strip_stop,omitempty"`
	BlockHorizontalStart      []int `yaml:"block_horizontal_start,omitempty"`
	BlockHorizontalStop       []int `yaml:"block_horizontal_stop,omitempty"`
	BlockVerticalStart        []int `yaml:"block_vertical_start,omitempty"`
	BlockVerticalStop         []int `yaml:"block_vertical_stop,omitempty"`
	BlockCrossHorizontal      []int `yaml:"block_cross_horizontal,omitempty"`
	BlockCrossVertical        []int `yaml:"block_cross_vertical,omitempty"`
	SingleSpectra             []int `yaml:"single_spectra,omitempty"`
	SpectrumRangeStart        []int `yaml:"spectrum_range_start,omitempty"`
	SpectrumRangeStop         []int `yaml:"spectrum_range_stop,omitempty"`

	DetectorName      string `yaml:"detector_name,omitempty"`
	DetectorNameShort string `yaml:"detector_name_short,omitempty"`
}

func (d *MaskDetector) Validate() error {
	r := validation.NewReport("MaskDetector")
	intRanges(r, "range_vertical_strip", d.RangeVerticalStripStart, d.RangeVerticalStripStop)
	intRanges(r, "range_horizontal_strip", d.RangeHorizontalStripStart, d.RangeHorizontalStripStop)
	intRanges(r, "block_horizontal", d.BlockHorizontalStart, d.BlockHorizontalStop)
	intRanges(r, "block_vertical", d.BlockVerticalStart, d.BlockVerticalStop)
	intRanges(r, "spectrum_range", d.SpectrumRangeStart, d.SpectrumRangeStop)
	if len(d.BlockHorizontalStart) != len(d.BlockVerticalStart) {
		r.Addf("block", "has %d horizontal but %d vertical ranges", len(d.BlockHorizontalStart), len(d.BlockVerticalStart))
	}
	if len(d.BlockCrossHorizontal) != len(d.BlockCrossVertical) {
		r.Addf("block_cross", "has %d horizontal but %d vertical entries", len(d.BlockCrossHorizontal), len(d.BlockCrossVertical))
	}
	nonNegativeInts(r, "single_vertical_strip_mask", d.SingleVerticalStripMask)
	nonNegativeInts(r, "single_horizontal_strip_mask", d.SingleHorizontalStripMask)
	nonNegativeInts(r, "single_spectra", d.SingleSpectra)
	return r.Err()
}

func (d *MaskDetector) Clone() *MaskDetector {
	if d == nil {
		return nil
	}
	c := *d
	c.SingleVerticalStripMask = slices.Clone(d.SingleVerticalStripMask)
	c.RangeVerticalStripStart = slices.Clone(d.RangeVerticalStripStart)
	c.RangeVerticalStripStop = slices.Clone(d.RangeVerticalStripStop)
	c.SingleHorizontalStripMask = slices.Clone(d.SingleHorizontalStripMask)
	c.RangeHorizontalStripStart = slices.Clone(d.RangeHorizontalStripStart)
	c.RangeHorizontalStripStop = slices.Clone(d.RangeHorizontalStripStop)
	c.BlockHorizontalStart = slices.Clone(d.BlockHorizontalStart)
	c.BlockHorizontalStop = slices.Clone(d.BlockHorizontalStop)
	c.BlockVerticalStart = slices.Clone(d.BlockVerticalStart)
	c.BlockVerticalStop = slices.Clone(d.BlockVerticalStop)
	c.BlockCrossHorizontal = slices.Clone(d.BlockCrossHorizontal)
	c.BlockCrossVertical = slices.Clone(d.BlockCrossVertical)
	c.SingleSpectra = slices.Clone(d.SingleSpectra)
	c.SpectrumRangeStart = slices.Clone(d.SpectrumRangeStart)
	c.SpectrumRangeStop = slices.Clone(d.SpectrumRangeStop)
	return &c
}

// Mask collects the geometric, time-of-flight and file based masks.
type Mask struct {
	RadiusMin *float64 `yaml:"radius_min,omitempty"`
	RadiusMax *float64 `yaml:"radius_max,omitempty"`

	BinMaskGeneralStart []float64 `yaml:"bin_mask_general_start,omitempty"`
	BinMaskGeneralStop  []float64 `yaml:"bin_mask_general_stop,omitempty"`

	MaskFiles []string `yaml:"mask_files,omitempty"`

	PhiMin           float64 `yaml:"phi_min" validate:"gte=-90,lte=90"`
	PhiMax           float64 `yaml:"phi_max" validate:"gte=-90,lte=90"`
	UseMaskPhiMirror bool    `yaml:"use_mask_phi_mirror"`

	BeamStopArmWidth *float64 `yaml:"beam_stop_arm_width,omitempty"`
	BeamStopArmAngle *float64 `yaml:"beam_stop_arm_angle,omitempty"`
	BeamStopArmPos1  *float64 `yaml:"beam_stop_arm_pos1,omitempty"`
	BeamStopArmPos2  *float64 `yaml:"beam_stop_arm_pos2,omitempty"`

	ClearMask     bool `yaml:"clear"`
	ClearTimeMask bool `yaml:"clear_time"`

	Detectors map[enums.DetectorType]*MaskDetector `yaml:"detectors,omitempty" validate:"-"`
	IDFPath   string                               `yaml:"idf_path,omitempty"`
}

func (m *Mask) Validate() error {
	r := validation.NewReport("Mask")
	r.Struct(m)

	nonNegative(r, "radius_min", m.RadiusMin)
	ordered(r, "radius_min", "radius_max", m.RadiusMin, m.RadiusMax)

	if len(m.BinMaskGeneralStart) != len(m.BinMaskGeneralStop) {
		r.Addf("bin_mask_general", "has %d start(s) but %d stop(s)", len(m.BinMaskGeneralStart), len(m.BinMaskGeneralStop))
	} else {
		for i := range m.BinMaskGeneralStart {
			if !(m.BinMaskGeneralStart[i] < m.BinMaskGeneralStop[i]) {
				r.Addf("bin_mask_general", "range %d must start before it stops", i)
			}
		}
	}

	r.Check(m.PhiMin < m.PhiMax, "phi_min", "must be less than phi_max")

	together(r, []string{"beam_stop_arm_width", "beam_stop_arm_angle", "beam_stop_arm_pos1", "beam_stop_arm_pos2"},
		m.BeamStopArmWidth != nil, m.BeamStopArmAngle != nil, m.BeamStopArmPos1 != nil, m.BeamStopArmPos2 != nil)
	positive(r, "beam_stop_arm_width", m.BeamStopArmWidth)

	for _, f := range m.MaskFiles {
		if strings.TrimSpace(f) == "" {
			r.Add("mask_files", "must not contain blank entries")
			break
		}
	}

	for det, d := range m.Detectors {
		if d == nil {
			r.Add("detectors."+det.String(), "must be set")
			continue
		}
		r.Merge("detectors."+det.String(), d.Validate())
	}
	return r.Err()
}

func (m *Mask) Clone() *Mask {
	if m == nil {
		return nil
	}
	c := *m
	c.RadiusMin, c.RadiusMax = cloneFloat(m.RadiusMin), cloneFloat(m.RadiusMax)
	c.BinMaskGeneralStart = slices.Clone(m.BinMaskGeneralStart)
	c.BinMaskGeneralStop = slices.Clone(m.BinMaskGeneralStop)
	c.MaskFiles = slices.Clone(m.MaskFiles)
	c.BeamStopArmWidth = cloneFloat(m.BeamStopArmWidth)
	c.BeamStopArmAngle = cloneFloat(m.BeamStopArmAngle)
	c.BeamStopArmPos1 = cloneFloat(m.BeamStopArmPos1)
	c.BeamStopArmPos2 = cloneFloat(m.BeamStopArmPos2)
	c.Detectors = clonePtrMap(m.Detectors, (*MaskDetector).Clone)
	return &c
}

// MaskBuilder builds a Mask leaf. Phi masking defaults to the full
// [-90, 90] degree range with mirroring on.
type MaskBuilder struct {
	state *Mask
}

func NewMaskBuilder(data *Data) (*MaskBuilder, error) {
	l, err := layoutFor(data, "mask builder")
	if err != nil {
		return nil, err
	}
	m := &Mask{
		PhiMin:           -90,
		PhiMax:           90,
		UseMaskPhiMirror: true,
		IDFPath:          data.IDFFilePath,
		Detectors: map[enums.DetectorType]*MaskDetector{
			enums.LAB: {DetectorName: l.lab, DetectorNameShort: l.labShort},
		},
	}
	if l.hab != "" {
		m.Detectors[enums.HAB] = &MaskDetector{DetectorName: l.hab, DetectorNameShort: l.habShort}
	}
	return &MaskBuilder{state: m}, nil
}

func (b *MaskBuilder) SetRadius(low, high float64) *MaskBuilder {
	b.state.RadiusMin, b.state.RadiusMax = &low, &high
	return b
}

func (b *MaskBuilder) AddBinMask(start, stop float64) *MaskBuilder {
	b.state.BinMaskGeneralStart = append(b.state.BinMaskGeneralStart, start)
	b.state.BinMaskGeneralStop = append(b.state.BinMaskGeneralStop, stop)
	return b
}

func (b *MaskBuilder) AddMaskFile(path string) *MaskBuilder {
	b.state.MaskFiles = append(b.state.MaskFiles, path)
	return b
}

func (b *MaskBuilder) SetPhi(low, high float64, mirror bool) *MaskBuilder {
	b.state.PhiMin, b.state.PhiMax, b.state.UseMaskPhiMirror = low, high, mirror
	return b
}

func (b *MaskBuilder) SetBeamStopArm(width, angle, pos1, pos2 float64) *MaskBuilder {
	b.state.BeamStopArmWidth, b.state.BeamStopArmAngle = &width, &angle
	b.state.BeamStopArmPos1, b.state.BeamStopArmPos2 = &pos1, &pos2
	return b
}

func (b *MaskBuilder) SetClear(mask, timeMask bool) *MaskBuilder {
	b.state.ClearMask, b.state.ClearTimeMask = mask, timeMask
	return b
}

func (b *MaskBuilder) SetDetector(det enums.DetectorType, d *MaskDetector) *MaskBuilder {
	if b.state.Detectors == nil {
		b.state.Detectors = make(map[enums.DetectorType]*MaskDetector)
	}
	b.state.Detectors[det] = d.Clone()
	return b
}

func (b *MaskBuilder) Build() (*Mask, error) {
	return build(b.state)
}
