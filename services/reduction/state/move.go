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
	"maps"

	"github.com/AleutianAI/sansreduction/pkg/validation"
	"github.com/AleutianAI/sansreduction/services/reduction/enums"
	"github.com/AleutianAI/sansreduction/services/reduction/params"
)

// MoveDetector holds the position corrections of one detector bank.
// Translations are in metres, angles in degrees.
type MoveDetector struct {
	XTranslationCorrection float64 `yaml:"x_translation_correction"`
	YTranslationCorrection float64 `yaml:"y_translation_correction"`
	ZTranslationCorrection float64 `yaml:"z_translation_correction"`
	RotationCorrection     float64 `yaml:"rotation_correction"`
	SideCorrection         float64 `yaml:"side_correction"`
	RadiusCorrection       float64 `yaml:"radius_correction"`
	XTiltCorrection        float64 `yaml:"x_tilt_correction"`
	YTiltCorrection        float64 `yaml:"y_tilt_correction"`
	SampleCentrePos1       float64 `yaml:"sample_centre_pos1"`
	SampleCentrePos2       float64 `yaml:"sample_centre_pos2"`
	DetectorName           string  `yaml:"detector_name" validate:"notblank"`
	DetectorNameShort      string  `yaml:"detector_name_short" validate:"notblank"`
}

func (d *MoveDetector) Validate() error {
	r := validation.NewReport("MoveDetector")
	r.Struct(d)
	return r.Err()
}

func (d *MoveDetector) Clone() *MoveDetector {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}

// Move describes how the instrument components are positioned before
// reduction. A few fields only apply to one instrument.
type Move struct {
	Instrument   enums.Instrument                     `yaml:"instrument"`
	SampleOffset float64                              `yaml:"sample_offset"`
	MonitorNames map[string]string                    `yaml:"monitor_names,omitempty"`
	Detectors    map[enums.DetectorType]*MoveDetector `yaml:"detectors" validate:"-"`

	// LOQ
	CenterPosition *float64 `yaml:"center_position,omitempty"`
	// SANS2D
	Monitor4Offset float64 `yaml:"monitor_4_offset"`
	// ZOOM
	Monitor5Offset float64 `yaml:"monitor_5_offset"`
	// LARMOR
	BenchRotation float64 `yaml:"bench_rotation"`
}

func (m *Move) Validate() error {
	r := validation.NewReport("Move")
	r.Struct(m)

	r.Check(m.Instrument != enums.NoInstrument, "instrument", "must be set")
	if m.Detectors[enums.LAB] == nil {
		r.Add("detectors.LAB", "must be set")
	}
	for _, det := range []enums.DetectorType{enums.LAB, enums.HAB} {
		d, ok := m.Detectors[det]
		if !ok {
			continue
		}
		if det == enums.HAB && !m.Instrument.HasHAB() {
			r.Addf("detectors.HAB", "%s has no high-angle bank", m.Instrument)
			continue
		}
		if d == nil {
			r.Addf("detectors."+det.String(), "must be set")
			continue
		}
		r.Merge("detectors."+det.String(), d.Validate())
	}
	for spectrum, name := range m.MonitorNames {
		r.Check(name != "", "monitor_names."+spectrum, "must be set")
	}
	return r.Err()
}

func (m *Move) Clone() *Move {
	if m == nil {
		return nil
	}
	c := *m
	c.MonitorNames = maps.Clone(m.MonitorNames)
	c.Detectors = clonePtrMap(m.Detectors, (*MoveDetector).Clone)
	c.CenterPosition = cloneFloat(m.CenterPosition)
	return &c
}

type instrumentLayout struct {
	lab, labShort string
	hab, habShort string
	monitors      int
}

var layouts = map[enums.Instrument]instrumentLayout{
	enums.LOQ:    {lab: "main-detector-bank", labShort: "main", hab: "HAB", habShort: "HAB", monitors: 2},
	enums.SANS2D: {lab: "rear-detector", labShort: "rear", hab: "front-detector", habShort: "front", monitors: 4},
	enums.LARMOR: {lab: "DetectorBench", labShort: "DetectorBench", monitors: 4},
	enums.ZOOM:   {lab: "rear-detector", labShort: "rear", monitors: 5},
}

func layoutFor(data *Data, what string) (instrumentLayout, error) {
	if data == nil {
		return instrumentLayout{}, &enums.SelectionError{What: what, Value: "no data", Err: enums.ErrNotImplemented}
	}
	l, ok := layouts[data.Instrument]
	if !ok {
		return instrumentLayout{}, &enums.SelectionError{What: what, Value: data.Instrument.String(), Err: enums.ErrNotImplemented}
	}
	return l, nil
}

// MoveBuilder builds a Move leaf preloaded with the instrument's detector
// and monitor names.
type MoveBuilder struct {
	state *Move
}

// NewMoveBuilder fails with a *enums.SelectionError for instruments without
// a known layout.
func NewMoveBuilder(data *Data) (*MoveBuilder, error) {
	l, err := layoutFor(data, "move builder")
	if err != nil {
		return nil, err
	}
	m := &Move{
		Instrument:   data.Instrument,
		MonitorNames: make(map[string]string, l.monitors),
		Detectors: map[enums.DetectorType]*MoveDetector{
			enums.LAB: {DetectorName: l.lab, DetectorNameShort: l.labShort},
		},
	}
	if l.hab != "" {
		m.Detectors[enums.HAB] = &MoveDetector{DetectorName: l.hab, DetectorNameShort: l.habShort}
	}
	for i := 1; i <= l.monitors; i++ {
		m.MonitorNames[fmt.Sprint(i)] = fmt.Sprintf("monitor%d", i)
	}
	if data.Instrument == enums.LOQ {
		m.CenterPosition = params.Float(0.3175)
	}
	return &MoveBuilder{state: m}, nil
}

func (b *MoveBuilder) SetSampleOffset(v float64) *MoveBuilder {
	b.state.SampleOffset = v
	return b
}

func (b *MoveBuilder) SetMonitorName(spectrum, name string) *MoveBuilder {
	if b.state.MonitorNames == nil {
		b.state.MonitorNames = make(map[string]string)
	}
	b.state.MonitorNames[spectrum] = name
	return b
}

func (b *MoveBuilder) SetDetector(det enums.DetectorType, d *MoveDetector) *MoveBuilder {
	if b.state.Detectors == nil {
		b.state.Detectors = make(map[enums.DetectorType]*MoveDetector)
	}
	b.state.Detectors[det] = d.Clone()
	return b
}

// SetBeamCentre sets the sample centre of det. A missing detector is ignored.
func (b *MoveBuilder) SetBeamCentre(det enums.DetectorType, pos1, pos2 float64) *MoveBuilder {
	if d := b.state.Detectors[det]; d != nil {
		d.SampleCentrePos1, d.SampleCentrePos2 = pos1, pos2
	}
	return b
}

// SetTranslation sets the x/y/z corrections of det. A missing detector is ignored.
func (b *MoveBuilder) SetTranslation(det enums.DetectorType, x, y, z float64) *MoveBuilder {
	if d := b.state.Detectors[det]; d != nil {
		d.XTranslationCorrection, d.YTranslationCorrection, d.ZTranslationCorrection = x, y, z
	}
	return b
}

func (b *MoveBuilder) SetCenterPosition(v float64) *MoveBuilder {
	b.state.CenterPosition = &v
	return b
}

func (b *MoveBuilder) SetMonitor4Offset(v float64) *MoveBuilder {
	b.state.Monitor4Offset = v
	return b
}

func (b *MoveBuilder) SetMonitor5Offset(v float64) *MoveBuilder {
	b.state.Monitor5Offset = v
	return b
}

func (b *MoveBuilder) SetBenchRotation(v float64) *MoveBuilder {
	b.state.BenchRotation = v
	return b
}

func (b *MoveBuilder) Build() (*Move, error) {
	return build(b.state)
}
