// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package state is the reduction configuration model.
//
// A reduction is described by an aggregate State composed of twelve leaf
// states (data, move, mask, reduction, slice, wavelength, save, scale,
// adjustment, convert_to_q, compatibility, background_subtraction). Every
// state implements Validator and reports all of its violated invariants in a
// single *validation.Error.
//
// States are assembled through builders. A builder owns a private working
// copy; Build validates it and hands out a deep copy, so neither side can
// mutate the other afterwards. Built states are treated as read-only by
// convention. The one exception is State.Validate, which fills in a missing
// compatibility leaf from the data leaf.
package state

import (
	"github.com/AleutianAI/sansreduction/pkg/validation"
	"github.com/AleutianAI/sansreduction/services/reduction/enums"
)

// Validator is implemented by every state.
type Validator interface {
	Validate() error
}

// Tree is the generic nested key/value form states are decoded from.
type Tree = map[string]any

// Leaf keys, as used in trees and validation reports.
const (
	LeafData                  = "data"
	LeafMove                  = "move"
	LeafMask                  = "mask"
	LeafReduction             = "reduction"
	LeafSlice                 = "slice"
	LeafWavelength            = "wavelength"
	LeafSave                  = "save"
	LeafScale                 = "scale"
	LeafAdjustment            = "adjustment"
	LeafConvertToQ            = "convert_to_q"
	LeafCompatibility         = "compatibility"
	LeafBackgroundSubtraction = "background_subtraction"
)

// LeafNames lists the leaf keys in canonical order.
var LeafNames = []string{
	LeafData, LeafMove, LeafMask, LeafReduction, LeafSlice, LeafWavelength,
	LeafSave, LeafScale, LeafAdjustment, LeafConvertToQ, LeafCompatibility,
	LeafBackgroundSubtraction,
}

// State is the aggregate reduction configuration.
type State struct {
	Data                  *Data                  `yaml:"data"`
	Move                  *Move                  `yaml:"move"`
	Mask                  *Mask                  `yaml:"mask"`
	Reduction             *ReductionMode         `yaml:"reduction"`
	Slice                 *Slice                 `yaml:"slice"`
	Wavelength            *Wavelength            `yaml:"wavelength"`
	Save                  *Save                  `yaml:"save"`
	Scale                 *Scale                 `yaml:"scale"`
	Adjustment            *Adjustment            `yaml:"adjustment"`
	ConvertToQ            *ConvertToQ            `yaml:"convert_to_q"`
	Compatibility         *Compatibility         `yaml:"compatibility"`
	BackgroundSubtraction *BackgroundSubtraction `yaml:"background_subtraction"`

	source Tree
}

// leaf pairs a key with the leaf stored under it. Typed nil pointers are
// resolved to a nil interface here so presence checks stay honest.
type leaf struct {
	name  string
	state Validator
}

func (s *State) leaves() []leaf {
	entry := func(name string, present bool, v Validator) leaf {
		if !present {
			return leaf{name: name}
		}
		return leaf{name: name, state: v}
	}
	return []leaf{
		entry(LeafData, s.Data != nil, s.Data),
		entry(LeafMove, s.Move != nil, s.Move),
		entry(LeafMask, s.Mask != nil, s.Mask),
		entry(LeafReduction, s.Reduction != nil, s.Reduction),
		entry(LeafSlice, s.Slice != nil, s.Slice),
		entry(LeafWavelength, s.Wavelength != nil, s.Wavelength),
		entry(LeafSave, s.Save != nil, s.Save),
		entry(LeafScale, s.Scale != nil, s.Scale),
		entry(LeafAdjustment, s.Adjustment != nil, s.Adjustment),
		entry(LeafConvertToQ, s.ConvertToQ != nil, s.ConvertToQ),
		entry(LeafCompatibility, s.Compatibility != nil, s.Compatibility),
		entry(LeafBackgroundSubtraction, s.BackgroundSubtraction != nil, s.BackgroundSubtraction),
	}
}

// Validate checks that every leaf is present and valid, then applies the
// rules that span several leaves.
//
// A missing compatibility leaf is not an error: it is built from the data
// leaf and assigned onto s.
func (s *State) Validate() error {
	if s.Compatibility == nil && s.Data != nil {
		if b, err := NewCompatibilityBuilder(s.Data); err == nil {
			if c, err := b.Build(); err == nil {
				s.Compatibility = c
			}
		}
	}

	r := validation.NewReport("State")
	for _, l := range s.leaves() {
		if l.state == nil {
			r.Add(l.name, "must be set")
			continue
		}
		r.Merge(l.name, l.state.Validate())
	}
	s.crossCheck(r)
	return r.Err()
}

func (s *State) crossCheck(r *validation.Report) {
	if s.Data != nil && s.Move != nil && s.Data.Instrument != s.Move.Instrument {
		r.Addf("move.instrument", "is %s but data is for %s", s.Move.Instrument, s.Data.Instrument)
	}

	if s.Reduction != nil && s.Move != nil && s.Reduction.ReductionMode.Merges() {
		for _, det := range s.Reduction.MergeStrategy() {
			if s.Move.Detectors[det] == nil {
				r.Addf("reduction.reduction_mode", "%s needs a %s move detector", s.Reduction.ReductionMode, det)
			}
		}
	}

	if s.Wavelength != nil && s.Adjustment != nil && s.Adjustment.NormalizeToMonitor != nil {
		if !s.Adjustment.NormalizeToMonitor.WavelengthRange.covers(s.Wavelength.WavelengthRange) {
			r.Add("wavelength", "range must lie inside adjustment.normalize_to_monitor range")
		}
	}

	if s.Adjustment != nil && s.ConvertToQ != nil &&
		s.Adjustment.WideAngleCorrection && s.ConvertToQ.ReductionDimensionality == enums.TwoDim {
		r.Add("adjustment.wide_angle_correction", "is not supported for TwoDim reductions")
	}
}

// Tree returns the tree s was decoded from, or nil for built states.
func (s *State) Tree() Tree {
	return s.source
}

// Clone returns a deep copy of s.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	return &State{
		Data:                  s.Data.Clone(),
		Move:                  s.Move.Clone(),
		Mask:                  s.Mask.Clone(),
		Reduction:             s.Reduction.Clone(),
		Slice:                 s.Slice.Clone(),
		Wavelength:            s.Wavelength.Clone(),
		Save:                  s.Save.Clone(),
		Scale:                 s.Scale.Clone(),
		Adjustment:            s.Adjustment.Clone(),
		ConvertToQ:            s.ConvertToQ.Clone(),
		Compatibility:         s.Compatibility.Clone(),
		BackgroundSubtraction: s.BackgroundSubtraction.Clone(),
		source:                cloneTree(s.source),
	}
}

// Builder assembles an aggregate State.
type Builder struct {
	state *State
}

// NewBuilder returns an empty aggregate builder.
func NewBuilder() *Builder {
	return &Builder{state: &State{}}
}

func (b *Builder) SetData(v *Data) *Builder {
	b.state.Data = v.Clone()
	return b
}

func (b *Builder) SetMove(v *Move) *Builder {
	b.state.Move = v.Clone()
	return b
}

func (b *Builder) SetMask(v *Mask) *Builder {
	b.state.Mask = v.Clone()
	return b
}

func (b *Builder) SetReduction(v *ReductionMode) *Builder {
	b.state.Reduction = v.Clone()
	return b
}

func (b *Builder) SetSlice(v *Slice) *Builder {
	b.state.Slice = v.Clone()
	return b
}

func (b *Builder) SetWavelength(v *Wavelength) *Builder {
	b.state.Wavelength = v.Clone()
	return b
}

func (b *Builder) SetSave(v *Save) *Builder {
	b.state.Save = v.Clone()
	return b
}

func (b *Builder) SetScale(v *Scale) *Builder {
	b.state.Scale = v.Clone()
	return b
}

func (b *Builder) SetAdjustment(v *Adjustment) *Builder {
	b.state.Adjustment = v.Clone()
	return b
}

func (b *Builder) SetConvertToQ(v *ConvertToQ) *Builder {
	b.state.ConvertToQ = v.Clone()
	return b
}

func (b *Builder) SetCompatibility(v *Compatibility) *Builder {
	b.state.Compatibility = v.Clone()
	return b
}

func (b *Builder) SetBackgroundSubtraction(v *BackgroundSubtraction) *Builder {
	b.state.BackgroundSubtraction = v.Clone()
	return b
}

// Build validates the aggregate and returns a deep copy of it.
func (b *Builder) Build() (*State, error) {
	return build(b.state)
}

// build is shared by every builder: validate the working copy, then return
// an independent copy of it.
func build[S interface {
	Validator
	Clone() S
}](s S) (S, error) {
	if err := s.Validate(); err != nil {
		var zero S
		return zero, err
	}
	return s.Clone(), nil
}

func cloneTree(t Tree) Tree {
	if t == nil {
		return nil
	}
	out := make(Tree, len(t))
	for k, v := range t {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return cloneTree(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func clonePtrMap[K comparable, V any](m map[K]*V, clone func(*V) *V) map[K]*V {
	if m == nil {
		return nil
	}
	out := make(map[K]*V, len(m))
	for k, v := range m {
		out[k] = clone(v)
	}
	return out
}
