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
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/sansreduction/pkg/logging"
	"github.com/AleutianAI/sansreduction/services/reduction/enums"
	"github.com/AleutianAI/sansreduction/services/reduction/ipf"
	"github.com/AleutianAI/sansreduction/services/reduction/params"
)

// Decoder rebuilds aggregate states from trees.
//
// Each leaf present in the tree starts from the defaults its builder would
// give for the data leaf's instrument; the tree then overrides individual
// fields. Leaves missing from the tree stay nil so that Validate names them.
// Decoding stops at the first value that does not fit its field's type.
type Decoder struct {
	// IPF locates instrument parameter files for detector name resolution.
	// A zero Resolver only honours data.ipf_file_path.
	IPF ipf.Resolver

	Logger *logging.Logger
}

// FromTree decodes tree without parameter file lookups beyond the path the
// data leaf names.
func FromTree(tree Tree) (*State, error) {
	return (&Decoder{}).Deserialize(tree)
}

// Deserialize decodes tree into a State. The returned state keeps a copy of
// tree, available through Tree.
func (d *Decoder) Deserialize(tree Tree) (*State, error) {
	for key := range tree {
		if !slices.Contains(LeafNames, key) {
			return nil, params.Typef(key, "not a state leaf (want one of %s)", strings.Join(LeafNames, ", "))
		}
	}

	st := &State{source: cloneTree(tree)}

	if raw, ok := tree[LeafData]; ok {
		data := &Data{}
		if err := decodeLeaf(LeafData, raw, data); err != nil {
			return nil, err
		}
		if data.Facility == enums.NoFacility {
			data.Facility = data.Instrument.Facility()
		}
		st.Data = data
	}

	lookup := d.parameters(st.Data)

	steps := []struct {
		name   string
		decode func(raw any) error
	}{
		{LeafMove, func(raw any) error {
			st.Move = &Move{}
			if b, err := NewMoveBuilder(st.Data); err == nil {
				st.Move = b.state
			}
			return decodeLeaf(LeafMove, raw, st.Move)
		}},
		{LeafMask, func(raw any) error {
			st.Mask = &Mask{}
			if b, err := NewMaskBuilder(st.Data); err == nil {
				st.Mask = b.state
			}
			return decodeLeaf(LeafMask, raw, st.Mask)
		}},
		{LeafReduction, func(raw any) error {
			st.Reduction = &ReductionMode{}
			if b, err := NewReductionModeBuilder(st.Data, nil); err == nil {
				st.Reduction = b.state
			}
			if err := decodeLeaf(LeafReduction, raw, st.Reduction); err != nil {
				return err
			}
			resolveDetectorNames(st.Reduction, lookup)
			return nil
		}},
		{LeafSlice, func(raw any) error {
			st.Slice = &Slice{}
			return decodeLeaf(LeafSlice, raw, st.Slice)
		}},
		{LeafWavelength, func(raw any) error {
			st.Wavelength = &Wavelength{}
			if b, err := NewWavelengthBuilder(st.Data); err == nil {
				st.Wavelength = b.state
			}
			return decodeLeaf(LeafWavelength, raw, st.Wavelength)
		}},
		{LeafSave, func(raw any) error {
			st.Save = &Save{}
			if b, err := NewSaveBuilder(st.Data); err == nil {
				st.Save = b.state
			}
			return decodeLeaf(LeafSave, raw, st.Save)
		}},
		{LeafScale, func(raw any) error {
			st.Scale = &Scale{}
			if b, err := NewScaleBuilder(st.Data); err == nil {
				st.Scale = b.state
			}
			return decodeLeaf(LeafScale, raw, st.Scale)
		}},
		{LeafAdjustment, func(raw any) error {
			st.Adjustment = &Adjustment{}
			if b, err := NewAdjustmentBuilder(st.Data); err == nil {
				st.Adjustment = b.state
			}
			return decodeLeaf(LeafAdjustment, raw, st.Adjustment)
		}},
		{LeafConvertToQ, func(raw any) error {
			st.ConvertToQ = &ConvertToQ{}
			if b, err := NewConvertToQBuilder(st.Data); err == nil {
				st.ConvertToQ = b.state
			}
			return decodeLeaf(LeafConvertToQ, raw, st.ConvertToQ)
		}},
		{LeafCompatibility, func(raw any) error {
			st.Compatibility = &Compatibility{}
			return decodeLeaf(LeafCompatibility, raw, st.Compatibility)
		}},
		{LeafBackgroundSubtraction, func(raw any) error {
			st.BackgroundSubtraction = &BackgroundSubtraction{}
			return decodeLeaf(LeafBackgroundSubtraction, raw, st.BackgroundSubtraction)
		}},
	}
	for _, step := range steps {
		raw, ok := tree[step.name]
		if !ok {
			continue
		}
		if err := step.decode(raw); err != nil {
			return nil, err
		}
	}
	return st, nil
}

// parameters loads the parameter file for data. Failures are logged and
// leave detector names unresolved.
func (d *Decoder) parameters(data *Data) ipf.Lookup {
	if data == nil {
		return nil
	}
	f, err := d.IPF.Resolve(data.Instrument.String(), data.IPFFilePath)
	if err != nil {
		if d.Logger != nil && !errors.Is(err, ipf.ErrNotFound) {
			d.Logger.Warn("instrument parameter file unusable", "instrument", data.Instrument, "error", err)
		}
		return nil
	}
	return f
}

// decodeLeaf re-encodes a generic subtree and decodes it strictly into dst.
func decodeLeaf(name string, raw any, dst any) error {
	sub, ok := raw.(map[string]any)
	if !ok {
		return params.Typef(name, "want a mapping, got %T", raw)
	}
	buf, err := yaml.Marshal(sub)
	if err != nil {
		return params.Typef(name, "cannot encode subtree: %v", err)
	}
	var node yaml.Node
	if err := yaml.Unmarshal(buf, &node); err != nil {
		return fmt.Errorf("decoding %s: %w", name, err)
	}
	if err := checkScalars(name, &node, reflect.TypeOf(dst)); err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(buf))
	dec.KnownFields(true)
	if err := dec.Decode(dst); err != nil {
		var te *params.TypeError
		if errors.As(err, &te) {
			if te.Field == "" {
				te.Field = name
			} else {
				te.Field = name + "." + te.Field
			}
			return te
		}
		var ye *yaml.TypeError
		if errors.As(err, &ye) {
			return params.Typef(name, "%s", strings.Join(ye.Errors, "; "))
		}
		return fmt.Errorf("decoding %s: %w", name, err)
	}
	return nil
}
