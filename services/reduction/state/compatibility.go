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

// Compatibility switches on behaviour that reproduces older reduction
// results: rebinning events in time before conversion.
type Compatibility struct {
	UseCompatibilityMode      bool   `yaml:"use_compatibility_mode"`
	TimeRebinString           string `yaml:"time_rebin_string,omitempty"`
	UseEventSliceOptimisation bool   `yaml:"use_event_slice_optimisation"`
}

func (c *Compatibility) Validate() error {
	r := validation.NewReport("Compatibility")
	if c.UseCompatibilityMode && c.TimeRebinString != "" {
		if _, err := ParseRebinString(c.TimeRebinString); err != nil {
			r.Add("time_rebin_string", err.Error())
		}
	}
	return r.Err()
}

func (c *Compatibility) Clone() *Compatibility {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

// CompatibilityBuilder builds a Compatibility leaf.
type CompatibilityBuilder struct {
	state *Compatibility
}

// NewCompatibilityBuilder picks the builder for the data's facility. Only
// ISIS is known; anything else fails with enums.ErrNotImplemented.
func NewCompatibilityBuilder(data *Data) (*CompatibilityBuilder, error) {
	if data == nil {
		return nil, &enums.SelectionError{What: "compatibility builder", Value: "no data", Err: enums.ErrNotImplemented}
	}
	facility := data.Facility
	if facility == enums.NoFacility {
		facility = data.Instrument.Facility()
	}
	if facility != enums.ISIS {
		return nil, &enums.SelectionError{What: "compatibility builder", Value: facility.String(), Err: enums.ErrNotImplemented}
	}
	return &CompatibilityBuilder{state: &Compatibility{}}, nil
}

func (b *CompatibilityBuilder) SetUseCompatibilityMode(v bool) *CompatibilityBuilder {
	b.state.UseCompatibilityMode = v
	return b
}

func (b *CompatibilityBuilder) SetTimeRebinString(v string) *CompatibilityBuilder {
	b.state.TimeRebinString = v
	return b
}

func (b *CompatibilityBuilder) SetUseEventSliceOptimisation(v bool) *CompatibilityBuilder {
	b.state.UseEventSliceOptimisation = v
	return b
}

func (b *CompatibilityBuilder) Build() (*Compatibility, error) {
	return build(b.state)
}
