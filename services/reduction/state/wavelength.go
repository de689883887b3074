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

// Wavelength is the binning applied when converting time of flight to
// wavelength.
type Wavelength struct {
	WavelengthRange `yaml:",inline"`
	RebinType       enums.RebinType `yaml:"rebin_type"`
}

func (w *Wavelength) Validate() error {
	r := validation.NewReport("Wavelength")
	w.check(r)
	return r.Err()
}

func (w *Wavelength) Clone() *Wavelength {
	if w == nil {
		return nil
	}
	return &Wavelength{WavelengthRange: w.WavelengthRange.clone(), RebinType: w.RebinType}
}

// WavelengthBuilder builds a Wavelength leaf. Steps default to Lin, rebinning
// to Rebin.
type WavelengthBuilder struct {
	state *Wavelength
}

func NewWavelengthBuilder(data *Data) (*WavelengthBuilder, error) {
	if _, err := layoutFor(data, "wavelength builder"); err != nil {
		return nil, err
	}
	w := &Wavelength{RebinType: enums.Rebin}
	w.WavelengthStepType = enums.Lin
	return &WavelengthBuilder{state: w}, nil
}

func (b *WavelengthBuilder) SetRange(low, high, step float64, stepType enums.RangeStepType) *WavelengthBuilder {
	b.state.SetRange(low, high, step, stepType)
	return b
}

func (b *WavelengthBuilder) SetRebinType(v enums.RebinType) *WavelengthBuilder {
	b.state.RebinType = v
	return b
}

func (b *WavelengthBuilder) Build() (*Wavelength, error) {
	return build(b.state)
}
