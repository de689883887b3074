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
	"regexp"
	"slices"

	"github.com/AleutianAI/sansreduction/pkg/validation"
	"github.com/AleutianAI/sansreduction/services/reduction/enums"
)

// outputNamePattern restricts user output names to characters that are safe
// both as store keys and file names.
var outputNamePattern = regexp.MustCompile(`^[A-Za-z0-9_.\-]*$`)

// Save controls output naming and the file formats written on SaveToFile.
type Save struct {
	ZeroFreeCorrection            bool             `yaml:"zero_free_correction"`
	FileFormats                   []enums.SaveType `yaml:"file_format,omitempty"`
	UserSpecifiedOutputName       string           `yaml:"user_specified_output_name,omitempty"`
	UserSpecifiedOutputNameSuffix string           `yaml:"user_specified_output_name_suffix,omitempty"`
	UseReductionModeAsSuffix      bool             `yaml:"use_reduction_mode_as_suffix"`
}

func (s *Save) Validate() error {
	r := validation.NewReport("Save")
	r.Check(outputNamePattern.MatchString(s.UserSpecifiedOutputName),
		"user_specified_output_name", "may only contain letters, digits, '.', '_' and '-'")
	r.Check(outputNamePattern.MatchString(s.UserSpecifiedOutputNameSuffix),
		"user_specified_output_name_suffix", "may only contain letters, digits, '.', '_' and '-'")
	seen := make(map[enums.SaveType]bool, len(s.FileFormats))
	for _, f := range s.FileFormats {
		if seen[f] {
			r.Addf("file_format", "lists %s twice", f)
		}
		seen[f] = true
	}
	return r.Err()
}

func (s *Save) Clone() *Save {
	if s == nil {
		return nil
	}
	c := *s
	c.FileFormats = slices.Clone(s.FileFormats)
	return &c
}

// SaveBuilder builds a Save leaf. Zero-free correction is on by default.
type SaveBuilder struct {
	state *Save
}

func NewSaveBuilder(data *Data) (*SaveBuilder, error) {
	if _, err := layoutFor(data, "save builder"); err != nil {
		return nil, err
	}
	return &SaveBuilder{state: &Save{ZeroFreeCorrection: true}}, nil
}

func (b *SaveBuilder) SetFileFormats(formats ...enums.SaveType) *SaveBuilder {
	b.state.FileFormats = slices.Clone(formats)
	return b
}

func (b *SaveBuilder) SetZeroFreeCorrection(v bool) *SaveBuilder {
	b.state.ZeroFreeCorrection = v
	return b
}

func (b *SaveBuilder) SetOutputName(name, suffix string) *SaveBuilder {
	b.state.UserSpecifiedOutputName, b.state.UserSpecifiedOutputNameSuffix = name, suffix
	return b
}

func (b *SaveBuilder) SetUseReductionModeAsSuffix(v bool) *SaveBuilder {
	b.state.UseReductionModeAsSuffix = v
	return b
}

func (b *SaveBuilder) Build() (*Save, error) {
	return build(b.state)
}
