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
)

// BackgroundSubtraction names a workspace subtracted from the reduced output
// after scaling by ScaleFactor.
type BackgroundSubtraction struct {
	Workspace   string   `yaml:"workspace,omitempty"`
	ScaleFactor *float64 `yaml:"scale_factor,omitempty"`
}

func (b *BackgroundSubtraction) Validate() error {
	r := validation.NewReport("BackgroundSubtraction")
	together(r, []string{"workspace", "scale_factor"}, b.Workspace != "", b.ScaleFactor != nil)
	return r.Err()
}

func (b *BackgroundSubtraction) Clone() *BackgroundSubtraction {
	if b == nil {
		return nil
	}
	return &BackgroundSubtraction{Workspace: b.Workspace, ScaleFactor: cloneFloat(b.ScaleFactor)}
}

// Enabled reports whether a subtraction is configured.
func (b *BackgroundSubtraction) Enabled() bool {
	return b != nil && b.Workspace != ""
}

// BackgroundSubtractionBuilder builds a BackgroundSubtraction leaf. The
// default subtracts nothing.
type BackgroundSubtractionBuilder struct {
	state *BackgroundSubtraction
}

func NewBackgroundSubtractionBuilder() *BackgroundSubtractionBuilder {
	return &BackgroundSubtractionBuilder{state: &BackgroundSubtraction{}}
}

func (b *BackgroundSubtractionBuilder) SetWorkspace(name string, scale float64) *BackgroundSubtractionBuilder {
	b.state.Workspace, b.state.ScaleFactor = name, &scale
	return b
}

func (b *BackgroundSubtractionBuilder) Build() (*BackgroundSubtraction, error) {
	return build(b.state)
}
