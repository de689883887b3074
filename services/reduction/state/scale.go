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

// Scale holds the sample geometry and absolute scale. User values override
// the ones read from the run file. Dimensions are in millimetres.
type Scale struct {
	Shape     enums.SampleShape `yaml:"shape"`
	Thickness *float64          `yaml:"thickness,omitempty"`
	Width     *float64          `yaml:"width,omitempty"`
	Height    *float64          `yaml:"height,omitempty"`

	ShapeFromFile     enums.SampleShape `yaml:"shape_from_file"`
	ThicknessFromFile float64           `yaml:"thickness_from_file" validate:"gte=0"`
	WidthFromFile     float64           `yaml:"width_from_file" validate:"gte=0"`
	HeightFromFile    float64           `yaml:"height_from_file" validate:"gte=0"`

	Scale *float64 `yaml:"scale,omitempty"`
}

func (s *Scale) Validate() error {
	r := validation.NewReport("Scale")
	r.Struct(s)
	positive(r, "thickness", s.Thickness)
	positive(r, "width", s.Width)
	positive(r, "height", s.Height)
	positive(r, "scale", s.Scale)
	return r.Err()
}

func (s *Scale) Clone() *Scale {
	if s == nil {
		return nil
	}
	c := *s
	c.Thickness, c.Width, c.Height = cloneFloat(s.Thickness), cloneFloat(s.Width), cloneFloat(s.Height)
	c.Scale = cloneFloat(s.Scale)
	return &c
}

// Geometry resolves the effective shape and dimensions.
func (s *Scale) Geometry() (shape enums.SampleShape, thickness, width, height float64) {
	shape = s.ShapeFromFile
	if s.Shape != enums.ShapeNotSet {
		shape = s.Shape
	}
	pick := func(user *float64, file float64) float64 {
		if user != nil {
			return *user
		}
		return file
	}
	return shape, pick(s.Thickness, s.ThicknessFromFile), pick(s.Width, s.WidthFromFile), pick(s.Height, s.HeightFromFile)
}

// ScaleBuilder builds a Scale leaf with 1 mm file dimensions by default.
type ScaleBuilder struct {
	state *Scale
}

func NewScaleBuilder(data *Data) (*ScaleBuilder, error) {
	if _, err := layoutFor(data, "scale builder"); err != nil {
		return nil, err
	}
	return &ScaleBuilder{state: &Scale{ThicknessFromFile: 1, WidthFromFile: 1, HeightFromFile: 1}}, nil
}

func (b *ScaleBuilder) SetShape(v enums.SampleShape) *ScaleBuilder {
	b.state.Shape = v
	return b
}

func (b *ScaleBuilder) SetDimensions(thickness, width, height float64) *ScaleBuilder {
	b.state.Thickness, b.state.Width, b.state.Height = &thickness, &width, &height
	return b
}

func (b *ScaleBuilder) SetFromFile(shape enums.SampleShape, thickness, width, height float64) *ScaleBuilder {
	b.state.ShapeFromFile = shape
	b.state.ThicknessFromFile, b.state.WidthFromFile, b.state.HeightFromFile = thickness, width, height
	return b
}

func (b *ScaleBuilder) SetScale(v float64) *ScaleBuilder {
	b.state.Scale = &v
	return b
}

func (b *ScaleBuilder) Build() (*Scale, error) {
	return build(b.state)
}
