// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package params holds the typed building blocks of reduction states: the
// type-constraint error raised when a value of the wrong type or range is
// assigned, and bounded numeric wrappers whose constructors fail fast.
package params

import (
	"errors"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

// ErrTypeConstraint is matched by every *TypeError.
var ErrTypeConstraint = errors.New("type constraint violated")

// TypeError reports a value that does not fit the declared type of a field.
type TypeError struct {
	Field  string
	Reason string
}

func (e *TypeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrTypeConstraint, e.Reason)
	}
	return fmt.Sprintf("%s for %s: %s", ErrTypeConstraint, e.Field, e.Reason)
}

func (e *TypeError) Unwrap() error { return ErrTypeConstraint }

// Typef builds a *TypeError.
func Typef(field, format string, args ...any) *TypeError {
	return &TypeError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// PositiveFloat is a float64 strictly greater than zero.
type PositiveFloat float64

// NewPositiveFloat fails with a *TypeError unless v > 0.
func NewPositiveFloat(field string, v float64) (PositiveFloat, error) {
	if math.IsNaN(v) || v <= 0 {
		return 0, Typef(field, "want a positive float, got %v", v)
	}
	return PositiveFloat(v), nil
}

func (p PositiveFloat) Float64() float64 { return float64(p) }

func (p *PositiveFloat) UnmarshalYAML(node *yaml.Node) error {
	var v float64
	if err := node.Decode(&v); err != nil {
		return Typef("", "line %d: want a positive float, got %q", node.Line, node.Value)
	}
	got, err := NewPositiveFloat("", v)
	if err != nil {
		return err
	}
	*p = got
	return nil
}

// NonNegativeFloat is a float64 greater than or equal to zero.
type NonNegativeFloat float64

// NewNonNegativeFloat fails with a *TypeError when v < 0.
func NewNonNegativeFloat(field string, v float64) (NonNegativeFloat, error) {
	if math.IsNaN(v) || v < 0 {
		return 0, Typef(field, "want a non-negative float, got %v", v)
	}
	return NonNegativeFloat(v), nil
}

func (n NonNegativeFloat) Float64() float64 { return float64(n) }

func (n *NonNegativeFloat) UnmarshalYAML(node *yaml.Node) error {
	var v float64
	if err := node.Decode(&v); err != nil {
		return Typef("", "line %d: want a non-negative float, got %q", node.Line, node.Value)
	}
	got, err := NewNonNegativeFloat("", v)
	if err != nil {
		return err
	}
	*n = got
	return nil
}

// PositiveInt is an int strictly greater than zero.
type PositiveInt int

// NewPositiveInt fails with a *TypeError unless v > 0.
func NewPositiveInt(field string, v int) (PositiveInt, error) {
	if v <= 0 {
		return 0, Typef(field, "want a positive integer, got %d", v)
	}
	return PositiveInt(v), nil
}

func (p PositiveInt) Int() int { return int(p) }

func (p *PositiveInt) UnmarshalYAML(node *yaml.Node) error {
	v, ok := scalarInt(node)
	if !ok {
		return Typef("", "line %d: want a positive integer, got %q", node.Line, node.Value)
	}
	got, err := NewPositiveInt("", v)
	if err != nil {
		return err
	}
	*p = got
	return nil
}

// NonNegativeInt is an int greater than or equal to zero.
type NonNegativeInt int

// NewNonNegativeInt fails with a *TypeError when v < 0.
func NewNonNegativeInt(field string, v int) (NonNegativeInt, error) {
	if v < 0 {
		return 0, Typef(field, "want a non-negative integer, got %d", v)
	}
	return NonNegativeInt(v), nil
}

func (n NonNegativeInt) Int() int { return int(n) }

func (n *NonNegativeInt) UnmarshalYAML(node *yaml.Node) error {
	v, ok := scalarInt(node)
	if !ok {
		return Typef("", "line %d: want a non-negative integer, got %q", node.Line, node.Value)
	}
	got, err := NewNonNegativeInt("", v)
	if err != nil {
		return err
	}
	*n = got
	return nil
}

// scalarInt reads an integer scalar. A float scalar passes only when it holds
// a whole number, since JSON bodies carry every number as a float.
func scalarInt(node *yaml.Node) (int, bool) {
	if node.Kind != yaml.ScalarNode {
		return 0, false
	}
	switch node.ShortTag() {
	case "!!int":
		var v int
		if err := node.Decode(&v); err != nil {
			return 0, false
		}
		return v, true
	case "!!float":
		var f float64
		if err := node.Decode(&f); err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return int(f), true
	}
	return 0, false
}

// Float returns a pointer to v, for optional float fields.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v, for optional int fields.
func Int(v int) *int { return &v }
