// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package enums defines the closed enumerations used across reduction states
// and the error raised when a configuration selects an unsupported strategy.
//
// Every enum is int-backed, prints its canonical name, parses its names
// case-insensitively and round-trips through YAML and JSON as text.
package enums

import (
	"errors"
	"fmt"
	"strings"

	"github.com/AleutianAI/sansreduction/services/reduction/params"
)

var (
	// ErrNotImplemented marks a selection the system knows about but has no
	// strategy for.
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnsupported marks a selection that is not a valid choice at all.
	ErrUnsupported = errors.New("unsupported")
)

// SelectionError reports a configuration selection with no matching strategy.
type SelectionError struct {
	What  string
	Value string
	Err   error
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.What, e.Value, e.Err)
}

func (e *SelectionError) Unwrap() error { return e.Err }

// table is the name list of one enum, indexed by value.
type table []string

func (t table) name(v int) string {
	if v >= 0 && v < len(t) {
		return t[v]
	}
	return fmt.Sprintf("unknown(%d)", v)
}

func (t table) index(what, s string) (int, error) {
	s = strings.TrimSpace(s)
	for i, n := range t {
		if strings.EqualFold(n, s) {
			return i, nil
		}
	}
	return 0, params.Typef(what, "%q is not one of %s", s, strings.Join(t, ", "))
}

func parse[T ~int](t table, what, s string) (T, error) {
	i, err := t.index(what, s)
	return T(i), err
}

func text[T ~int](t table, v T) ([]byte, error) {
	if int(v) < 0 || int(v) >= len(t) {
		return nil, params.Typef("", "%d is out of range", int(v))
	}
	return []byte(t[v]), nil
}
