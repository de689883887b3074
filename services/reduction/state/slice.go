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
	"slices"
	"strconv"
	"strings"

	"github.com/AleutianAI/sansreduction/pkg/validation"
)

// OpenBound marks an open end of a slice window: -1 as a start means the
// beginning of the run, as an end the end of the run.
const OpenBound = -1.0

// Slice holds event-slicing windows as parallel start/end lists, in seconds
// relative to the run start.
type Slice struct {
	StartTime []float64 `yaml:"start_time,omitempty"`
	EndTime   []float64 `yaml:"end_time,omitempty"`
}

func (s *Slice) Validate() error {
	r := validation.NewReport("Slice")
	if len(s.StartTime) != len(s.EndTime) {
		r.Addf("start_time", "has %d value(s) but end_time has %d", len(s.StartTime), len(s.EndTime))
		return r.Err()
	}
	for i := range s.StartTime {
		start, end := s.StartTime[i], s.EndTime[i]
		if start < 0 && start != OpenBound {
			r.Addf("start_time", "value %d must be >= 0 or -1, got %v", i, start)
		}
		if end < 0 && end != OpenBound {
			r.Addf("end_time", "value %d must be >= 0 or -1, got %v", i, end)
		}
		if start != OpenBound && end != OpenBound && !(start < end) {
			r.Addf("start_time", "window %d must start before it ends (%v >= %v)", i, start, end)
		}
		if i > 0 && start != OpenBound && s.StartTime[i-1] != OpenBound && start < s.StartTime[i-1] {
			r.Add("start_time", "must increase monotonically")
		}
	}
	return r.Err()
}

func (s *Slice) Clone() *Slice {
	if s == nil {
		return nil
	}
	return &Slice{StartTime: slices.Clone(s.StartTime), EndTime: slices.Clone(s.EndTime)}
}

// IsSet reports whether any window is configured.
func (s *Slice) IsSet() bool {
	return s != nil && (len(s.StartTime) > 0 || len(s.EndTime) > 0)
}

// Tag is the "_t<start>_T<end>" suffix used in output names, empty when the
// leaf does not hold exactly one window.
func (s *Slice) Tag() string {
	if s == nil || len(s.StartTime) != 1 || len(s.EndTime) != 1 {
		return ""
	}
	return fmt.Sprintf("_t%s_T%s", formatTime(s.StartTime[0]), formatTime(s.EndTime[0]))
}

func formatTime(v float64) string {
	if v == OpenBound {
		return "-1"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// ParseEventSlices turns a user slice string into start/end lists. Items are
// comma separated and take one of these forms:
//
//	a-b        one window
//	a:step:b   consecutive windows of width step
//	>a         from a to the end of the run
//	<b         from the start of the run to b
func ParseEventSlices(text string) (start, end []float64, err error) {
	for _, item := range strings.Split(text, ",") {
		item = strings.TrimSpace(item)
		switch {
		case item == "":
			continue
		case strings.HasPrefix(item, ">"):
			v, err := parseTime(item[1:])
			if err != nil {
				return nil, nil, err
			}
			start, end = append(start, v), append(end, OpenBound)
		case strings.HasPrefix(item, "<"):
			v, err := parseTime(item[1:])
			if err != nil {
				return nil, nil, err
			}
			start, end = append(start, OpenBound), append(end, v)
		case strings.Count(item, ":") == 2:
			parts := strings.Split(item, ":")
			var vals [3]float64
			for i, p := range parts {
				if vals[i], err = parseTime(p); err != nil {
					return nil, nil, err
				}
			}
			lo, step, hi := vals[0], vals[1], vals[2]
			if step <= 0 || hi <= lo {
				return nil, nil, fmt.Errorf("event slice %q: need step > 0 and stop > start", item)
			}
			for t := lo; t < hi; t += step {
				start, end = append(start, t), append(end, min(t+step, hi))
			}
		default:
			a, b, ok := strings.Cut(item, "-")
			if !ok {
				return nil, nil, fmt.Errorf("event slice %q: expected a-b, a:step:b, >a or <b", item)
			}
			lo, err := parseTime(a)
			if err != nil {
				return nil, nil, err
			}
			hi, err := parseTime(b)
			if err != nil {
				return nil, nil, err
			}
			start, end = append(start, lo), append(end, hi)
		}
	}
	return start, end, nil
}

func parseTime(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("event slice time %q: %w", s, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("event slice time %q must not be negative", s)
	}
	return v, nil
}

// SliceBuilder builds a Slice leaf.
type SliceBuilder struct {
	state *Slice
}

func NewSliceBuilder() *SliceBuilder {
	return &SliceBuilder{state: &Slice{}}
}

func (b *SliceBuilder) SetWindow(start, end float64) *SliceBuilder {
	b.state.StartTime, b.state.EndTime = []float64{start}, []float64{end}
	return b
}

func (b *SliceBuilder) SetTimes(start, end []float64) *SliceBuilder {
	b.state.StartTime, b.state.EndTime = slices.Clone(start), slices.Clone(end)
	return b
}

// SetEventSliceString parses text with ParseEventSlices.
func (b *SliceBuilder) SetEventSliceString(text string) (*SliceBuilder, error) {
	start, end, err := ParseEventSlices(text)
	if err != nil {
		return b, err
	}
	return b.SetTimes(start, end), nil
}

func (b *SliceBuilder) Build() (*Slice, error) {
	return build(b.state)
}
