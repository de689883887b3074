// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package workspace models the data containers a reduction reads and
// produces, and the name-keyed store they live in.
//
// The store is always injected; nothing in the reduction services reaches a
// process-wide table.
package workspace

import (
	"slices"

	"github.com/AleutianAI/sansreduction/services/reduction/enums"
)

// Kind distinguishes raw event data from binned histograms.
type Kind int

const (
	Histogram Kind = iota
	Event
)

func (k Kind) String() string {
	switch k {
	case Histogram:
		return "Histogram"
	case Event:
		return "Event"
	default:
		return "unknown"
	}
}

// Workspace is a named data container.
type Workspace interface {
	Name() string
	Title() string
	Kind() Kind
	Instrument() enums.Instrument

	// Clone returns an independent copy.
	Clone() Workspace

	// Renamed returns a copy carrying name.
	Renamed(name string) Workspace
}

// Header carries the fields every workspace has.
type Header struct {
	WorkspaceName  string           `json:"name"`
	WorkspaceTitle string           `json:"title,omitempty"`
	Inst           enums.Instrument `json:"instrument"`
}

func (h Header) Name() string                 { return h.WorkspaceName }
func (h Header) Title() string                { return h.WorkspaceTitle }
func (h Header) Instrument() enums.Instrument { return h.Inst }

// Neutron is one detected event: the pulse it arrived in and its time of
// flight within that pulse. PulseTime is seconds since the run start.
type Neutron struct {
	PulseTime float64 `json:"pulse_time"`
	TOF       float64 `json:"tof"`
	Spectrum  int     `json:"spectrum"`
}

// ChargeSample is the proton charge (uAh) delivered by the pulse at Time.
type ChargeSample struct {
	Time   float64 `json:"time"`
	Charge float64 `json:"charge"`
}

// EventWorkspace holds unbinned events and the proton-charge log.
type EventWorkspace struct {
	Header
	Events       []Neutron      `json:"events"`
	ProtonCharge []ChargeSample `json:"proton_charge"`
	// Duration is the run length in seconds.
	Duration float64 `json:"duration"`
}

func (w *EventWorkspace) Kind() Kind { return Event }

func (w *EventWorkspace) Clone() Workspace {
	c := *w
	c.Events = slices.Clone(w.Events)
	c.ProtonCharge = slices.Clone(w.ProtonCharge)
	return &c
}

func (w *EventWorkspace) Renamed(name string) Workspace {
	c := w.Clone().(*EventWorkspace)
	c.WorkspaceName = name
	return c
}

// HistogramWorkspace holds binned counts with errors. X has either len(Y)
// bin centres or len(Y)+1 bin edges.
type HistogramWorkspace struct {
	Header
	X []float64 `json:"x"`
	Y []float64 `json:"y"`
	E []float64 `json:"e"`
	// Unit names the X axis, for example "MomentumTransfer".
	Unit string `json:"unit,omitempty"`
}

func (w *HistogramWorkspace) Kind() Kind { return Histogram }

func (w *HistogramWorkspace) Clone() Workspace {
	c := *w
	c.X, c.Y, c.E = slices.Clone(w.X), slices.Clone(w.Y), slices.Clone(w.E)
	return &c
}

func (w *HistogramWorkspace) Renamed(name string) Workspace {
	c := w.Clone().(*HistogramWorkspace)
	c.WorkspaceName = name
	return c
}

// Centre returns the X position of bin i.
func (w *HistogramWorkspace) Centre(i int) float64 {
	if len(w.X) == len(w.Y)+1 {
		return (w.X[i] + w.X[i+1]) / 2
	}
	return w.X[i]
}
