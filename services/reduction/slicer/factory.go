// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package slicer

import (
	"github.com/AleutianAI/sansreduction/pkg/logging"
	"github.com/AleutianAI/sansreduction/services/reduction/enums"
	"github.com/AleutianAI/sansreduction/services/reduction/workspace"
)

// Factory selects a Slicer for a workspace.
//
// Create is a pure function of its inputs: the same kind, instrument and
// data type always select the same strategy type.
type Factory struct {
	charge ChargeAccountant
	logger *logging.Logger
}

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

// WithChargeAccountant replaces the default EventLogAccountant.
func WithChargeAccountant(c ChargeAccountant) FactoryOption {
	return func(f *Factory) { f.charge = c }
}

// WithLogger sets the logger handed to event slicers.
func WithLogger(l *logging.Logger) FactoryOption {
	return func(f *Factory) { f.logger = l }
}

// NewFactory creates a factory with the given options.
func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{
		charge: EventLogAccountant{},
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create selects the strategy for data of the given kind.
//
// Histograms always get a NullSlicer. Event data on an ISIS SANS
// instrument gets an EventSlicer for dataType. Anything else fails with an
// *enums.SelectionError wrapping enums.ErrNotImplemented.
func (f *Factory) Create(kind workspace.Kind, instrument enums.Instrument, dataType enums.DataType) (Slicer, error) {
	switch {
	case kind == workspace.Histogram:
		return NullSlicer{}, nil
	case kind == workspace.Event && instrument.Facility() == enums.ISIS:
		return &EventSlicer{dataType: dataType, charge: f.charge, logger: f.logger}, nil
	default:
		return nil, &enums.SelectionError{
			What:  "slicer",
			Value: kind.String() + "/" + instrument.String(),
			Err:   enums.ErrNotImplemented,
		}
	}
}

// ForWorkspace is Create using the kind and instrument of ws.
func (f *Factory) ForWorkspace(ws workspace.Workspace, dataType enums.DataType) (Slicer, error) {
	return f.Create(ws.Kind(), ws.Instrument(), dataType)
}
