// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package workspace

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Record is the serialised form of a workspace: a kind tag plus exactly one
// populated payload.
type Record struct {
	Kind      string              `json:"kind"`
	Event     *EventWorkspace     `json:"event,omitempty"`
	Histogram *HistogramWorkspace `json:"histogram,omitempty"`
}

// NewRecord wraps ws for serialisation.
func NewRecord(ws Workspace) (Record, error) {
	switch w := ws.(type) {
	case *EventWorkspace:
		return Record{Kind: Event.String(), Event: w}, nil
	case *HistogramWorkspace:
		return Record{Kind: Histogram.String(), Histogram: w}, nil
	default:
		return Record{}, fmt.Errorf("cannot serialise workspace of type %T", ws)
	}
}

// Workspace unwraps the record.
func (r Record) Workspace() (Workspace, error) {
	switch {
	case r.Kind == Event.String() && r.Event != nil:
		return r.Event, nil
	case r.Kind == Histogram.String() && r.Histogram != nil:
		return r.Histogram, nil
	default:
		return nil, fmt.Errorf("malformed workspace record of kind %q", r.Kind)
	}
}

// ReadRecords decodes a JSON array of records.
func ReadRecords(r io.Reader) ([]Workspace, error) {
	var records []Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode workspace records: %w", err)
	}
	out := make([]Workspace, 0, len(records))
	for i, rec := range records {
		ws, err := rec.Workspace()
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, ws)
	}
	return out, nil
}

// ReadRecordsFile decodes the JSON array of records stored at path.
func ReadRecordsFile(path string) ([]Workspace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadRecords(f)
}
