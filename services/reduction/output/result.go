// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package output names reduced workspaces and routes them to their
// destinations: the workspace store, declared output slots, or saved files.
package output

import (
	"errors"
	"fmt"

	"github.com/AleutianAI/sansreduction/services/reduction/enums"
	"github.com/AleutianAI/sansreduction/services/reduction/workspace"
)

// ErrNoSink is returned when a flag has no sink configured.
var ErrNoSink = errors.New("no sink configured for output flag")

// Bank identifies one output of a reduction.
type Bank int

const (
	BankLAB Bank = iota
	BankHAB
	BankMerged
)

func (b Bank) String() string {
	switch b {
	case BankLAB:
		return "LAB"
	case BankHAB:
		return "HAB"
	case BankMerged:
		return "Merged"
	default:
		return "unknown"
	}
}

// BankFor maps a detector bank onto its output.
func BankFor(d enums.DetectorType) Bank {
	if d == enums.HAB {
		return BankHAB
	}
	return BankLAB
}

// Result holds the outputs of one reduction. Any of them may be nil.
// Records lists where the outputs were registered.
type Result struct {
	LAB    workspace.Workspace
	HAB    workspace.Workspace
	Merged workspace.Workspace

	Records []Record
}

// Set stores ws as the output for bank.
func (r *Result) Set(bank Bank, ws workspace.Workspace) {
	switch bank {
	case BankLAB:
		r.LAB = ws
	case BankHAB:
		r.HAB = ws
	case BankMerged:
		r.Merged = ws
	}
}

// Get returns the output for bank, or nil.
func (r *Result) Get(bank Bank) workspace.Workspace {
	switch bank {
	case BankLAB:
		return r.LAB
	case BankHAB:
		return r.HAB
	case BankMerged:
		return r.Merged
	default:
		return nil
	}
}

// Banks lists the banks holding an output, in LAB, HAB, Merged order.
func (r *Result) Banks() []Bank {
	if r == nil {
		return nil
	}
	var banks []Bank
	for _, b := range []Bank{BankLAB, BankHAB, BankMerged} {
		if r.Get(b) != nil {
			banks = append(banks, b)
		}
	}
	return banks
}

// Record describes one registered output.
type Record struct {
	Bank   Bank             `json:"bank"`
	Flag   enums.OutputFlag `json:"flag"`
	Target string           `json:"target"`
}

func (b Bank) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *Bank) UnmarshalText(text []byte) error {
	for _, c := range []Bank{BankLAB, BankHAB, BankMerged} {
		if c.String() == string(text) {
			*b = c
			return nil
		}
	}
	return fmt.Errorf("unknown output bank %q", text)
}
