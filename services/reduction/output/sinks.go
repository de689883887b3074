// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package output

import (
	"context"
	"fmt"
	"sync"

	"github.com/AleutianAI/sansreduction/services/reduction/enums"
	"github.com/AleutianAI/sansreduction/services/reduction/state"
	"github.com/AleutianAI/sansreduction/services/reduction/workspace"
)

// Sink registers reduced workspaces with one destination.
type Sink interface {
	Register(ctx context.Context, st *state.State, bank Bank, ws workspace.Workspace) ([]Record, error)
}

// StoreSink publishes outputs into the workspace store under their own
// name, falling back to their title.
type StoreSink struct {
	store workspace.Store
}

func NewStoreSink(store workspace.Store) *StoreSink {
	return &StoreSink{store: store}
}

func (s *StoreSink) Register(ctx context.Context, _ *state.State, bank Bank, ws workspace.Workspace) ([]Record, error) {
	name := ws.Name()
	if name == "" {
		name = ws.Title()
	}
	if name == "" {
		return nil, fmt.Errorf("publish %s output: %w", bank, workspace.ErrInvalidName)
	}
	if err := s.store.AddOrReplace(ctx, name, ws); err != nil {
		return nil, fmt.Errorf("publish %s output: %w", bank, err)
	}
	return []Record{{Bank: bank, Flag: enums.PublishToADS, Target: name}}, nil
}

// Slot is one declared output.
type Slot struct {
	Name      string
	Workspace workspace.Workspace
}

// SlotSink declares a fresh output slot per registration, named
// OutputWorkspace<bank>_<n>. Each bank counts from 1 independently.
//
// Thread Safety: SlotSink is safe for concurrent use.
type SlotSink struct {
	mu       sync.Mutex
	counters map[Bank]int
	slots    []Slot
}

func NewSlotSink() *SlotSink {
	return &SlotSink{counters: make(map[Bank]int)}
}

func (s *SlotSink) Register(_ context.Context, _ *state.State, bank Bank, ws workspace.Workspace) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[bank]++
	name := fmt.Sprintf("OutputWorkspace%s_%d", bank, s.counters[bank])
	s.slots = append(s.slots, Slot{Name: name, Workspace: ws.Clone()})
	return []Record{{Bank: bank, Flag: enums.PublishToADS, Target: name}}, nil
}

// Slots returns the declared slots in declaration order.
func (s *SlotSink) Slots() []Slot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Slot, len(s.slots))
	for i, sl := range s.slots {
		out[i] = Slot{Name: sl.Name, Workspace: sl.Workspace.Clone()}
	}
	return out
}

// Lookup returns the workspace declared under name.
func (s *SlotSink) Lookup(name string) (workspace.Workspace, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sl := range s.slots {
		if sl.Name == name {
			return sl.Workspace.Clone(), true
		}
	}
	return nil, false
}

var (
	_ Sink = (*StoreSink)(nil)
	_ Sink = (*SlotSink)(nil)
)
