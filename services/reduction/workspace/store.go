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
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrNotFound is returned when no workspace has the requested name.
	ErrNotFound = errors.New("workspace not found")

	// ErrExists is returned by Add when the name is taken.
	ErrExists = errors.New("workspace already exists")

	// ErrInvalidName is returned for empty names.
	ErrInvalidName = errors.New("workspace name must not be empty")
)

// Store is a name-keyed workspace table. Implementations copy on the way in
// and out, so callers never share a workspace with the store.
type Store interface {
	Add(ctx context.Context, name string, ws Workspace) error
	AddOrReplace(ctx context.Context, name string, ws Workspace) error
	Retrieve(ctx context.Context, name string) (Workspace, error)
	Exists(ctx context.Context, name string) (bool, error)
	Remove(ctx context.Context, name string) error
	Names(ctx context.Context) ([]string, error)
}

// MemoryStore is a Store kept in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]Workspace
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]Workspace)}
}

func (s *MemoryStore) Add(_ context.Context, name string, ws Workspace) error {
	if name == "" {
		return ErrInvalidName
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[name]; ok {
		return fmt.Errorf("%w: %s", ErrExists, name)
	}
	s.items[name] = ws.Renamed(name)
	return nil
}

func (s *MemoryStore) AddOrReplace(_ context.Context, name string, ws Workspace) error {
	if name == "" {
		return ErrInvalidName
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[name] = ws.Renamed(name)
	return nil
}

func (s *MemoryStore) Retrieve(_ context.Context, name string) (Workspace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ws, ok := s.items[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return ws.Clone(), nil
}

func (s *MemoryStore) Exists(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.items[name]
	return ok, nil
}

func (s *MemoryStore) Remove(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	delete(s.items, name)
	return nil
}

func (s *MemoryStore) Names(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.items))
	for n := range s.items {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

var _ Store = (*MemoryStore)(nil)
