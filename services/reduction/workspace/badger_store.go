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
	"strings"

	"github.com/AleutianAI/sansreduction/services/reduction/storage/badger"
)

const keyPrefix = "ws/"

// BadgerStore is a Store persisted in BadgerDB. Workspaces are stored as
// JSON records under "ws/<name>".
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore uses db; the caller keeps ownership and closes it.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

func (s *BadgerStore) Add(ctx context.Context, name string, ws Workspace) error {
	if name == "" {
		return ErrInvalidName
	}
	rec, err := NewRecord(ws.Renamed(name))
	if err != nil {
		return err
	}
	written, err := s.db.InsertJSON(ctx, keyPrefix+name, rec)
	if err != nil {
		return fmt.Errorf("add workspace %s: %w", name, err)
	}
	if !written {
		return fmt.Errorf("%w: %s", ErrExists, name)
	}
	return nil
}

func (s *BadgerStore) AddOrReplace(ctx context.Context, name string, ws Workspace) error {
	if name == "" {
		return ErrInvalidName
	}
	rec, err := NewRecord(ws.Renamed(name))
	if err != nil {
		return err
	}
	if err := s.db.PutJSON(ctx, keyPrefix+name, rec); err != nil {
		return fmt.Errorf("store workspace %s: %w", name, err)
	}
	return nil
}

func (s *BadgerStore) Retrieve(ctx context.Context, name string) (Workspace, error) {
	var rec Record
	err := s.db.GetJSON(ctx, keyPrefix+name, &rec)
	if errors.Is(err, badger.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("retrieve workspace %s: %w", name, err)
	}
	return rec.Workspace()
}

func (s *BadgerStore) Exists(ctx context.Context, name string) (bool, error) {
	return s.db.Has(ctx, keyPrefix+name)
}

func (s *BadgerStore) Remove(ctx context.Context, name string) error {
	err := s.db.Delete(ctx, keyPrefix+name)
	if errors.Is(err, badger.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return err
}

func (s *BadgerStore) Names(ctx context.Context) ([]string, error) {
	keys, err := s.db.Keys(ctx, keyPrefix)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = strings.TrimPrefix(k, keyPrefix)
	}
	return names, nil
}

var _ Store = (*BadgerStore)(nil)
