// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package batch

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/sansreduction/services/reduction/state"
)

var (
	// ErrDuplicateKey is returned when two entries share a key.
	ErrDuplicateKey = errors.New("duplicate batch entry key")

	// ErrEmptyBatch is returned for batches without entries.
	ErrEmptyBatch = errors.New("batch has no entries")
)

// Entry is one reduction of a batch: a caller-chosen key and the state
// tree to decode.
type Entry struct {
	Key   string     `json:"key"`
	State state.Tree `json:"state"`
}

// Entries is an insertion-ordered set of batch entries. The order entries
// are added in is the order they run in; keys are never sorted.
type Entries struct {
	items []Entry
	index map[string]int
}

func NewEntries() *Entries {
	return &Entries{index: make(map[string]int)}
}

// Add appends an entry. Keys must be unique.
func (e *Entries) Add(key string, tree state.Tree) error {
	if e.index == nil {
		e.index = make(map[string]int)
	}
	if _, ok := e.index[key]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateKey, key)
	}
	e.index[key] = len(e.items)
	e.items = append(e.items, Entry{Key: key, State: tree})
	return nil
}

// MustAdd is Add for fixtures; it panics on a duplicate key.
func (e *Entries) MustAdd(key string, tree state.Tree) *Entries {
	if err := e.Add(key, tree); err != nil {
		panic(err)
	}
	return e
}

func (e *Entries) Len() int {
	if e == nil {
		return 0
	}
	return len(e.items)
}

// All returns the entries in order.
func (e *Entries) All() []Entry {
	if e == nil {
		return nil
	}
	return append([]Entry(nil), e.items...)
}

// Keys returns the entry keys in order.
func (e *Entries) Keys() []string {
	if e == nil {
		return nil
	}
	keys := make([]string, len(e.items))
	for i, it := range e.items {
		keys[i] = it.Key
	}
	return keys
}

// Get returns the tree stored under key.
func (e *Entries) Get(key string) (state.Tree, bool) {
	if e == nil {
		return nil, false
	}
	i, ok := e.index[key]
	if !ok {
		return nil, false
	}
	return e.items[i].State, true
}

// UnmarshalYAML reads a mapping of key to state tree, keeping document
// order.
func (e *Entries) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: batch must be a mapping of entry key to state", node.Line)
	}
	out := NewEntries()
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]
		var tree state.Tree
		if err := valueNode.Decode(&tree); err != nil {
			return fmt.Errorf("entry %q: %w", keyNode.Value, err)
		}
		if err := out.Add(keyNode.Value, tree); err != nil {
			return fmt.Errorf("line %d: %w", keyNode.Line, err)
		}
	}
	*e = *out
	return nil
}

// FromYAML parses a batch document.
func FromYAML(data []byte) (*Entries, error) {
	var e Entries
	if err := yaml.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("parse batch: %w", err)
	}
	return &e, nil
}

// ReadFile parses the batch document at path.
func ReadFile(path string) (*Entries, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

// MarshalJSON writes the entries as an ordered array of {key, state}.
func (e *Entries) MarshalJSON() ([]byte, error) {
	items := e.All()
	if items == nil {
		items = []Entry{}
	}
	return json.Marshal(items)
}

// UnmarshalJSON reads an ordered array of {key, state}.
func (e *Entries) UnmarshalJSON(data []byte) error {
	var items []Entry
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	out := NewEntries()
	for _, it := range items {
		if err := out.Add(it.Key, it.State); err != nil {
			return err
		}
	}
	*e = *out
	return nil
}
