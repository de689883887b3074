// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ipf reads instrument parameter files: the XML documents that attach
// named string/number parameters to instrument components.
//
//	<parameter-file instrument="SANS2D">
//	  <component-link name="SANS2D">
//	    <parameter name="low-angle-detector-name" type="string">
//	      <value val="rear-detector"/>
//	    </parameter>
//	  </component-link>
//	</parameter-file>
package ipf

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned by Resolver when no file exists for an instrument.
var ErrNotFound = errors.New("instrument parameter file not found")

// Lookup answers parameter queries by name.
type Lookup interface {
	Lookup(name string) (string, bool)
}

// File is a parsed parameter file.
type File struct {
	Instrument string
	values     map[string]string
}

type document struct {
	XMLName    xml.Name        `xml:"parameter-file"`
	Instrument string          `xml:"instrument,attr"`
	Components []componentLink `xml:"component-link"`
}

type componentLink struct {
	Name       string      `xml:"name,attr"`
	Parameters []parameter `xml:"parameter"`
}

type parameter struct {
	Name   string  `xml:"name,attr"`
	Values []value `xml:"value"`
}

type value struct {
	Val string `xml:"val,attr"`
}

// Parse decodes a parameter file. When a parameter name repeats, the first
// occurrence wins.
func Parse(r io.Reader) (*File, error) {
	var doc document
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding parameter file: %w", err)
	}
	f := &File{Instrument: doc.Instrument, values: make(map[string]string)}
	for _, c := range doc.Components {
		for _, p := range c.Parameters {
			if p.Name == "" || len(p.Values) == 0 {
				continue
			}
			if _, seen := f.values[p.Name]; !seen {
				f.values[p.Name] = strings.TrimSpace(p.Values[0].Val)
			}
		}
	}
	return f, nil
}

// Load parses the parameter file at path.
func Load(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	f, err := Parse(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Lookup returns the value of the named parameter.
func (f *File) Lookup(name string) (string, bool) {
	if f == nil {
		return "", false
	}
	v, ok := f.values[name]
	return v, ok
}

// Len returns how many parameters the file defines.
func (f *File) Len() int {
	if f == nil {
		return 0
	}
	return len(f.values)
}

// Resolver finds parameter files on disk.
type Resolver struct {
	// Dir holds files named <INSTRUMENT>_Parameters.xml.
	Dir string
}

// Resolve loads explicit when set, otherwise the file for instrument in Dir.
func (r Resolver) Resolve(instrument, explicit string) (*File, error) {
	path := explicit
	if path == "" {
		if r.Dir == "" || instrument == "" {
			return nil, ErrNotFound
		}
		path = filepath.Join(r.Dir, instrument+"_Parameters.xml")
	}
	f, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return f, err
}

// Map is a Lookup backed by a plain map.
type Map map[string]string

func (m Map) Lookup(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}
