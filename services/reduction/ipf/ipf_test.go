// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ipf

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sans2d = `<?xml version="1.0" encoding="UTF-8"?>
<parameter-file instrument="SANS2D" valid-from="2013-01-01">
  <component-link name="SANS2D">
    <parameter name="low-angle-detector-name" type="string">
      <value val="rear-detector"/>
    </parameter>
    <parameter name="high-angle-detector-name" type="string">
      <value val=" front-detector "/>
    </parameter>
    <parameter name="low-angle-detector-name" type="string">
      <value val="ignored"/>
    </parameter>
    <parameter name="empty"/>
  </component-link>
</parameter-file>`

func TestParse(t *testing.T) {
	f, err := Parse(strings.NewReader(sans2d))
	require.NoError(t, err)
	assert.Equal(t, "SANS2D", f.Instrument)
	assert.Equal(t, 2, f.Len())

	v, ok := f.Lookup("low-angle-detector-name")
	assert.True(t, ok)
	assert.Equal(t, "rear-detector", v)

	v, ok = f.Lookup("high-angle-detector-name")
	assert.True(t, ok)
	assert.Equal(t, "front-detector", v)

	_, ok = f.Lookup("empty")
	assert.False(t, ok)
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse(strings.NewReader("<parameter-file>"))
	assert.Error(t, err)
}

func TestNilFileLookup(t *testing.T) {
	var f *File
	_, ok := f.Lookup("anything")
	assert.False(t, ok)
}

func TestResolver(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "SANS2D_Parameters.xml"), []byte(sans2d), 0o644))

	r := Resolver{Dir: dir}
	f, err := r.Resolve("SANS2D", "")
	require.NoError(t, err)
	assert.Equal(t, "SANS2D", f.Instrument)

	_, err = r.Resolve("LOQ", "")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = Resolver{}.Resolve("LOQ", "")
	assert.ErrorIs(t, err, ErrNotFound)
}
