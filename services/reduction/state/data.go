// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package state

import (
	"strconv"

	"github.com/AleutianAI/sansreduction/pkg/validation"
	"github.com/AleutianAI/sansreduction/services/reduction/enums"
	"github.com/AleutianAI/sansreduction/services/reduction/params"
)

// Data names the runs that make up a reduction. Periods of 0 select every
// period of a multi-period file.
type Data struct {
	SampleScatter            string                `yaml:"sample_scatter" validate:"notblank"`
	SampleScatterPeriod      params.NonNegativeInt `yaml:"sample_scatter_period" validate:"gte=0"`
	SampleTransmission       string                `yaml:"sample_transmission,omitempty"`
	SampleTransmissionPeriod params.NonNegativeInt `yaml:"sample_transmission_period" validate:"gte=0"`
	SampleDirect             string                `yaml:"sample_direct,omitempty"`
	SampleDirectPeriod       params.NonNegativeInt `yaml:"sample_direct_period" validate:"gte=0"`

	CanScatter            string                `yaml:"can_scatter,omitempty"`
	CanScatterPeriod      params.NonNegativeInt `yaml:"can_scatter_period" validate:"gte=0"`
	CanTransmission       string                `yaml:"can_transmission,omitempty"`
	CanTransmissionPeriod params.NonNegativeInt `yaml:"can_transmission_period" validate:"gte=0"`
	CanDirect             string                `yaml:"can_direct,omitempty"`
	CanDirectPeriod       params.NonNegativeInt `yaml:"can_direct_period" validate:"gte=0"`

	Calibration string `yaml:"calibration,omitempty"`
	UserFile    string `yaml:"user_file,omitempty"`

	SampleScatterRunNumber     params.NonNegativeInt `yaml:"sample_scatter_run_number" validate:"gte=0"`
	SampleScatterIsMultiPeriod bool                  `yaml:"sample_scatter_is_multi_period"`

	Instrument  enums.Instrument `yaml:"instrument"`
	Facility    enums.Facility   `yaml:"facility"`
	IDFFilePath string           `yaml:"idf_file_path,omitempty"`
	IPFFilePath string           `yaml:"ipf_file_path,omitempty"`
}

func (d *Data) Validate() error {
	r := validation.NewReport("Data")
	r.Struct(d)

	if d.Instrument == enums.NoInstrument {
		r.Add("instrument", "must be one of LOQ, LARMOR, SANS2D, ZOOM")
	} else if d.Facility != d.Instrument.Facility() {
		r.Addf("facility", "is %s but %s belongs to %s", d.Facility, d.Instrument, d.Instrument.Facility())
	}

	together(r, []string{"sample_transmission", "sample_direct"},
		d.SampleTransmission != "", d.SampleDirect != "")
	together(r, []string{"can_transmission", "can_direct"},
		d.CanTransmission != "", d.CanDirect != "")
	if d.CanScatter == "" && (d.CanTransmission != "" || d.CanDirect != "") {
		r.Add("can_scatter", "must be set when can transmission runs are given")
	}
	return r.Err()
}

func (d *Data) Clone() *Data {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}

// RunLabel is the run number when known, otherwise the sample scatter name.
func (d *Data) RunLabel() string {
	if d.SampleScatterRunNumber > 0 {
		return strconv.Itoa(d.SampleScatterRunNumber.Int())
	}
	return d.SampleScatter
}

// HasCan reports whether a can scatter run is configured.
func (d *Data) HasCan() bool {
	return d.CanScatter != ""
}

// DataBuilder builds a Data leaf for one instrument.
type DataBuilder struct {
	state *Data
}

// NewDataBuilder starts a Data leaf for instrument with its facility filled in.
func NewDataBuilder(instrument enums.Instrument) *DataBuilder {
	return &DataBuilder{state: &Data{Instrument: instrument, Facility: instrument.Facility()}}
}

func (b *DataBuilder) SetSampleScatter(name string, period params.NonNegativeInt) *DataBuilder {
	b.state.SampleScatter, b.state.SampleScatterPeriod = name, period
	return b
}

func (b *DataBuilder) SetSampleTransmission(name string, period params.NonNegativeInt) *DataBuilder {
	b.state.SampleTransmission, b.state.SampleTransmissionPeriod = name, period
	return b
}

func (b *DataBuilder) SetSampleDirect(name string, period params.NonNegativeInt) *DataBuilder {
	b.state.SampleDirect, b.state.SampleDirectPeriod = name, period
	return b
}

func (b *DataBuilder) SetCanScatter(name string, period params.NonNegativeInt) *DataBuilder {
	b.state.CanScatter, b.state.CanScatterPeriod = name, period
	return b
}

func (b *DataBuilder) SetCanTransmission(name string, period params.NonNegativeInt) *DataBuilder {
	b.state.CanTransmission, b.state.CanTransmissionPeriod = name, period
	return b
}

func (b *DataBuilder) SetCanDirect(name string, period params.NonNegativeInt) *DataBuilder {
	b.state.CanDirect, b.state.CanDirectPeriod = name, period
	return b
}

func (b *DataBuilder) SetCalibration(path string) *DataBuilder {
	b.state.Calibration = path
	return b
}

func (b *DataBuilder) SetUserFile(path string) *DataBuilder {
	b.state.UserFile = path
	return b
}

func (b *DataBuilder) SetRunNumber(run params.NonNegativeInt, multiPeriod bool) *DataBuilder {
	b.state.SampleScatterRunNumber, b.state.SampleScatterIsMultiPeriod = run, multiPeriod
	return b
}

func (b *DataBuilder) SetInstrumentFiles(idf, ipf string) *DataBuilder {
	b.state.IDFFilePath, b.state.IPFFilePath = idf, ipf
	return b
}

func (b *DataBuilder) Build() (*Data, error) {
	return build(b.state)
}
