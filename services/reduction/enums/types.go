// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package enums

// Facility is the neutron source that operates an instrument.
type Facility int

const (
	NoFacility Facility = iota
	ISIS
)

var facilityNames = table{"NoFacility", "ISIS"}

func (v Facility) String() string { return facilityNames.name(int(v)) }

// ParseFacility parses a facility name.
func ParseFacility(s string) (Facility, error) { return parse[Facility](facilityNames, "facility", s) }

func (v Facility) MarshalText() ([]byte, error) { return text(facilityNames, v) }

func (v *Facility) UnmarshalText(b []byte) error {
	got, err := ParseFacility(string(b))
	if err != nil {
		return err
	}
	*v = got
	return nil
}

// Instrument is a SANS beamline.
type Instrument int

const (
	NoInstrument Instrument = iota
	LOQ
	LARMOR
	SANS2D
	ZOOM
)

var instrumentNames = table{"NoInstrument", "LOQ", "LARMOR", "SANS2D", "ZOOM"}

func (v Instrument) String() string { return instrumentNames.name(int(v)) }

// ParseInstrument parses an instrument name.
func ParseInstrument(s string) (Instrument, error) { return parse[Instrument](instrumentNames, "instrument", s) }

func (v Instrument) MarshalText() ([]byte, error) { return text(instrumentNames, v) }

func (v *Instrument) UnmarshalText(b []byte) error {
	got, err := ParseInstrument(string(b))
	if err != nil {
		return err
	}
	*v = got
	return nil
}

// DetectorType is a detector bank: low-angle (LAB) or high-angle (HAB).
type DetectorType int

const (
	LAB DetectorType = iota
	HAB
)

var detectorTypeNames = table{"LAB", "HAB"}

func (v DetectorType) String() string { return detectorTypeNames.name(int(v)) }

// ParseDetectorType parses a detector type name.
func ParseDetectorType(s string) (DetectorType, error) { return parse[DetectorType](detectorTypeNames, "detector type", s) }

func (v DetectorType) MarshalText() ([]byte, error) { return text(detectorTypeNames, v) }

func (v *DetectorType) UnmarshalText(b []byte) error {
	got, err := ParseDetectorType(string(b))
	if err != nil {
		return err
	}
	*v = got
	return nil
}

// ReductionMode selects which banks a reduction produces.
type ReductionMode int

const (
	ReductionModeLAB ReductionMode = iota
	ReductionModeHAB
	Merged
	All
)

var reductionModeNames = table{"LAB", "HAB", "Merged", "All"}

func (v ReductionMode) String() string { return reductionModeNames.name(int(v)) }

// ParseReductionMode parses a reduction mode name.
func ParseReductionMode(s string) (ReductionMode, error) { return parse[ReductionMode](reductionModeNames, "reduction mode", s) }

func (v ReductionMode) MarshalText() ([]byte, error) { return text(reductionModeNames, v) }

func (v *ReductionMode) UnmarshalText(b []byte) error {
	got, err := ParseReductionMode(string(b))
	if err != nil {
		return err
	}
	*v = got
	return nil
}

type ReductionDimensionality int

const (
	OneDim ReductionDimensionality = iota
	TwoDim
)

var reductionDimensionalityNames = table{"OneDim", "TwoDim"}

func (v ReductionDimensionality) String() string { return reductionDimensionalityNames.name(int(v)) }

// ParseReductionDimensionality parses a reduction dimensionality name.
func ParseReductionDimensionality(s string) (ReductionDimensionality, error) { return parse[ReductionDimensionality](reductionDimensionalityNames, "reduction dimensionality", s) }

func (v ReductionDimensionality) MarshalText() ([]byte, error) { return text(reductionDimensionalityNames, v) }

func (v *ReductionDimensionality) UnmarshalText(b []byte) error {
	got, err := ParseReductionDimensionality(string(b))
	if err != nil {
		return err
	}
	*v = got
	return nil
}

// FitMode controls which merge parameters are fitted.
type FitMode int

const (
	NoFit FitMode = iota
	FitBoth
	ShiftOnly
	ScaleOnly
)

var fitModeNames = table{"NoFit", "Both", "ShiftOnly", "ScaleOnly"}

func (v FitMode) String() string { return fitModeNames.name(int(v)) }

// ParseFitMode parses a fit mode name.
func ParseFitMode(s string) (FitMode, error) { return parse[FitMode](fitModeNames, "fit mode", s) }

func (v FitMode) MarshalText() ([]byte, error) { return text(fitModeNames, v) }

func (v *FitMode) UnmarshalText(b []byte) error {
	got, err := ParseFitMode(string(b))
	if err != nil {
		return err
	}
	*v = got
	return nil
}

type DataType int

const (
	Sample DataType = iota
	Can
)

var dataTypeNames = table{"Sample", "Can"}

func (v DataType) String() string { return dataTypeNames.name(int(v)) }

// ParseDataType parses a data type name.
func ParseDataType(s string) (DataType, error) { return parse[DataType](dataTypeNames, "data type", s) }

func (v DataType) MarshalText() ([]byte, error) { return text(dataTypeNames, v) }

func (v *DataType) UnmarshalText(b []byte) error {
	got, err := ParseDataType(string(b))
	if err != nil {
		return err
	}
	*v = got
	return nil
}

type RangeStepType int

const (
	StepNotSet RangeStepType = iota
	Lin
	Log
	RangeLin
	RangeLog
)

var rangeStepTypeNames = table{"NotSet", "Lin", "Log", "RangeLin", "RangeLog"}

func (v RangeStepType) String() string { return rangeStepTypeNames.name(int(v)) }

// ParseRangeStepType parses a range step type name.
func ParseRangeStepType(s string) (RangeStepType, error) { return parse[RangeStepType](rangeStepTypeNames, "range step type", s) }

func (v RangeStepType) MarshalText() ([]byte, error) { return text(rangeStepTypeNames, v) }

func (v *RangeStepType) UnmarshalText(b []byte) error {
	got, err := ParseRangeStepType(string(b))
	if err != nil {
		return err
	}
	*v = got
	return nil
}

type RebinType int

const (
	Rebin RebinType = iota
	InterpolatingRebin
)

var rebinTypeNames = table{"Rebin", "InterpolatingRebin"}

func (v RebinType) String() string { return rebinTypeNames.name(int(v)) }

// ParseRebinType parses a rebin type name.
func ParseRebinType(s string) (RebinType, error) { return parse[RebinType](rebinTypeNames, "rebin type", s) }

func (v RebinType) MarshalText() ([]byte, error) { return text(rebinTypeNames, v) }

func (v *RebinType) UnmarshalText(b []byte) error {
	got, err := ParseRebinType(string(b))
	if err != nil {
		return err
	}
	*v = got
	return nil
}

type SampleShape int

const (
	ShapeNotSet SampleShape = iota
	Cylinder
	FlatPlate
	Disc
)

var sampleShapeNames = table{"NotSet", "Cylinder", "FlatPlate", "Disc"}

func (v SampleShape) String() string { return sampleShapeNames.name(int(v)) }

// ParseSampleShape parses a sample shape name.
func ParseSampleShape(s string) (SampleShape, error) { return parse[SampleShape](sampleShapeNames, "sample shape", s) }

func (v SampleShape) MarshalText() ([]byte, error) { return text(sampleShapeNames, v) }

func (v *SampleShape) UnmarshalText(b []byte) error {
	got, err := ParseSampleShape(string(b))
	if err != nil {
		return err
	}
	*v = got
	return nil
}

// SaveType is an output file format.
type SaveType int

const (
	Nexus SaveType = iota
	NXcanSAS
	CanSAS
	NistQxy
	RKH
	CSV
)

var saveTypeNames = table{"Nexus", "NXcanSAS", "CanSAS", "NistQxy", "RKH", "CSV"}

func (v SaveType) String() string { return saveTypeNames.name(int(v)) }

// ParseSaveType parses a save type name.
func ParseSaveType(s string) (SaveType, error) { return parse[SaveType](saveTypeNames, "save type", s) }

func (v SaveType) MarshalText() ([]byte, error) { return text(saveTypeNames, v) }

func (v *SaveType) UnmarshalText(b []byte) error {
	got, err := ParseSaveType(string(b))
	if err != nil {
		return err
	}
	*v = got
	return nil
}

type TransmissionFit int

const (
	FitNotSet TransmissionFit = iota
	Linear
	Logarithmic
	Polynomial
)

var transmissionFitNames = table{"NotSet", "Linear", "Logarithmic", "Polynomial"}

func (v TransmissionFit) String() string { return transmissionFitNames.name(int(v)) }

// ParseTransmissionFit parses a transmission fit name.
func ParseTransmissionFit(s string) (TransmissionFit, error) { return parse[TransmissionFit](transmissionFitNames, "transmission fit", s) }

func (v TransmissionFit) MarshalText() ([]byte, error) { return text(transmissionFitNames, v) }

func (v *TransmissionFit) UnmarshalText(b []byte) error {
	got, err := ParseTransmissionFit(string(b))
	if err != nil {
		return err
	}
	*v = got
	return nil
}

// OutputMode is the user-facing output selection. Both is expanded into
// individual OutputFlag values before dispatch.
type OutputMode int

const (
	OutputPublish OutputMode = iota
	OutputSave
	OutputBoth
)

var outputModeNames = table{"PublishToADS", "SaveToFile", "Both"}

func (v OutputMode) String() string { return outputModeNames.name(int(v)) }

// ParseOutputMode parses an output mode name.
func ParseOutputMode(s string) (OutputMode, error) { return parse[OutputMode](outputModeNames, "output mode", s) }

func (v OutputMode) MarshalText() ([]byte, error) { return text(outputModeNames, v) }

func (v *OutputMode) UnmarshalText(b []byte) error {
	got, err := ParseOutputMode(string(b))
	if err != nil {
		return err
	}
	*v = got
	return nil
}

// OutputFlag is a single output destination. It has no aggregate variant.
type OutputFlag int

const (
	PublishToADS OutputFlag = iota
	SaveToFile
)

var outputFlagNames = table{"PublishToADS", "SaveToFile"}

func (v OutputFlag) String() string { return outputFlagNames.name(int(v)) }

// ParseOutputFlag parses an output flag name.
func ParseOutputFlag(s string) (OutputFlag, error) { return parse[OutputFlag](outputFlagNames, "output flag", s) }

func (v OutputFlag) MarshalText() ([]byte, error) { return text(outputFlagNames, v) }

func (v *OutputFlag) UnmarshalText(b []byte) error {
	got, err := ParseOutputFlag(string(b))
	if err != nil {
		return err
	}
	*v = got
	return nil
}
