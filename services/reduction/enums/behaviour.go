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

// Facility returns the facility operating the instrument.
func (v Instrument) Facility() Facility {
	switch v {
	case LOQ, LARMOR, SANS2D, ZOOM:
		return ISIS
	default:
		return NoFacility
	}
}

// HasHAB reports whether the instrument carries a high-angle bank.
func (v Instrument) HasHAB() bool {
	return v == LOQ || v == SANS2D
}

// DetectorType maps a single-bank reduction mode onto its bank. Merged and
// All span both banks and report false.
func (v ReductionMode) DetectorType() (DetectorType, bool) {
	switch v {
	case ReductionModeLAB:
		return LAB, true
	case ReductionModeHAB:
		return HAB, true
	default:
		return 0, false
	}
}

// Banks lists the detector banks a reduction in this mode has to reduce.
func (v ReductionMode) Banks() []DetectorType {
	switch v {
	case ReductionModeLAB:
		return []DetectorType{LAB}
	case ReductionModeHAB:
		return []DetectorType{HAB}
	default:
		return []DetectorType{LAB, HAB}
	}
}

// Merges reports whether the mode produces a merged output.
func (v ReductionMode) Merges() bool {
	return v == Merged || v == All
}

// Flags expands the mode into the destinations it stands for.
func (v OutputMode) Flags() []OutputFlag {
	switch v {
	case OutputPublish:
		return []OutputFlag{PublishToADS}
	case OutputSave:
		return []OutputFlag{SaveToFile}
	case OutputBoth:
		return []OutputFlag{PublishToADS, SaveToFile}
	default:
		return nil
	}
}

// GetOutputModes parses a user-facing output mode string and expands it.
// "Both" yields [PublishToADS, SaveToFile].
func GetOutputModes(s string) ([]OutputFlag, error) {
	mode, err := ParseOutputMode(s)
	if err != nil {
		return nil, &SelectionError{What: "output mode", Value: s, Err: ErrUnsupported}
	}
	return mode.Flags(), nil
}

// Extension is the file suffix written for the format.
func (v SaveType) Extension() string {
	switch v {
	case Nexus:
		return ".nxs"
	case NXcanSAS:
		return ".h5"
	case CanSAS:
		return ".xml"
	case NistQxy:
		return ".dat"
	case RKH:
		return ".txt"
	case CSV:
		return ".csv"
	default:
		return ""
	}
}

// Suffix is the short tag used in output names, "1D" or "2D".
func (v ReductionDimensionality) Suffix() string {
	if v == TwoDim {
		return "2D"
	}
	return "1D"
}
