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
	"maps"
	"slices"

	"github.com/AleutianAI/sansreduction/pkg/validation"
	"github.com/AleutianAI/sansreduction/services/reduction/enums"
)

// NormalizeToMonitor configures normalisation against the incident monitor.
type NormalizeToMonitor struct {
	WavelengthRange `yaml:",inline"`

	IncidentMonitor             int             `yaml:"incident_monitor" validate:"gt=0"`
	RebinType                   enums.RebinType `yaml:"rebin_type"`
	PromptPeakCorrectionEnabled bool            `yaml:"prompt_peak_correction_enabled"`
	PromptPeakCorrectionMin     *float64        `yaml:"prompt_peak_correction_min,omitempty"`
	PromptPeakCorrectionMax     *float64        `yaml:"prompt_peak_correction_max,omitempty"`

	BackgroundTOFGeneralStart *float64           `yaml:"background_tof_general_start,omitempty"`
	BackgroundTOFGeneralStop  *float64           `yaml:"background_tof_general_stop,omitempty"`
	BackgroundTOFMonitorStart map[string]float64 `yaml:"background_tof_monitor_start,omitempty"`
	BackgroundTOFMonitorStop  map[string]float64 `yaml:"background_tof_monitor_stop,omitempty"`
}

func (n *NormalizeToMonitor) Validate() error {
	r := validation.NewReport("NormalizeToMonitor")
	r.Struct(n)
	n.check(r)
	checkPromptPeak(r, n.PromptPeakCorrectionEnabled, n.PromptPeakCorrectionMin, n.PromptPeakCorrectionMax)
	checkBackgroundTOF(r, n.BackgroundTOFGeneralStart, n.BackgroundTOFGeneralStop,
		n.BackgroundTOFMonitorStart, n.BackgroundTOFMonitorStop)
	return r.Err()
}

func (n *NormalizeToMonitor) Clone() *NormalizeToMonitor {
	if n == nil {
		return nil
	}
	c := *n
	c.WavelengthRange = n.WavelengthRange.clone()
	c.PromptPeakCorrectionMin = cloneFloat(n.PromptPeakCorrectionMin)
	c.PromptPeakCorrectionMax = cloneFloat(n.PromptPeakCorrectionMax)
	c.BackgroundTOFGeneralStart = cloneFloat(n.BackgroundTOFGeneralStart)
	c.BackgroundTOFGeneralStop = cloneFloat(n.BackgroundTOFGeneralStop)
	c.BackgroundTOFMonitorStart = maps.Clone(n.BackgroundTOFMonitorStart)
	c.BackgroundTOFMonitorStop = maps.Clone(n.BackgroundTOFMonitorStop)
	return &c
}

func checkPromptPeak(r *validation.Report, enabled bool, low, high *float64) {
	together(r, []string{"prompt_peak_correction_min", "prompt_peak_correction_max"}, low != nil, high != nil)
	if enabled && (low == nil || high == nil) {
		r.Add("prompt_peak_correction_enabled", "needs prompt_peak_correction_min and prompt_peak_correction_max")
	}
	ordered(r, "prompt_peak_correction_min", "prompt_peak_correction_max", low, high)
}

func checkBackgroundTOF(r *validation.Report, start, stop *float64, monStart, monStop map[string]float64) {
	together(r, []string{"background_tof_general_start", "background_tof_general_stop"}, start != nil, stop != nil)
	ordered(r, "background_tof_general_start", "background_tof_general_stop", start, stop)
	if len(monStart) != len(monStop) {
		r.Add("background_tof_monitor_start", "must name the same monitors as background_tof_monitor_stop")
		return
	}
	for mon, s := range monStart {
		e, ok := monStop[mon]
		if !ok {
			r.Addf("background_tof_monitor_stop", "is missing monitor %s", mon)
			continue
		}
		if !(s < e) {
			r.Addf("background_tof_monitor_start", "monitor %s must start before it stops", mon)
		}
	}
}

// TransmissionFitSettings describes the fit applied to one transmission
// workspace.
type TransmissionFitSettings struct {
	FitType         enums.TransmissionFit `yaml:"fit_type"`
	PolynomialOrder int                   `yaml:"polynomial_order" validate:"gte=0"`
	WavelengthLow   *float64              `yaml:"wavelength_low,omitempty"`
	WavelengthHigh  *float64              `yaml:"wavelength_high,omitempty"`
}

func (f *TransmissionFitSettings) Validate() error {
	r := validation.NewReport("TransmissionFit")
	r.Struct(f)
	if f.FitType == enums.Polynomial && (f.PolynomialOrder < 2 || f.PolynomialOrder > 6) {
		r.Addf("polynomial_order", "must be between 2 and 6 for a polynomial fit, got %d", f.PolynomialOrder)
	}
	together(r, []string{"wavelength_low", "wavelength_high"}, f.WavelengthLow != nil, f.WavelengthHigh != nil)
	ordered(r, "wavelength_low", "wavelength_high", f.WavelengthLow, f.WavelengthHigh)
	return r.Err()
}

func (f *TransmissionFitSettings) Clone() *TransmissionFitSettings {
	if f == nil {
		return nil
	}
	c := *f
	c.WavelengthLow, c.WavelengthHigh = cloneFloat(f.WavelengthLow), cloneFloat(f.WavelengthHigh)
	return &c
}

// CalculateTransmission configures the transmission calculation.
type CalculateTransmission struct {
	WavelengthRange `yaml:",inline"`

	TransmissionRadiusOnDetector *float64 `yaml:"transmission_radius_on_detector,omitempty"`
	TransmissionROIFiles         []string `yaml:"transmission_roi_files,omitempty"`
	TransmissionMaskFiles        []string `yaml:"transmission_mask_files,omitempty"`

	TransmissionMonitor int             `yaml:"transmission_monitor" validate:"gt=0"`
	IncidentMonitor     int             `yaml:"incident_monitor" validate:"gt=0"`
	RebinType           enums.RebinType `yaml:"rebin_type"`

	PromptPeakCorrectionEnabled bool     `yaml:"prompt_peak_correction_enabled"`
	PromptPeakCorrectionMin     *float64 `yaml:"prompt_peak_correction_min,omitempty"`
	PromptPeakCorrectionMax     *float64 `yaml:"prompt_peak_correction_max,omitempty"`

	UseFullWavelengthRange  bool     `yaml:"use_full_wavelength_range"`
	WavelengthFullRangeLow  *float64 `yaml:"wavelength_full_range_low,omitempty"`
	WavelengthFullRangeHigh *float64 `yaml:"wavelength_full_range_high,omitempty"`

	BackgroundTOFGeneralStart *float64           `yaml:"background_tof_general_start,omitempty"`
	BackgroundTOFGeneralStop  *float64           `yaml:"background_tof_general_stop,omitempty"`
	BackgroundTOFMonitorStart map[string]float64 `yaml:"background_tof_monitor_start,omitempty"`
	BackgroundTOFMonitorStop  map[string]float64 `yaml:"background_tof_monitor_stop,omitempty"`

	Fit map[enums.DataType]*TransmissionFitSettings `yaml:"fit,omitempty" validate:"-"`
}

func (c *CalculateTransmission) Validate() error {
	r := validation.NewReport("CalculateTransmission")
	r.Struct(c)
	c.check(r)
	positive(r, "transmission_radius_on_detector", c.TransmissionRadiusOnDetector)
	checkPromptPeak(r, c.PromptPeakCorrectionEnabled, c.PromptPeakCorrectionMin, c.PromptPeakCorrectionMax)
	if c.UseFullWavelengthRange {
		r.Check(c.WavelengthFullRangeLow != nil, "wavelength_full_range_low", "must be set when use_full_wavelength_range is on")
		r.Check(c.WavelengthFullRangeHigh != nil, "wavelength_full_range_high", "must be set when use_full_wavelength_range is on")
	}
	ordered(r, "wavelength_full_range_low", "wavelength_full_range_high", c.WavelengthFullRangeLow, c.WavelengthFullRangeHigh)
	checkBackgroundTOF(r, c.BackgroundTOFGeneralStart, c.BackgroundTOFGeneralStop,
		c.BackgroundTOFMonitorStart, c.BackgroundTOFMonitorStop)
	for dt, fit := range c.Fit {
		if fit == nil {
			r.Add("fit."+dt.String(), "must be set")
			continue
		}
		r.Merge("fit."+dt.String(), fit.Validate())
	}
	return r.Err()
}

func (c *CalculateTransmission) Clone() *CalculateTransmission {
	if c == nil {
		return nil
	}
	cp := *c
	cp.WavelengthRange = c.WavelengthRange.clone()
	cp.TransmissionRadiusOnDetector = cloneFloat(c.TransmissionRadiusOnDetector)
	cp.TransmissionROIFiles = slices.Clone(c.TransmissionROIFiles)
	cp.TransmissionMaskFiles = slices.Clone(c.TransmissionMaskFiles)
	cp.PromptPeakCorrectionMin = cloneFloat(c.PromptPeakCorrectionMin)
	cp.PromptPeakCorrectionMax = cloneFloat(c.PromptPeakCorrectionMax)
	cp.WavelengthFullRangeLow = cloneFloat(c.WavelengthFullRangeLow)
	cp.WavelengthFullRangeHigh = cloneFloat(c.WavelengthFullRangeHigh)
	cp.BackgroundTOFGeneralStart = cloneFloat(c.BackgroundTOFGeneralStart)
	cp.BackgroundTOFGeneralStop = cloneFloat(c.BackgroundTOFGeneralStop)
	cp.BackgroundTOFMonitorStart = maps.Clone(c.BackgroundTOFMonitorStart)
	cp.BackgroundTOFMonitorStop = maps.Clone(c.BackgroundTOFMonitorStop)
	cp.Fit = clonePtrMap(c.Fit, (*TransmissionFitSettings).Clone)
	return &cp
}

// AdjustmentFiles names the flood/efficiency files of one bank.
type AdjustmentFiles struct {
	PixelAdjustmentFile      string `yaml:"pixel_adjustment_file,omitempty"`
	WavelengthAdjustmentFile string `yaml:"wavelength_adjustment_file,omitempty"`
}

// WavelengthAndPixelAdjustment configures the per-bank efficiency corrections.
type WavelengthAndPixelAdjustment struct {
	WavelengthRange `yaml:",inline"`
	AdjustmentFiles map[enums.DetectorType]*AdjustmentFiles `yaml:"adjustment_files,omitempty" validate:"-"`
}

func (w *WavelengthAndPixelAdjustment) Validate() error {
	r := validation.NewReport("WavelengthAndPixelAdjustment")
	w.check(r)
	for det, files := range w.AdjustmentFiles {
		r.Check(files != nil, "adjustment_files."+det.String(), "must be set")
	}
	return r.Err()
}

func (w *WavelengthAndPixelAdjustment) Clone() *WavelengthAndPixelAdjustment {
	if w == nil {
		return nil
	}
	return &WavelengthAndPixelAdjustment{
		WavelengthRange: w.WavelengthRange.clone(),
		AdjustmentFiles: clonePtrMap(w.AdjustmentFiles, func(f *AdjustmentFiles) *AdjustmentFiles {
			if f == nil {
				return nil
			}
			c := *f
			return &c
		}),
	}
}

// Adjustment bundles the corrections applied before conversion to Q.
type Adjustment struct {
	CalculateTransmission        *CalculateTransmission        `yaml:"calculate_transmission" validate:"-"`
	NormalizeToMonitor           *NormalizeToMonitor           `yaml:"normalize_to_monitor" validate:"-"`
	WavelengthAndPixelAdjustment *WavelengthAndPixelAdjustment `yaml:"wavelength_and_pixel_adjustment" validate:"-"`

	WideAngleCorrection bool `yaml:"wide_angle_correction"`
	ShowTransmission    bool `yaml:"show_transmission"`
}

func (a *Adjustment) Validate() error {
	r := validation.NewReport("Adjustment")
	if a.CalculateTransmission == nil {
		r.Add("calculate_transmission", "must be set")
	} else {
		r.Merge("calculate_transmission", a.CalculateTransmission.Validate())
	}
	if a.NormalizeToMonitor == nil {
		r.Add("normalize_to_monitor", "must be set")
	} else {
		r.Merge("normalize_to_monitor", a.NormalizeToMonitor.Validate())
	}
	if a.WavelengthAndPixelAdjustment == nil {
		r.Add("wavelength_and_pixel_adjustment", "must be set")
	} else {
		r.Merge("wavelength_and_pixel_adjustment", a.WavelengthAndPixelAdjustment.Validate())
	}
	return r.Err()
}

func (a *Adjustment) Clone() *Adjustment {
	if a == nil {
		return nil
	}
	return &Adjustment{
		CalculateTransmission:        a.CalculateTransmission.Clone(),
		NormalizeToMonitor:           a.NormalizeToMonitor.Clone(),
		WavelengthAndPixelAdjustment: a.WavelengthAndPixelAdjustment.Clone(),
		WideAngleCorrection:          a.WideAngleCorrection,
		ShowTransmission:             a.ShowTransmission,
	}
}

// AdjustmentBuilder builds an Adjustment leaf. The three sub-states start
// with the instrument's monitor numbers and Lin wavelength steps; their
// wavelength ranges still have to be set.
type AdjustmentBuilder struct {
	state *Adjustment
}

func NewAdjustmentBuilder(data *Data) (*AdjustmentBuilder, error) {
	if _, err := layoutFor(data, "adjustment builder"); err != nil {
		return nil, err
	}
	incident, transmission := 1, 3
	if data.Instrument == enums.LOQ {
		transmission = 2
	}
	a := &Adjustment{
		CalculateTransmission: &CalculateTransmission{
			IncidentMonitor:     incident,
			TransmissionMonitor: transmission,
			RebinType:           enums.Rebin,
		},
		NormalizeToMonitor:           &NormalizeToMonitor{IncidentMonitor: incident, RebinType: enums.Rebin},
		WavelengthAndPixelAdjustment: &WavelengthAndPixelAdjustment{},
	}
	a.CalculateTransmission.WavelengthStepType = enums.Lin
	a.NormalizeToMonitor.WavelengthStepType = enums.Lin
	a.WavelengthAndPixelAdjustment.WavelengthStepType = enums.Lin
	return &AdjustmentBuilder{state: a}, nil
}

// SetWavelengthRange applies the same binning to all three sub-states.
func (b *AdjustmentBuilder) SetWavelengthRange(low, high, step float64, stepType enums.RangeStepType) *AdjustmentBuilder {
	b.state.CalculateTransmission.SetRange(low, high, step, stepType)
	b.state.NormalizeToMonitor.SetRange(low, high, step, stepType)
	b.state.WavelengthAndPixelAdjustment.SetRange(low, high, step, stepType)
	return b
}

func (b *AdjustmentBuilder) SetCalculateTransmission(v *CalculateTransmission) *AdjustmentBuilder {
	b.state.CalculateTransmission = v.Clone()
	return b
}

func (b *AdjustmentBuilder) SetNormalizeToMonitor(v *NormalizeToMonitor) *AdjustmentBuilder {
	b.state.NormalizeToMonitor = v.Clone()
	return b
}

func (b *AdjustmentBuilder) SetWavelengthAndPixelAdjustment(v *WavelengthAndPixelAdjustment) *AdjustmentBuilder {
	b.state.WavelengthAndPixelAdjustment = v.Clone()
	return b
}

func (b *AdjustmentBuilder) SetWideAngleCorrection(v bool) *AdjustmentBuilder {
	b.state.WideAngleCorrection = v
	return b
}

func (b *AdjustmentBuilder) SetShowTransmission(v bool) *AdjustmentBuilder {
	b.state.ShowTransmission = v
	return b
}

func (b *AdjustmentBuilder) Build() (*Adjustment, error) {
	return build(b.state)
}
