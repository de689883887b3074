// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/sansreduction/pkg/ux"
	"github.com/AleutianAI/sansreduction/pkg/validation"
	"github.com/AleutianAI/sansreduction/services/reduction/batch"
	"github.com/AleutianAI/sansreduction/services/reduction/enums"
)

func runBatch(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()

	if workspacesPath != "" {
		if _, err := a.importWorkspaces(cmd.Context(), workspacesPath); err != nil {
			return err
		}
	}
	opt := a.cfg.Batch.UseOptimizations && !noOptimizations
	return a.runFile(cmd.Context(), cmd.OutOrStdout(), args[0], opt, jsonOutput)
}

func runValidate(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()
	return a.validateFile(cmd.OutOrStdout(), args[0], jsonOutput)
}

// runFile runs the batch in path and reports every entry.
func (a *app) runFile(ctx context.Context, out io.Writer, path string, useOptimizations, asJSON bool) error {
	entries, err := batch.ReadFile(path)
	if err != nil {
		return err
	}
	summary, runErr := a.orch.Execute(ctx, batch.Request{
		States:           entries,
		UseOptimizations: &useOptimizations,
		OutputMode:       a.cfg.Batch.OutputMode,
	})
	if asJSON && summary != nil {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			return err
		}
		return runErr
	}

	p := ux.NewPrinter(out)
	p.Title("Batch " + path)
	if summary == nil {
		return runErr
	}
	statuses := runStatuses(entries, summary, runErr)
	p.Entries(statuses)
	ok, failed, skipped := tally(statuses)
	p.Counts(ok, failed, skipped)
	for _, slot := range a.slotNames() {
		p.Info("declared " + slot)
	}
	if runErr == nil {
		p.Success(fmt.Sprintf("batch %s complete in %s", summary.BatchID, summary.Duration))
	}
	return runErr
}

// validateFile checks the batch in path without running it.
func (a *app) validateFile(out io.Writer, path string, asJSON bool) error {
	entries, err := batch.ReadFile(path)
	if err != nil {
		return err
	}
	flags, err := enums.GetOutputModes(a.cfg.Batch.OutputMode)
	if err != nil {
		return err
	}
	_, verr := a.orch.ValidateInputs(entries, flags...)
	statuses := validationStatuses(entries, verr)
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(statuses); err != nil {
			return err
		}
		return verr
	}

	p := ux.NewPrinter(out)
	p.Title("Validate " + path)
	p.Entries(statuses)
	ok, failed, skipped := tally(statuses)
	p.Counts(ok, failed, skipped)
	if verr == nil {
		p.Success(fmt.Sprintf("%d entries valid", entries.Len()))
	}
	return verr
}

func (a *app) slotNames() []string {
	if a.slots == nil {
		return nil
	}
	var names []string
	for _, s := range a.slots.Slots() {
		names = append(names, s.Name)
	}
	return names
}

// runStatuses marks completed entries ok, the entry that aborted the run
// failed and everything after it skipped. A rejected batch reports each
// invalid entry with its violations.
func runStatuses(entries *batch.Entries, summary *batch.Summary, err error) []ux.EntryStatus {
	if errors.Is(err, batch.ErrBatchValidation) {
		statuses := validationStatuses(entries, err)
		for i := range statuses {
			if statuses[i].Status == ux.IconSuccess {
				statuses[i].Status = ux.IconPending
				statuses[i].Detail = "not run"
			}
		}
		return statuses
	}

	statuses := make([]ux.EntryStatus, 0, entries.Len())
	done := make(map[string]bool, len(summary.Completed))
	for _, k := range summary.Completed {
		done[k] = true
	}
	for _, k := range entries.Keys() {
		switch {
		case done[k]:
			statuses = append(statuses, ux.EntryStatus{
				Key: k, Status: ux.IconSuccess,
				Detail: summary.EntryDurations[k].String(),
			})
		case k == summary.FailedKey:
			st := ux.EntryStatus{Key: k, Status: ux.IconError}
			var entryErr *batch.EntryError
			if errors.As(err, &entryErr) {
				st.Detail = entryErr.Err.Error()
			}
			statuses = append(statuses, st)
		default:
			statuses = append(statuses, ux.EntryStatus{Key: k, Status: ux.IconPending, Detail: "not run"})
		}
	}
	return statuses
}

func validationStatuses(entries *batch.Entries, err error) []ux.EntryStatus {
	var bve *batch.BatchValidationError
	errors.As(err, &bve)
	statuses := make([]ux.EntryStatus, 0, entries.Len())
	for _, k := range entries.Keys() {
		entryErr, bad := error(nil), false
		if bve != nil {
			entryErr, bad = bve.Errors[k]
		}
		if !bad {
			statuses = append(statuses, ux.EntryStatus{Key: k, Status: ux.IconSuccess, Detail: "valid"})
			continue
		}
		st := ux.EntryStatus{Key: k, Status: ux.IconError, Detail: entryErr.Error()}
		var verr *validation.Error
		if errors.As(entryErr, &verr) {
			st.Detail = fmt.Sprintf("%d violation(s)", len(verr.Violations))
			for _, v := range verr.Violations {
				st.Problems = append(st.Problems, v.Field+": "+v.Message)
			}
		}
		statuses = append(statuses, st)
	}
	return statuses
}

func tally(statuses []ux.EntryStatus) (ok, failed, skipped int) {
	for _, s := range statuses {
		switch s.Status {
		case ux.IconSuccess:
			ok++
		case ux.IconError:
			failed++
		default:
			skipped++
		}
	}
	return ok, failed, skipped
}
