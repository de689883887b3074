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
	"errors"
	"fmt"
	"strings"
)

// ErrBatchValidation is matched by every *BatchValidationError.
var ErrBatchValidation = errors.New("batch validation failed")

// BatchValidationError collects the decode and validation failures of
// every malformed entry. Keys keeps batch order.
type BatchValidationError struct {
	Keys   []string
	Errors map[string]error
	// Total is the number of entries in the batch.
	Total int
}

func (e *BatchValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "batch validation failed for %d of %d entries", len(e.Keys), e.Total)
	for _, k := range e.Keys {
		fmt.Fprintf(&b, "\n  %s: %v", k, e.Errors[k])
	}
	return b.String()
}

func (e *BatchValidationError) Is(target error) bool {
	return target == ErrBatchValidation
}

// Unwrap exposes the per-entry errors in batch order.
func (e *BatchValidationError) Unwrap() []error {
	errs := make([]error, 0, len(e.Keys))
	for _, k := range e.Keys {
		errs = append(errs, e.Errors[k])
	}
	return errs
}

func (e *BatchValidationError) add(key string, err error) {
	if e.Errors == nil {
		e.Errors = make(map[string]error)
	}
	e.Keys = append(e.Keys, key)
	e.Errors[key] = err
}

// EntryError wraps the failure that aborted a batch run.
type EntryError struct {
	Key   string
	Index int
	Err   error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("batch entry %d (%s): %v", e.Index+1, e.Key, e.Err)
}

func (e *EntryError) Unwrap() error { return e.Err }
