// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package output

import (
	"context"
	"fmt"

	"github.com/AleutianAI/sansreduction/pkg/logging"
	"github.com/AleutianAI/sansreduction/services/reduction/enums"
	"github.com/AleutianAI/sansreduction/services/reduction/state"
)

// Router sends a reduction result to the sink of every requested flag.
type Router struct {
	sinks  map[enums.OutputFlag]Sink
	logger *logging.Logger
}

// NewRouter routes PublishToADS to publish and SaveToFile to save. Either
// may be nil when that flag is never requested.
func NewRouter(publish, save Sink, logger *logging.Logger) *Router {
	if logger == nil {
		logger = logging.Discard()
	}
	r := &Router{sinks: make(map[enums.OutputFlag]Sink, 2), logger: logger}
	if publish != nil {
		r.sinks[enums.PublishToADS] = publish
	}
	if save != nil {
		r.sinks[enums.SaveToFile] = save
	}
	return r
}

// Route registers every output of res with every flag's sink, flags first
// then banks in LAB, HAB, Merged order. It stops at the first failure and
// returns the records registered so far.
func (r *Router) Route(ctx context.Context, st *state.State, res *Result, flags []enums.OutputFlag) ([]Record, error) {
	var records []Record
	for _, flag := range flags {
		sink, ok := r.sinks[flag]
		if !ok {
			recordFailure(ctx, flag)
			return records, fmt.Errorf("%w: %s", ErrNoSink, flag)
		}
		for _, bank := range res.Banks() {
			got, err := sink.Register(ctx, st, bank, res.Get(bank))
			records = append(records, got...)
			recordRegistered(ctx, flag, bank, len(got))
			if err != nil {
				recordFailure(ctx, flag)
				return records, err
			}
			for _, rec := range got {
				r.logger.Debug("registered output", "bank", bank.String(), "flag", flag.String(), "target", rec.Target)
			}
		}
	}
	return records, nil
}
