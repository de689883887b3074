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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// batchRuns counts batch runs.
	// Labels: status (success, invalid, failed)
	batchRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sans",
		Subsystem: "batch",
		Name:      "runs_total",
		Help:      "Total batch runs by outcome",
	}, []string{"status"})

	// batchInvalidEntries counts entries rejected before execution.
	batchInvalidEntries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sans",
		Subsystem: "batch",
		Name:      "invalid_entries_total",
		Help:      "Total batch entries rejected by validation",
	})

	// entryDuration measures single reductions.
	// Labels: status (success, error)
	entryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sans",
		Subsystem: "batch",
		Name:      "entry_duration_seconds",
		Help:      "Duration of one batch entry reduction",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
	}, []string{"status"})

	// batchDuration measures whole runs, validation included.
	batchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "sans",
		Subsystem: "batch",
		Name:      "duration_seconds",
		Help:      "Duration of a whole batch run",
		Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 900, 3600},
	})
)
