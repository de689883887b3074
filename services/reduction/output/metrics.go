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
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/AleutianAI/sansreduction/services/reduction/enums"
)

var meter = otel.Meter("sansreduction.output")

var (
	outputsRegistered metric.Int64Counter
	routeFailures     metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics creates the instruments on first use, after the meter
// provider has been installed.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error
		outputsRegistered, err = meter.Int64Counter(
			"sans_outputs_registered_total",
			metric.WithDescription("Reduced workspaces registered with an output sink"),
		)
		if err != nil {
			metricsErr = err
			return
		}
		routeFailures, err = meter.Int64Counter(
			"sans_output_failures_total",
			metric.WithDescription("Output registrations that failed"),
		)
		metricsErr = err
	})
	return metricsErr
}

func recordRegistered(ctx context.Context, flag enums.OutputFlag, bank Bank, n int) {
	if err := initMetrics(); err != nil || n == 0 {
		return
	}
	outputsRegistered.Add(ctx, int64(n), metric.WithAttributes(
		attribute.String("flag", flag.String()),
		attribute.String("bank", bank.String()),
	))
}

func recordFailure(ctx context.Context, flag enums.OutputFlag) {
	if err := initMetrics(); err != nil {
		return
	}
	routeFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("flag", flag.String())))
}
