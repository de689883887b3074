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
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/sansreduction/pkg/ux"
	"github.com/AleutianAI/sansreduction/services/reduction/config"
	"github.com/AleutianAI/sansreduction/services/reduction/handlers"
	"github.com/AleutianAI/sansreduction/services/reduction/routes"
	"github.com/AleutianAI/sansreduction/services/reduction/telemetry"
)

const shutdownTimeout = 10 * time.Second

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, telemetryConfig(a.cfg.Telemetry))
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(sctx); err != nil {
			a.logger.Warn("telemetry shutdown failed", "error", err.Error())
		}
	}()

	srv := a.server()
	p := ux.NewPrinter(cmd.OutOrStdout())
	p.Box("sansbatch", "Listening on "+srv.Addr+"\nPOST /v1/batch/run to run a batch")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("server starting", "address", srv.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("server shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

// server builds the HTTP server for the batch API.
func (a *app) server() *http.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	routes.SetupRoutes(router, routes.Dependencies{
		Orchestrator: a.orch,
		Store:        a.store,
		Defaults: handlers.Defaults{
			UseOptimizations: a.cfg.Batch.UseOptimizations,
			OutputMode:       a.cfg.Batch.OutputMode,
		},
		Logger: a.logger,
	})
	return &http.Server{
		Addr:         a.cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}
}

// telemetryConfig maps the service config onto telemetry settings. With
// telemetry disabled traces are dropped but Prometheus metrics stay on.
func telemetryConfig(c config.TelemetryConfig) telemetry.Config {
	tc := telemetry.DefaultConfig()
	tc.TraceExporter = "none"
	if c.Enabled {
		tc.TraceExporter = c.Exporter
	}
	if c.OTLPEndpoint != "" {
		tc.OTLPEndpoint = c.OTLPEndpoint
	}
	tc.SampleRate = c.SampleRate
	return tc
}
