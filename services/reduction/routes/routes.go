// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"sync"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/AleutianAI/sansreduction/pkg/logging"
	"github.com/AleutianAI/sansreduction/services/reduction/batch"
	"github.com/AleutianAI/sansreduction/services/reduction/handlers"
	"github.com/AleutianAI/sansreduction/services/reduction/telemetry"
	"github.com/AleutianAI/sansreduction/services/reduction/workspace"
)

// Dependencies are the services the routes hand requests to.
type Dependencies struct {
	Orchestrator *batch.Orchestrator
	Store        workspace.Store
	Defaults     handlers.Defaults
	Logger       *logging.Logger
}

// SetupRoutes registers the batch API on router.
func SetupRoutes(router *gin.Engine, deps Dependencies) {
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}
	var runMu sync.Mutex

	router.Use(otelgin.Middleware("sansbatch"))
	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(telemetry.MetricsHandler()))

	v1 := router.Group("/v1")
	{
		b := v1.Group("/batch")
		{
			b.POST("/validate", handlers.ValidateBatch(deps.Orchestrator, deps.Defaults))
			b.POST("/run", handlers.RunBatch(deps.Orchestrator, deps.Defaults, &runMu, deps.Logger))
		}
		ws := v1.Group("/workspaces")
		{
			ws.GET("", handlers.ListWorkspaces(deps.Store))
			ws.POST("", handlers.ImportWorkspaces(deps.Store))
			ws.GET("/:name", handlers.GetWorkspace(deps.Store))
		}
	}
}
