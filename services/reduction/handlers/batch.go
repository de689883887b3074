// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers serves the batch HTTP API.
package handlers

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/sansreduction/pkg/logging"
	"github.com/AleutianAI/sansreduction/pkg/validation"
	"github.com/AleutianAI/sansreduction/services/reduction/batch"
	"github.com/AleutianAI/sansreduction/services/reduction/enums"
	"github.com/AleutianAI/sansreduction/services/reduction/workspace"
)

// Defaults fill request fields the client left out.
type Defaults struct {
	UseOptimizations bool
	OutputMode       string
}

// BatchRequest is the JSON body of the batch endpoints. States is an
// ordered array of {key, state}.
type BatchRequest struct {
	States           *batch.Entries `json:"states" binding:"required"`
	UseOptimizations *bool          `json:"use_optimizations"`
	OutputMode       string         `json:"output_mode"`
}

func (r BatchRequest) resolve(d Defaults) batch.Request {
	req := batch.Request{
		States:           r.States,
		UseOptimizations: r.UseOptimizations,
		OutputMode:       r.OutputMode,
	}
	if req.UseOptimizations == nil {
		v := d.UseOptimizations
		req.UseOptimizations = &v
	}
	if req.OutputMode == "" {
		req.OutputMode = d.OutputMode
	}
	return req
}

// EntryProblem is one rejected batch entry.
type EntryProblem struct {
	Key        string                 `json:"key"`
	Error      string                 `json:"error"`
	Violations []validation.Violation `json:"violations,omitempty"`
}

func problems(err error) []EntryProblem {
	var bve *batch.BatchValidationError
	if !errors.As(err, &bve) {
		return nil
	}
	out := make([]EntryProblem, 0, len(bve.Keys))
	for _, k := range bve.Keys {
		p := EntryProblem{Key: k, Error: bve.Errors[k].Error()}
		var verr *validation.Error
		if errors.As(bve.Errors[k], &verr) {
			p.Violations = verr.Violations
		}
		out = append(out, p)
	}
	return out
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ValidateBatch checks every entry without running anything.
func ValidateBatch(o *batch.Orchestrator, d Defaults) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body BatchRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		flags, err := body.resolve(d).Flags()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if _, err := o.ValidateInputs(body.States, flags...); err != nil {
			status := http.StatusUnprocessableEntity
			if errors.Is(err, batch.ErrEmptyBatch) {
				status = http.StatusBadRequest
			}
			c.JSON(status, gin.H{"valid": false, "error": err.Error(), "entries": problems(err)})
			return
		}
		c.JSON(http.StatusOK, gin.H{"valid": true, "entries": body.States.Len()})
	}
}

// RunBatch runs a batch. Runs are serialised with mu because they share
// the workspace store.
func RunBatch(o *batch.Orchestrator, d Defaults, mu *sync.Mutex, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body BatchRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		mu.Lock()
		summary, err := o.Execute(c.Request.Context(), body.resolve(d))
		mu.Unlock()

		var sel *enums.SelectionError
		var entryErr *batch.EntryError
		switch {
		case err == nil:
			c.JSON(http.StatusOK, summary)
		case errors.As(err, &sel), errors.Is(err, batch.ErrEmptyBatch):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, batch.ErrBatchValidation):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "entries": problems(err), "summary": summary})
		case errors.As(err, &entryErr):
			logger.Error("batch run failed", "entry", entryErr.Key, "error", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "failed_key": entryErr.Key, "summary": summary})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
	}
}

// ImportWorkspaces adds or replaces the posted workspace records.
func ImportWorkspaces(store workspace.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var records []workspace.Record
		if err := c.ShouldBindJSON(&records); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		names := make([]string, 0, len(records))
		for _, rec := range records {
			ws, err := rec.Workspace()
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if err := store.AddOrReplace(c.Request.Context(), ws.Name(), ws); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			names = append(names, ws.Name())
		}
		c.JSON(http.StatusCreated, gin.H{"imported": names})
	}
}

func ListWorkspaces(store workspace.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		names, err := store.Names(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"workspaces": names})
	}
}

func GetWorkspace(store workspace.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := store.Retrieve(c.Request.Context(), c.Param("name"))
		if errors.Is(err, workspace.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		rec, err := workspace.NewRecord(ws)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, rec)
	}
}
