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
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/sansreduction/services/reduction/batch"
	"github.com/AleutianAI/sansreduction/services/reduction/enums"
	"github.com/AleutianAI/sansreduction/services/reduction/handlers"
	"github.com/AleutianAI/sansreduction/services/reduction/output"
	"github.com/AleutianAI/sansreduction/services/reduction/single"
	"github.com/AleutianAI/sansreduction/services/reduction/state/statetest"
	"github.com/AleutianAI/sansreduction/services/reduction/workspace"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setup(t *testing.T) (*gin.Engine, workspace.Store) {
	t.Helper()
	store := workspace.NewMemoryStore()
	reducer := single.New(store, output.NewRouter(output.NewStoreSink(store), nil, nil))
	router := gin.New()
	SetupRoutes(router, Dependencies{
		Orchestrator: batch.New(reducer),
		Store:        store,
		Defaults:     handlers.Defaults{UseOptimizations: true, OutputMode: "PublishToADS"},
	})
	return router, store
}

func do(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func importRun(t *testing.T, router *gin.Engine, name string) {
	t.Helper()
	rec := do(t, router, http.MethodPost, "/v1/workspaces", []workspace.Record{{
		Kind: "Histogram",
		Histogram: &workspace.HistogramWorkspace{
			Header: workspace.Header{WorkspaceName: name, Inst: enums.SANS2D},
			X:      []float64{1, 2, 3},
			Y:      []float64{3, 4},
			E:      []float64{1, 2},
		},
	}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestHealth(t *testing.T) {
	router, _ := setup(t)
	rec := do(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestValidate(t *testing.T) {
	router, _ := setup(t)

	good := batch.NewEntries().MustAdd("one", statetest.Tree("SANS2D00000001"))
	rec := do(t, router, http.MethodPost, "/v1/batch/validate", gin.H{"states": good})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	bad := statetest.Tree("SANS2D00000002")
	delete(bad, "scale")
	entries := batch.NewEntries().
		MustAdd("one", statetest.Tree("SANS2D00000001")).
		MustAdd("two", bad)
	rec = do(t, router, http.MethodPost, "/v1/batch/validate", gin.H{"states": entries})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp struct {
		Valid   bool                    `json:"valid"`
		Entries []handlers.EntryProblem `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Valid)
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, "two", resp.Entries[0].Key)
	assert.Equal(t, "scale", resp.Entries[0].Violations[0].Field)

	rec = do(t, router, http.MethodPost, "/v1/batch/validate", gin.H{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRun(t *testing.T) {
	router, store := setup(t)
	importRun(t, router, "SANS2D00000001")

	entries := batch.NewEntries().MustAdd("one", statetest.Tree("SANS2D00000001"))
	rec := do(t, router, http.MethodPost, "/v1/batch/run", gin.H{"states": entries})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var sum batch.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sum))
	assert.Equal(t, []string{"one"}, sum.Completed)
	require.Len(t, sum.Outputs, 1)
	assert.Equal(t, "22024_LAB_1D_2.0_14.0", sum.Outputs[0].Target)

	names, err := store.Names(t.Context())
	require.NoError(t, err)
	assert.Contains(t, names, "22024_LAB_1D_2.0_14.0")

	rec = do(t, router, http.MethodGet, "/v1/workspaces/22024_LAB_1D_2.0_14.0", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, router, http.MethodGet, "/v1/workspaces/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRun_Failures(t *testing.T) {
	router, _ := setup(t)
	entries := batch.NewEntries().MustAdd("one", statetest.Tree("SANS2D00000001"))

	rec := do(t, router, http.MethodPost, "/v1/batch/run", gin.H{"states": entries, "output_mode": "Carrier"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// the run was never imported
	rec = do(t, router, http.MethodPost, "/v1/batch/run", gin.H{"states": entries})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"failed_key":"one"`)
}

func TestMetricsRoute(t *testing.T) {
	router, _ := setup(t)
	rec := do(t, router, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
