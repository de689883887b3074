// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/sansreduction/pkg/logging"
	"github.com/AleutianAI/sansreduction/services/reduction/batch"
	"github.com/AleutianAI/sansreduction/services/reduction/enums"
	"github.com/AleutianAI/sansreduction/services/reduction/output"
	"github.com/AleutianAI/sansreduction/services/reduction/single"
	"github.com/AleutianAI/sansreduction/services/reduction/state/statetest"
	"github.com/AleutianAI/sansreduction/services/reduction/workspace"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const runName = "SANS2D00000001"

// brokenStore fails every listing.
type brokenStore struct {
	workspace.Store
}

func (brokenStore) Names(context.Context) ([]string, error) {
	return nil, errors.New("disk on fire")
}

func newEngine(t *testing.T, store workspace.Store) *gin.Engine {
	t.Helper()
	reducer := single.New(store, output.NewRouter(output.NewStoreSink(store), nil, nil))
	orch := batch.New(reducer)
	d := Defaults{UseOptimizations: true, OutputMode: "PublishToADS"}

	r := gin.New()
	r.POST("/validate", ValidateBatch(orch, d))
	r.POST("/run", RunBatch(orch, d, &sync.Mutex{}, logging.Discard()))
	r.POST("/workspaces", ImportWorkspaces(store))
	r.GET("/workspaces", ListWorkspaces(store))
	r.GET("/workspaces/:name", GetWorkspace(store))
	return r
}

func serve(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func histogramRecord(name string) workspace.Record {
	return workspace.Record{
		Kind: "Histogram",
		Histogram: &workspace.HistogramWorkspace{
			Header: workspace.Header{WorkspaceName: name, Inst: enums.SANS2D},
			X:      []float64{1, 2, 3},
			Y:      []float64{3, 4},
			E:      []float64{1, 2},
		},
	}
}

func goodEntries() *batch.Entries {
	return batch.NewEntries().MustAdd("one", statetest.Tree(runName))
}

func badEntries() *batch.Entries {
	bad := statetest.Tree("SANS2D00000002")
	delete(bad, "scale")
	return batch.NewEntries().MustAdd("one", statetest.Tree(runName)).MustAdd("two", bad)
}

func TestValidateBatch(t *testing.T) {
	tests := []struct {
		name     string
		body     any
		status   int
		contains string
	}{
		{"valid", gin.H{"states": goodEntries()}, http.StatusOK, `"valid":true`},
		{"malformed json", `{"states": [`, http.StatusBadRequest, `"error"`},
		{"missing states", gin.H{}, http.StatusBadRequest, `"error"`},
		{"unknown output mode", gin.H{"states": goodEntries(), "output_mode": "Carrier"}, http.StatusBadRequest, "Carrier"},
		{"empty batch", gin.H{"states": []any{}}, http.StatusBadRequest, `"valid":false`},
		{"invalid entry", gin.H{"states": badEntries()}, http.StatusUnprocessableEntity, `"key":"two"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newEngine(t, workspace.NewMemoryStore())
			rec := serve(t, r, http.MethodPost, "/validate", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), tt.contains)
		})
	}
}

func TestRunBatch(t *testing.T) {
	tests := []struct {
		name     string
		imported bool
		body     any
		status   int
		contains string
	}{
		{"completed", true, gin.H{"states": goodEntries()}, http.StatusOK, `"completed":["one"]`},
		{"malformed json", true, `not json`, http.StatusBadRequest, `"error"`},
		{"missing states", true, gin.H{}, http.StatusBadRequest, `"error"`},
		{"unknown output mode", true, gin.H{"states": goodEntries(), "output_mode": "Carrier"}, http.StatusBadRequest, "Carrier"},
		{"empty batch", true, gin.H{"states": []any{}}, http.StatusBadRequest, "no entries"},
		{"invalid entry", true, gin.H{"states": badEntries()}, http.StatusUnprocessableEntity, `"key":"two"`},
		{"missing run", false, gin.H{"states": goodEntries()}, http.StatusInternalServerError, `"failed_key":"one"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := workspace.NewMemoryStore()
			r := newEngine(t, store)
			if tt.imported {
				rec := serve(t, r, http.MethodPost, "/workspaces", []workspace.Record{histogramRecord(runName)})
				require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
			}
			rec := serve(t, r, http.MethodPost, "/run", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), tt.contains)
		})
	}
}

func TestWorkspaceEndpoints(t *testing.T) {
	store := workspace.NewMemoryStore()
	r := newEngine(t, store)

	rec := serve(t, r, http.MethodPost, "/workspaces", []workspace.Record{histogramRecord(runName)})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"imported":["`+runName+`"]}`, rec.Body.String())

	rec = serve(t, r, http.MethodPost, "/workspaces", []workspace.Record{{Kind: "Table"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = serve(t, r, http.MethodPost, "/workspaces", `{"kind":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, r, http.MethodGet, "/workspaces", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"workspaces":["`+runName+`"]}`, rec.Body.String())

	rec = serve(t, r, http.MethodGet, "/workspaces/"+runName, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got workspace.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Histogram", got.Kind)

	rec = serve(t, r, http.MethodGet, "/workspaces/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListWorkspaces_StoreFailure(t *testing.T) {
	r := newEngine(t, brokenStore{workspace.NewMemoryStore()})
	rec := serve(t, r, http.MethodGet, "/workspaces", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "disk on fire")
}
