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
	"fmt"

	"github.com/AleutianAI/sansreduction/pkg/logging"
	"github.com/AleutianAI/sansreduction/services/reduction/batch"
	"github.com/AleutianAI/sansreduction/services/reduction/config"
	"github.com/AleutianAI/sansreduction/services/reduction/ipf"
	"github.com/AleutianAI/sansreduction/services/reduction/output"
	"github.com/AleutianAI/sansreduction/services/reduction/single"
	"github.com/AleutianAI/sansreduction/services/reduction/slicer"
	"github.com/AleutianAI/sansreduction/services/reduction/state"
	"github.com/AleutianAI/sansreduction/services/reduction/storage/badger"
	"github.com/AleutianAI/sansreduction/services/reduction/workspace"
)

// Exit codes.
const (
	exitFailure = 1
	// exitInvalid means the batch was rejected before anything ran.
	exitInvalid = 2
	// exitAborted means an entry failed part way through the batch.
	exitAborted = 3
)

func exitCode(err error) int {
	var entryErr *batch.EntryError
	switch {
	case errors.Is(err, batch.ErrBatchValidation), errors.Is(err, batch.ErrEmptyBatch):
		return exitInvalid
	case errors.As(err, &entryErr):
		return exitAborted
	default:
		return exitFailure
	}
}

// app holds everything one command invocation needs.
type app struct {
	cfg     config.Config
	logger  *logging.Logger
	db      *badger.DB
	store   workspace.Store
	archive *output.ArchiveSaver
	slots   *output.SlotSink
	orch    *batch.Orchestrator
}

// loadConfig reads the config file named by --config and applies the
// command-line overrides.
func loadConfig() (config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if outputMode != "" {
		cfg.Batch.OutputMode = outputMode
	}
	if listenAddress != "" {
		cfg.Server.Address = listenAddress
	}
	return cfg, cfg.Validate()
}

func newLogger(cfg config.LoggingConfig) (*logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	return logging.New(logging.Config{
		Level:   level,
		LogDir:  cfg.Dir,
		Service: "sansbatch",
		JSON:    cfg.JSON,
		Quiet:   cfg.Quiet,
	}), nil
}

// newApp opens the store and wires the reduction pipeline.
//
// Description:
//
//	An empty store path keeps workspaces in memory and saved files in an
//	in-memory database. Otherwise both live in the BadgerDB at that path.
//	With batch.slots set, published outputs go to declared slots instead
//	of the store.
//
// Outputs:
//
//	*app - Call Close() when done.
//	error - Non-nil if the database cannot be opened.
func newApp(cfg config.Config, logger *logging.Logger) (*app, error) {
	dbCfg := badger.InMemoryConfig()
	if cfg.Store.Path != "" {
		dbCfg = badger.DefaultConfig(cfg.Store.Path)
		dbCfg.SyncWrites = cfg.Store.SyncWrites
		dbCfg.GCInterval = cfg.Store.GCInterval
	}
	dbCfg.Logger = logger
	db, err := badger.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	a := &app{cfg: cfg, logger: logger, db: db, archive: output.NewArchiveSaver(db)}
	if cfg.Store.Path != "" {
		a.store = workspace.NewBadgerStore(db)
	} else {
		a.store = workspace.NewMemoryStore()
	}

	var publish output.Sink = output.NewStoreSink(a.store)
	if cfg.Batch.Slots {
		a.slots = output.NewSlotSink()
		publish = a.slots
	}
	router := output.NewRouter(publish, output.NewFileSink(a.archive), logger)

	reducer := single.New(a.store, router,
		single.WithSlicerFactory(slicer.NewFactory(slicer.WithLogger(logger))),
		single.WithLogger(logger),
	)
	a.orch = batch.New(reducer,
		batch.WithDeserializer(&state.Decoder{
			IPF:    ipf.Resolver{Dir: cfg.Instruments.IPFDir},
			Logger: logger,
		}),
		batch.WithLogger(logger),
	)
	return a, nil
}

// setup loads config, builds the logger and opens the app.
func setup() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}
	a, err := newApp(cfg, logger)
	if err != nil {
		_ = logger.Close()
		return nil, err
	}
	return a, nil
}

// importWorkspaces loads a records file into the store. Existing
// workspaces with the same name are replaced.
func (a *app) importWorkspaces(ctx context.Context, path string) (int, error) {
	wss, err := workspace.ReadRecordsFile(path)
	if err != nil {
		return 0, err
	}
	for _, ws := range wss {
		if err := a.store.AddOrReplace(ctx, ws.Name(), ws); err != nil {
			return 0, fmt.Errorf("import %s: %w", ws.Name(), err)
		}
	}
	a.logger.Info("workspaces imported", "path", path, "count", len(wss))
	return len(wss), nil
}

func (a *app) Close() error {
	return errors.Join(a.db.Close(), a.logger.Close())
}
