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

	"github.com/AleutianAI/sansreduction/services/reduction/enums"
	"github.com/AleutianAI/sansreduction/services/reduction/state"
	"github.com/AleutianAI/sansreduction/services/reduction/storage/badger"
	"github.com/AleutianAI/sansreduction/services/reduction/workspace"
)

// FilePrefix is the archive key prefix of saved files.
const FilePrefix = "file/"

// Saver writes a workspace in one file format and returns where it went.
type Saver interface {
	Save(ctx context.Context, ws workspace.Workspace, name string, format enums.SaveType) (string, error)
}

// FileSink saves every output once per format listed in the Save leaf.
type FileSink struct {
	saver Saver
}

func NewFileSink(saver Saver) *FileSink {
	return &FileSink{saver: saver}
}

func (s *FileSink) Register(ctx context.Context, st *state.State, bank Bank, ws workspace.Workspace) ([]Record, error) {
	if st.Save == nil || len(st.Save.FileFormats) == 0 {
		return nil, fmt.Errorf("save %s output %s: no file formats configured", bank, ws.Name())
	}
	records := make([]Record, 0, len(st.Save.FileFormats))
	for _, format := range st.Save.FileFormats {
		target, err := s.saver.Save(ctx, ws, ws.Name(), format)
		if err != nil {
			return records, fmt.Errorf("save %s output %s as %s: %w", bank, ws.Name(), format, err)
		}
		records = append(records, Record{Bank: bank, Flag: enums.SaveToFile, Target: target})
	}
	return records, nil
}

// ArchiveSaver keeps saved files in a BadgerDB archive under
// "file/<name><extension>". The payload is the workspace record; format
// conversion happens when files are exported from the archive.
type ArchiveSaver struct {
	db *badger.DB
}

func NewArchiveSaver(db *badger.DB) *ArchiveSaver {
	return &ArchiveSaver{db: db}
}

// ArchivedFile is the value stored for one saved file.
type ArchivedFile struct {
	Format enums.SaveType   `json:"format"`
	Record workspace.Record `json:"record"`
}

func (a *ArchiveSaver) Save(ctx context.Context, ws workspace.Workspace, name string, format enums.SaveType) (string, error) {
	rec, err := workspace.NewRecord(ws)
	if err != nil {
		return "", err
	}
	key := FilePrefix + name + format.Extension()
	if err := a.db.PutJSON(ctx, key, ArchivedFile{Format: format, Record: rec}); err != nil {
		return "", err
	}
	return key, nil
}

// Files lists the archive keys of every saved file.
func (a *ArchiveSaver) Files(ctx context.Context) ([]string, error) {
	return a.db.Keys(ctx, FilePrefix)
}

// Open returns the saved file stored under key.
func (a *ArchiveSaver) Open(ctx context.Context, key string) (*ArchivedFile, error) {
	var f ArchivedFile
	if err := a.db.GetJSON(ctx, key, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

var (
	_ Sink  = (*FileSink)(nil)
	_ Saver = (*ArchiveSaver)(nil)
)
