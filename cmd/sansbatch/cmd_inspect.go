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
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/sansreduction/pkg/ux"
)

type listing struct {
	Workspaces []string `json:"workspaces"`
	Files      []string `json:"files"`
}

func runInspect(cmd *cobra.Command, _ []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()
	return a.inspect(cmd.Context(), cmd.OutOrStdout(), jsonOutput)
}

func (a *app) inspect(ctx context.Context, out io.Writer, asJSON bool) error {
	var l listing
	var err error
	if l.Workspaces, err = a.store.Names(ctx); err != nil {
		return fmt.Errorf("list workspaces: %w", err)
	}
	if l.Files, err = a.archive.Files(ctx); err != nil {
		return fmt.Errorf("list files: %w", err)
	}
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(l)
	}

	p := ux.NewPrinter(out)
	p.Title("Store " + a.storeLabel())
	p.Info(fmt.Sprintf("%d workspace(s)", len(l.Workspaces)))
	if len(l.Workspaces) > 0 {
		p.Box("Workspaces", strings.Join(l.Workspaces, "\n"))
	}
	p.Info(fmt.Sprintf("%d saved file(s)", len(l.Files)))
	if len(l.Files) > 0 {
		p.Box("Files", strings.Join(l.Files, "\n"))
	}
	return nil
}

func (a *app) storeLabel() string {
	if a.cfg.Store.Path == "" {
		return "(in memory)"
	}
	return a.cfg.Store.Path
}
