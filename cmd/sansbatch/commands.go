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
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	configPath       string
	logLevel         string
	workspacesPath   string
	outputMode       string
	noOptimizations  bool
	jsonOutput       bool
	listenAddress    string
	watchDebounceArg string

	rootCmd = &cobra.Command{
		Use:   "sansbatch",
		Short: "Run SANS batch reductions",
		Long: `sansbatch validates and runs batches of SANS reduction states.
Each batch is a YAML mapping from entry key to state tree, executed
sequentially in document order.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// --- Batch ---
	runCmd = &cobra.Command{
		Use:   "run [batch.yaml]",
		Short: "Validate and run every entry of a batch file",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch, // Defined in cmd_run.go
	}
	validateCmd = &cobra.Command{
		Use:   "validate [batch.yaml]",
		Short: "Check every entry of a batch file without running it",
		Args:  cobra.ExactArgs(1),
		RunE:  runValidate, // Defined in cmd_run.go
	}
	watchCmd = &cobra.Command{
		Use:   "watch [batch.yaml]",
		Short: "Revalidate a batch file whenever it changes",
		Args:  cobra.ExactArgs(1),
		RunE:  runWatch, // Defined in cmd_watch.go
	}

	// --- Service ---
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the batch API over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServe, // Defined in cmd_serve.go
	}

	// --- Store ---
	inspectCmd = &cobra.Command{
		Use:   "inspect",
		Short: "List stored workspaces and saved files",
		Args:  cobra.NoArgs,
		RunE:  runInspect, // Defined in cmd_inspect.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Config file (default ~/.sans/sansbatch.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override logging.level (debug, info, warn, error)")

	for _, c := range []*cobra.Command{runCmd, validateCmd, watchCmd} {
		c.Flags().StringVar(&outputMode, "output-mode", "",
			"PublishToADS, SaveToFile or Both (default from config)")
	}

	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&workspacesPath, "workspaces", "w", "",
		"JSON file of workspace records to load into the store before running")
	runCmd.Flags().BoolVar(&noOptimizations, "no-optimizations", false,
		"Disable sliced-workspace caching")
	runCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the run summary as JSON")

	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print problems as JSON")

	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchDebounceArg, "debounce", "200ms",
		"Quiet period after a change before revalidating")

	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&listenAddress, "addr", "", "Listen address (default server.address)")

	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the listing as JSON")
}
