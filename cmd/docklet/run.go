// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Maman08/Docklet/internal/tasks"
)

var runCmd = &cobra.Command{
	Use:   "run <manifest.yaml>",
	Short: "Run a YAML batch of tasks",
	Long: `Run executes every task listed in a manifest, one after another:

  tasks:
    - id: sales
      type: csv-analyze
      input: data/sales.csv
      output: outputs/sales
    - id: cover
      type: image-convert
      input: img/cover.png
      output: outputs/cover
      parameters: {format: webp, quality: "70"}

Each task prints a completed or failed line, followed by a batch summary.
Failed tasks do not stop the batch.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	m, err := tasks.LoadManifest(args[0])
	if err != nil {
		return err
	}

	runner, closeLedger, err := newRunner(loadConfig(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeLedger()

	result, err := runner.Run(cmd.Context(), m, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if result.HasFailures() {
		return fmt.Errorf("%d task(s) failed", result.Failed)
	}
	return nil
}
