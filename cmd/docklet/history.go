// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Maman08/Docklet/internal/ledger"
	"github.com/Maman08/Docklet/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect recorded task runs (list, export)",
	Long: `History reads the task ledger written by runs made with --ledger (or
ledger.path in docklet.yaml). Without a configured path it reads ` + ledger.DefaultPath + `.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent task runs, newest first",
	RunE:  runHistoryList,
}

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export recorded task runs to YAML or JSON",
	RunE:  runHistoryExport,
}

func openHistory() (*ledger.Store, error) {
	path := loadConfig().Ledger.Path
	if path == "" {
		path = ledger.DefaultPath
	}
	return ledger.Open(path)
}

func listOptsFromFlags(cmd *cobra.Command) (ledger.ListOptions, error) {
	typ, _ := cmd.Flags().GetString("type")
	status, _ := cmd.Flags().GetString("status")
	limit, _ := cmd.Flags().GetInt("limit")

	opts := ledger.ListOptions{
		Type:   types.TaskType(typ),
		Status: types.TaskStatus(status),
		Limit:  limit,
	}
	if opts.Type != "" && !opts.Type.Valid() {
		return opts, fmt.Errorf("unknown task type %q: use csv-analyze, image-convert, or pdf-extract", typ)
	}
	return opts, nil
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	opts, err := listOptsFromFlags(cmd)
	if err != nil {
		return err
	}
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	list, err := store.List(cmd.Context(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatHistory(cmd.OutOrStdout(), list, jsonOutput)
}

func formatHistory(w io.Writer, list []types.Task, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	}

	if len(list) == 0 {
		fmt.Fprintln(w, "No tasks recorded.")
		return nil
	}

	fmt.Fprintf(w, "%-36s  %-13s  %-10s  %-20s  %-30s  %s\n",
		"ID", "Type", "Status", "Created", "Input", "Time")
	fmt.Fprintln(w, strings.Repeat("-", 125))
	for _, t := range list {
		input := t.Input
		if len(input) > 30 {
			input = "..." + input[len(input)-27:]
		}
		fmt.Fprintf(w, "%-36s  %-13s  %-10s  %-20s  %-30s  %.2fs\n",
			t.ID, t.Type, t.Status, t.CreatedAt.Format("2006-01-02 15:04:05"),
			input, t.ProcessingTime.Seconds())
	}
	fmt.Fprintf(w, "\n%d tasks\n", len(list))
	return nil
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	outPath, _ := cmd.Flags().GetString("output")
	opts, err := listOptsFromFlags(cmd)
	if err != nil {
		return err
	}
	if format != "yaml" && format != "json" {
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}

	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	w := cmd.OutOrStdout()
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating %s: %w", outPath, err)
		}
		defer f.Close()
		w = f
	}

	if format == "json" {
		err = store.ExportJSON(cmd.Context(), w, opts)
	} else {
		err = store.ExportYAML(cmd.Context(), w, opts)
	}
	if err != nil {
		return err
	}
	if outPath != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported to %s\n", outPath)
	}
	return nil
}

func init() {
	for _, c := range []*cobra.Command{historyListCmd, historyExportCmd} {
		c.Flags().String("type", "", "filter by task type: csv-analyze, image-convert, pdf-extract")
		c.Flags().String("status", "", "filter by status: processing, completed, failed")
	}
	historyListCmd.Flags().Int("limit", 0, "maximum rows (0 = 50)")
	historyListCmd.Flags().Bool("json", false, "output rows as JSON")

	historyExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	historyExportCmd.Flags().String("output", "", "write to this file instead of stdout")
	historyExportCmd.Flags().Int("limit", 0, "maximum rows (0 = all)")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyExportCmd)

	rootCmd.AddCommand(historyCmd)
}
