// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Maman08/Docklet/internal/csvprofile"
	"github.com/Maman08/Docklet/pkg/types"
)

var csvCmd = &cobra.Command{
	Use:     "csv-analyze [file]",
	Aliases: []string{"csv"},
	Short:   "Profile CSV or XLSX data and print a JSON report",
	Long: `Csv-analyze reads tabular data from the file argument or stdin and prints a JSON
profile: shape, dtypes, null counts, numeric and string summaries, quality
ratios, insights, and a sample of the first rows.

Stdin may also carry a JSON envelope {"csv_data": "<base64>", "options":
{"encoding": "...", "delimiter": "..."}}. The exit status is 0 even when the
analysis fails; check the success field.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCSV,
}

func init() {
	csvCmd.Flags().String("encoding", "", "force a text encoding instead of detecting one")
	csvCmd.Flags().String("delimiter", "", "force a field delimiter instead of sniffing one")
	csvCmd.Flags().String("report", "", "also write a per-column CSV report to this path")

	rootCmd.AddCommand(csvCmd)
}

func runCSV(cmd *cobra.Command, args []string) error {
	if err := bindFlags(cmd, map[string]string{
		"encoding":  "csv.encoding",
		"delimiter": "csv.delimiter",
	}); err != nil {
		return err
	}
	cfg := loadConfig()
	stdout := cmd.OutOrStdout()

	input := "-"
	var (
		raw []byte
		err error
	)
	if len(args) == 1 {
		input = args[0]
		raw, err = os.ReadFile(input)
	} else {
		raw, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	if len(raw) == 0 {
		fmt.Fprintln(stdout, `{"error": "No input provided"}`)
		return nil
	}

	runner, closeLedger, err := newRunner(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeLedger()

	reportPath, _ := cmd.Flags().GetString("report")
	params := map[string]string{}
	if cfg.CSV.Encoding != "" {
		params["encoding"] = cfg.CSV.Encoding
	}
	if cfg.CSV.Delimiter != "" {
		params["delimiter"] = cfg.CSV.Delimiter
	}

	var writeErr error
	task := types.Task{Type: types.TaskCSVAnalyze, Input: input, Output: "-", Parameters: params}
	_, _ = runner.Track(cmd.Context(), task, func(context.Context) (string, error) {
		res, err := analyzeInput(raw, cfg.CSV)
		body, encErr := res.Encode()
		if encErr != nil {
			writeErr = encErr
			return "", encErr
		}
		if _, writeErr = stdout.Write(body); writeErr != nil {
			return "", writeErr
		}
		if err != nil {
			return "", err
		}
		if reportPath != "" {
			if writeErr = writeReport(reportPath, res); writeErr != nil {
				return "", writeErr
			}
			return reportPath, nil
		}
		return "", nil
	})
	return writeErr
}

// analyzeInput unpacks a stdin payload and profiles it. The error reports
// an unsuccessful analysis; the result always holds the payload to print.
func analyzeInput(raw []byte, cfg types.CSVConfig) (*csvprofile.Result, error) {
	data, opts, err := csvprofile.ParseInput(raw)
	if err != nil {
		res := &csvprofile.Result{Error: "Analysis error: " + err.Error()}
		return res, errors.New(res.Error)
	}
	res := csvprofile.New(cfg).Analyze(data, opts)
	if !res.Success {
		return res, errors.New(res.Error)
	}
	return res, nil
}

func writeReport(path string, res *csvprofile.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	if err := csvprofile.WriteReport(f, res); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
