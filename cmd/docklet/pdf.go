// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Maman08/Docklet/internal/tasks"
	"github.com/Maman08/Docklet/pkg/types"
)

var pdfCmd = &cobra.Command{
	Use:     "pdf-extract",
	Aliases: []string{"pdf"},
	Short:   "Extract text, tables, and metadata from a PDF",
	Long: `Pdf-extract extracts text from INPUT_FILE and writes OUTPUT_FILE.<ext> as plain
text, markdown, or JSON (OUTPUT_FORMAT). Extraction tries the layout-aware
reader first, then the raw content streams, then OCR through pdftoppm and
tesseract (on the host or in a container). Progress and fallback decisions
are written to stderr.

PAGE_START and PAGE_END select an inclusive 1-based page range;
EXTRACT_TABLES enables table detection in the layout reader.`,
	RunE: runPDF,
}

func init() {
	pdfCmd.Flags().String("input", "", "source PDF (env INPUT_FILE)")
	pdfCmd.Flags().String("output", "", "output path without extension (env OUTPUT_FILE)")
	pdfCmd.Flags().Bool("extract-tables", false, "detect tables on each page (env EXTRACT_TABLES)")
	pdfCmd.Flags().String("output-format", "", "text, markdown, or json (env OUTPUT_FORMAT, default text)")
	pdfCmd.Flags().Int("page-start", 0, "first page to extract (env PAGE_START)")
	pdfCmd.Flags().Int("page-end", 0, "last page to extract (env PAGE_END)")
	pdfCmd.Flags().Duration("timeout", 0, "abort extraction after this long (0 = no limit)")
	pdfCmd.Flags().String("ocr", "", "OCR backend: auto, local, container, or none")

	rootCmd.AddCommand(pdfCmd)
}

// processingError is the fatal-error payload written to stderr.
type processingError struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}

func runPDF(cmd *cobra.Command, args []string) error {
	if err := bindFlags(cmd, map[string]string{
		"input":          "input_file",
		"output":         "output_file",
		"extract-tables": "extract_tables",
		"output-format":  "output_format",
		"page-start":     "page_start",
		"page-end":       "page_end",
		"timeout":        "pdf.timeout",
		"ocr":            "pdf.ocr.backend",
	}); err != nil {
		return err
	}
	cfg := loadConfig()
	stderr := cmd.ErrOrStderr()

	input, output := viper.GetString("input_file"), viper.GetString("output_file")
	if input == "" || output == "" {
		return reportProcessingError(stderr, errors.New("INPUT_FILE and OUTPUT_FILE must be specified"))
	}

	params := map[string]string{
		"extract_tables": strconv.FormatBool(viper.GetBool("extract_tables")),
	}
	if v := viper.GetString("output_format"); v != "" {
		params["output_format"] = v
	}
	setIntParams(params, "page_start", "page_end")

	runner, closeLedger, err := newRunner(cfg, stderr)
	if err != nil {
		return reportProcessingError(stderr, err)
	}
	defer closeLedger()

	_, err = runner.Execute(cmd.Context(), tasks.Entry{
		Type:       types.TaskPDFExtract,
		Input:      input,
		Output:     output,
		Parameters: params,
	})
	if err != nil {
		return reportProcessingError(stderr, err)
	}
	return nil
}

func reportProcessingError(w io.Writer, err error) error {
	ts := viper.GetString("timestamp")
	if ts == "" {
		ts = "unknown"
	}
	data, mErr := json.Marshal(processingError{
		Success:   false,
		Error:     fmt.Sprintf("Processing error: %v", err),
		Timestamp: ts,
	})
	if mErr != nil {
		return err
	}
	fmt.Fprintln(w, string(data))
	return errReported
}
