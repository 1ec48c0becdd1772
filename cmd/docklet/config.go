// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Maman08/Docklet/internal/csvprofile"
	"github.com/Maman08/Docklet/internal/imageconv"
	"github.com/Maman08/Docklet/internal/ledger"
	"github.com/Maman08/Docklet/internal/tasks"
	"github.com/Maman08/Docklet/pkg/types"
)

func setDefaults() {
	ocr := types.DefaultOCRConfig()

	viper.SetDefault("csv.max_file_size", csvprofile.DefaultMaxFileSize)
	viper.SetDefault("csv.max_rows", csvprofile.DefaultMaxRows)
	viper.SetDefault("image.format", imageconv.DefaultFormat)
	viper.SetDefault("image.quality", imageconv.DefaultQuality)
	viper.SetDefault("pdf.timeout", 0)
	viper.SetDefault("pdf.ocr.backend", string(ocr.Backend))
	viper.SetDefault("pdf.ocr.image", ocr.Image)
	viper.SetDefault("pdf.ocr.dpi", ocr.DPI)
	viper.SetDefault("pdf.ocr.language", ocr.Language)
}

// loadConfig assembles the typed configuration from flags, environment and
// the config file, in that order of precedence.
func loadConfig() types.Config {
	return types.Config{
		CSV: types.CSVConfig{
			MaxFileSize: viper.GetInt("csv.max_file_size"),
			MaxRows:     viper.GetInt("csv.max_rows"),
			Encoding:    viper.GetString("csv.encoding"),
			Delimiter:   viper.GetString("csv.delimiter"),
		},
		Image: types.ImageConfig{
			Format:  viper.GetString("image.format"),
			Quality: viper.GetInt("image.quality"),
		},
		PDF: types.PDFConfig{
			Timeout: viper.GetDuration("pdf.timeout"),
			OCR: types.OCRConfig{
				Backend:     types.OCRBackend(viper.GetString("pdf.ocr.backend")),
				Image:       viper.GetString("pdf.ocr.image"),
				DPI:         viper.GetInt("pdf.ocr.dpi"),
				Language:    viper.GetString("pdf.ocr.language"),
				EngineMode:  optionalInt("pdf.ocr.engine_mode"),
				PageSegMode: optionalInt("pdf.ocr.page_seg_mode"),
			},
		},
		Ledger: types.LedgerConfig{
			Path: viper.GetString("ledger.path"),
		},
	}
}

// optionalInt returns nil when key is unset so zero stays a usable value.
func optionalInt(key string) *int {
	if !viper.IsSet(key) {
		return nil
	}
	n := viper.GetInt(key)
	return &n
}

// setIntParams copies the raw value of each key into params so the runner
// rejects non-numeric input. Unset and zero values are skipped.
func setIntParams(params map[string]string, keys ...string) {
	for _, key := range keys {
		if v := strings.TrimSpace(viper.GetString(key)); v != "" && v != "0" {
			params[key] = v
		}
	}
}

// bindFlags binds each flag of cmd to its config key. Binding happens when
// the command runs so subcommands can share keys such as input_file.
func bindFlags(cmd *cobra.Command, keys map[string]string) error {
	for flag, key := range keys {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("binding --%s: %w", flag, err)
		}
	}
	return nil
}

// newRunner opens the ledger when one is configured and returns a runner
// logging to log. The returned close func is always safe to call.
func newRunner(cfg types.Config, log io.Writer) (*tasks.Runner, func(), error) {
	if cfg.Ledger.Path == "" {
		return tasks.NewRunner(cfg, nil, log), func() {}, nil
	}
	store, err := ledger.Open(cfg.Ledger.Path)
	if err != nil {
		return nil, nil, err
	}
	return tasks.NewRunner(cfg, store, log), func() { store.Close() }, nil
}
