// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// CSVConfig holds settings for the csv-analyze task.
type CSVConfig struct {
	// MaxFileSize is the largest input accepted before parsing (default 10 MB).
	MaxFileSize int `json:"max_file_size" yaml:"max_file_size"`

	// MaxRows caps the number of data rows parsed (default 50000).
	MaxRows int `json:"max_rows" yaml:"max_rows"`

	// Encoding forces a text encoding instead of detecting one.
	Encoding string `json:"encoding,omitempty" yaml:"encoding,omitempty"`

	// Delimiter forces a field delimiter instead of sniffing one.
	Delimiter string `json:"delimiter,omitempty" yaml:"delimiter,omitempty"`
}

// ImageConfig holds defaults for the image-convert task.
type ImageConfig struct {
	// Format is the default output format (default "jpg").
	Format string `json:"format" yaml:"format"`

	// Quality is the default encoder quality (default 80).
	Quality int `json:"quality" yaml:"quality"`
}

// OCRBackend selects where the OCR tools run.
type OCRBackend string

const (
	OCRAuto      OCRBackend = "auto"
	OCRLocal     OCRBackend = "local"
	OCRContainer OCRBackend = "container"
	OCRDisabled  OCRBackend = "none"
)

// OCRConfig holds settings for the OCR extraction strategy.
type OCRConfig struct {
	// Backend selects local binaries, a container image, or auto detection.
	Backend OCRBackend `json:"backend" yaml:"backend"`

	// Image is the container image that provides pdftoppm and tesseract.
	Image string `json:"image" yaml:"image"`

	// DPI is the rasterization resolution (default 200).
	DPI int `json:"dpi" yaml:"dpi"`

	// Language is the tesseract language pack (default "eng").
	Language string `json:"language" yaml:"language"`

	// EngineMode is the tesseract --oem value (default 3). Nil means unset,
	// so 0 selects the legacy engine.
	EngineMode *int `json:"engine_mode,omitempty" yaml:"engine_mode,omitempty"`

	// PageSegMode is the tesseract --psm value (default 6). Nil means unset.
	PageSegMode *int `json:"page_seg_mode,omitempty" yaml:"page_seg_mode,omitempty"`
}

// PDFConfig holds settings for the pdf-extract task.
type PDFConfig struct {
	// Timeout bounds a single extraction run; zero means no limit.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	OCR OCRConfig `json:"ocr" yaml:"ocr"`
}

// LedgerConfig holds settings for the task ledger.
type LedgerConfig struct {
	// Path is the SQLite database file. Empty disables the ledger.
	Path string `json:"path" yaml:"path"`
}

// Config groups all task configurations.
type Config struct {
	CSV    CSVConfig    `json:"csv" yaml:"csv"`
	Image  ImageConfig  `json:"image" yaml:"image"`
	PDF    PDFConfig    `json:"pdf" yaml:"pdf"`
	Ledger LedgerConfig `json:"ledger" yaml:"ledger"`
}

// DefaultOCRConfig returns the OCR settings used when none are configured.
func DefaultOCRConfig() OCRConfig {
	oem, psm := 3, 6
	return OCRConfig{
		Backend:     OCRAuto,
		Image:       "docklet/ocr:latest",
		DPI:         200,
		Language:    "eng",
		EngineMode:  &oem,
		PageSegMode: &psm,
	}
}
