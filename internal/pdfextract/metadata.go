// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdfextract

import (
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Metadata is the document information dictionary plus the page count.
// Error is set when the document could not be read; NumPages is then 0.
type Metadata struct {
	NumPages         int    `json:"num_pages"`
	Title            string `json:"title,omitempty"`
	Author           string `json:"author,omitempty"`
	Subject          string `json:"subject,omitempty"`
	Creator          string `json:"creator,omitempty"`
	Producer         string `json:"producer,omitempty"`
	CreationDate     string `json:"creation_date,omitempty"`
	ModificationDate string `json:"modification_date,omitempty"`
	Error            string `json:"error,omitempty"`
}

// ReadMetadata reads the page count and info dictionary with pdfcpu. It
// never fails; problems are reported in Metadata.Error.
func ReadMetadata(path string) Metadata {
	ctx, err := readContext(path)
	if err != nil {
		return Metadata{Error: "Metadata extraction failed: " + truncate(err.Error(), 50)}
	}
	return Metadata{
		NumPages:         ctx.XRefTable.PageCount,
		Title:            ctx.XRefTable.Title,
		Author:           ctx.XRefTable.Author,
		Subject:          ctx.XRefTable.Subject,
		Creator:          ctx.XRefTable.Creator,
		Producer:         ctx.XRefTable.Producer,
		CreationDate:     ctx.XRefTable.CreationDate,
		ModificationDate: ctx.XRefTable.ModDate,
	}
}

// readContext parses and validates path with pdfcpu's relaxed defaults.
// pdfcpu panics on some malformed inputs; those become errors.
func readContext(path string) (ctx *model.Context, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	defer func() {
		if r := recover(); r != nil {
			ctx, err = nil, fmt.Errorf("reading %s: %v", path, r)
		}
	}()

	ctx, err = api.ReadValidateAndOptimize(f, model.NewDefaultConfiguration())
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return ctx, nil
}
