// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ocr rasterizes PDF pages and recognises their text with poppler's
// pdftoppm and tesseract. The tools run on the host or inside a container
// image, selected by types.OCRConfig.Backend.
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/Maman08/Docklet/internal/container"
	"github.com/Maman08/Docklet/pkg/types"
)

const (
	toolRasterize = "pdftoppm"
	toolRecognize = "tesseract"
)

// ErrDisabled is returned by NewToolchain when the backend is "none".
var ErrDisabled = errors.New("ocr disabled")

// Toolchain runs one of the OCR helper binaries.
type Toolchain interface {
	// Name describes where the tools run ("local", "docker:image", ...).
	Name() string

	// Run executes tool with args, piping stdin and stdout.
	Run(ctx context.Context, tool string, args []string, stdin io.Reader, stdout io.Writer) error
}

type hostToolchain struct {
	exec container.Executor
}

func (h *hostToolchain) Name() string { return "local" }

func (h *hostToolchain) Run(ctx context.Context, tool string, args []string, stdin io.Reader, stdout io.Writer) error {
	return h.exec.RunPiped(ctx, tool, args, stdin, stdout)
}

type containerToolchain struct {
	rt    container.Runtime
	image string
}

func (c *containerToolchain) Name() string { return c.rt.Name() + ":" + c.image }

func (c *containerToolchain) Run(ctx context.Context, tool string, args []string, stdin io.Reader, stdout io.Writer) error {
	full := make([]string, 0, len(args)+1)
	full = append(full, tool)
	full = append(full, args...)
	return c.rt.Run(ctx, c.image, full, stdin, stdout)
}

// NewToolchain picks a toolchain for cfg.Backend. In auto mode host binaries
// win; the container image is the fallback.
func NewToolchain(cfg types.OCRConfig, exec container.Executor) (Toolchain, error) {
	if exec == nil {
		exec = container.DefaultExecutor
	}
	if cfg.Image == "" {
		cfg.Image = types.DefaultOCRConfig().Image
	}

	switch cfg.Backend {
	case types.OCRDisabled:
		return nil, ErrDisabled
	case types.OCRLocal:
		return hostTools(exec)
	case types.OCRContainer:
		return containerTools(exec, cfg.Image)
	case types.OCRAuto, "":
		host, hostErr := hostTools(exec)
		if hostErr == nil {
			return host, nil
		}
		ctr, ctrErr := containerTools(exec, cfg.Image)
		if ctrErr == nil {
			return ctr, nil
		}
		return nil, fmt.Errorf("no ocr toolchain: %v; %v", hostErr, ctrErr)
	default:
		return nil, fmt.Errorf("unknown ocr backend %q: use auto, local, container, or none", cfg.Backend)
	}
}

func hostTools(exec container.Executor) (Toolchain, error) {
	for _, tool := range []string{toolRasterize, toolRecognize} {
		if _, err := exec.LookPath(tool); err != nil {
			return nil, fmt.Errorf("%s not found on PATH: %w", tool, err)
		}
	}
	return &hostToolchain{exec: exec}, nil
}

func containerTools(exec container.Executor, image string) (Toolchain, error) {
	rt, err := container.DetectRuntimeWith(exec)
	if err != nil {
		return nil, err
	}
	if err := rt.ImageExists(image); err != nil {
		return nil, err
	}
	return &containerToolchain{rt: rt, image: image}, nil
}

// Engine renders pages and recognises text through a Toolchain.
type Engine struct {
	tools Toolchain
	cfg   types.OCRConfig
}

// NewEngine creates an Engine, filling unset settings from DefaultOCRConfig.
func NewEngine(tools Toolchain, cfg types.OCRConfig) *Engine {
	def := types.DefaultOCRConfig()
	if cfg.DPI <= 0 {
		cfg.DPI = def.DPI
	}
	if cfg.Language == "" {
		cfg.Language = def.Language
	}
	if cfg.EngineMode == nil {
		cfg.EngineMode = def.EngineMode
	}
	if cfg.PageSegMode == nil {
		cfg.PageSegMode = def.PageSegMode
	}
	return &Engine{tools: tools, cfg: cfg}
}

// Toolchain returns the toolchain the engine runs on.
func (e *Engine) Toolchain() Toolchain { return e.tools }

// RenderPage rasterizes the 1-based page of the PDF document to PNG bytes.
// The document is streamed on stdin so the tools never need host paths.
func (e *Engine) RenderPage(ctx context.Context, document []byte, page int) ([]byte, error) {
	n := strconv.Itoa(page)
	args := []string{
		"-r", strconv.Itoa(e.cfg.DPI),
		"-f", n, "-l", n,
		"-png", "-singlefile",
		"-",
	}
	var out bytes.Buffer
	if err := e.tools.Run(ctx, toolRasterize, args, bytes.NewReader(document), &out); err != nil {
		return nil, fmt.Errorf("rasterizing page %d: %w", page, err)
	}
	if out.Len() == 0 {
		return nil, fmt.Errorf("rasterizing page %d: empty image", page)
	}
	return out.Bytes(), nil
}

// Recognize runs tesseract on a PNG image and returns the recognised text.
func (e *Engine) Recognize(ctx context.Context, image []byte) (string, error) {
	args := []string{
		"stdin", "stdout",
		"-l", e.cfg.Language,
		"--oem", strconv.Itoa(*e.cfg.EngineMode),
		"--psm", strconv.Itoa(*e.cfg.PageSegMode),
	}
	var out bytes.Buffer
	if err := e.tools.Run(ctx, toolRecognize, args, bytes.NewReader(image), &out); err != nil {
		return "", fmt.Errorf("recognizing text: %w", err)
	}
	return out.String(), nil
}
