// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ocr

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Maman08/Docklet/pkg/types"
)

// fakeExecutor answers LookPath/RunSilent from maps and records piped runs.
type fakeExecutor struct {
	onPath   map[string]bool
	runnable map[string]bool
	piped    []string
}

func (f *fakeExecutor) LookPath(file string) (string, error) {
	if f.onPath[file] {
		return "/usr/bin/" + file, nil
	}
	return "", errors.New("not found: " + file)
}

func (f *fakeExecutor) RunSilent(name string, args ...string) error {
	key := name + " " + strings.Join(args, " ")
	if f.runnable[key] {
		return nil
	}
	return errors.New("command failed: " + key)
}

func (f *fakeExecutor) RunPiped(_ context.Context, name string, args []string, _ io.Reader, stdout io.Writer) error {
	f.piped = append(f.piped, name+" "+strings.Join(args, " "))
	_, err := stdout.Write([]byte("ok"))
	return err
}

func TestNewToolchain(t *testing.T) {
	image := "docklet/ocr:latest"
	tests := []struct {
		name     string
		backend  types.OCRBackend
		exec     *fakeExecutor
		wantName string
		wantErr  string
	}{
		{
			name:    "auto prefers host tools",
			backend: types.OCRAuto,
			exec: &fakeExecutor{
				onPath: map[string]bool{"pdftoppm": true, "tesseract": true, "docker": true},
			},
			wantName: "local",
		},
		{
			name:    "auto falls back to container",
			backend: types.OCRAuto,
			exec: &fakeExecutor{
				onPath:   map[string]bool{"pdftoppm": true, "docker": true},
				runnable: map[string]bool{"docker info": true, "docker image inspect " + image: true},
			},
			wantName: "docker:" + image,
		},
		{
			name:    "container image missing",
			backend: types.OCRContainer,
			exec: &fakeExecutor{
				onPath:   map[string]bool{"podman": true},
				runnable: map[string]bool{"podman info": true},
			},
			wantErr: "not found in podman",
		},
		{
			name:    "local without tesseract",
			backend: types.OCRLocal,
			exec:    &fakeExecutor{onPath: map[string]bool{"pdftoppm": true}},
			wantErr: "tesseract not found",
		},
		{
			name:    "auto with nothing available",
			backend: types.OCRAuto,
			exec:    &fakeExecutor{},
			wantErr: "no ocr toolchain",
		},
		{
			name:    "disabled",
			backend: types.OCRDisabled,
			exec:    &fakeExecutor{},
			wantErr: "ocr disabled",
		},
		{
			name:    "unknown backend",
			backend: "gpu",
			exec:    &fakeExecutor{},
			wantErr: "unknown ocr backend",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := types.OCRConfig{Backend: tt.backend, Image: image}
			tc, err := NewToolchain(cfg, tt.exec)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, tc.Name())
		})
	}
}

func TestNewToolchainDisabledSentinel(t *testing.T) {
	_, err := NewToolchain(types.OCRConfig{Backend: types.OCRDisabled}, &fakeExecutor{})
	assert.True(t, errors.Is(err, ErrDisabled))
}

// scriptedTools is a Toolchain returning canned output per tool.
type scriptedTools struct {
	out   map[string]string
	err   map[string]error
	calls []string
}

func (s *scriptedTools) Name() string { return "scripted" }

func (s *scriptedTools) Run(_ context.Context, tool string, args []string, stdin io.Reader, stdout io.Writer) error {
	s.calls = append(s.calls, tool+" "+strings.Join(args, " "))
	if err := s.err[tool]; err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, stdin)
	_, err := stdout.Write([]byte(s.out[tool]))
	return err
}

func TestEngineRenderPage(t *testing.T) {
	tools := &scriptedTools{out: map[string]string{"pdftoppm": "\x89PNG..."}}
	eng := NewEngine(tools, types.OCRConfig{})

	img, err := eng.RenderPage(context.Background(), []byte("%PDF-1.4"), 3)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG..."), img)
	require.Len(t, tools.calls, 1)
	assert.Equal(t, "pdftoppm -r 200 -f 3 -l 3 -png -singlefile -", tools.calls[0])
}

func TestEngineRenderPageEmptyOutput(t *testing.T) {
	eng := NewEngine(&scriptedTools{}, types.OCRConfig{})
	_, err := eng.RenderPage(context.Background(), []byte("%PDF-1.4"), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty image")
}

func TestEngineRecognize(t *testing.T) {
	tools := &scriptedTools{out: map[string]string{"tesseract": "Scanned invoice\n"}}
	eng := NewEngine(tools, types.OCRConfig{Language: "deu", PageSegMode: intPtr(4)})

	text, err := eng.Recognize(context.Background(), []byte("png"))
	require.NoError(t, err)
	assert.Equal(t, "Scanned invoice\n", text)
	assert.Equal(t, "tesseract stdin stdout -l deu --oem 3 --psm 4", tools.calls[0])
}

func TestEngineRecognizeKeepsZeroModes(t *testing.T) {
	tools := &scriptedTools{out: map[string]string{"tesseract": "x"}}
	eng := NewEngine(tools, types.OCRConfig{EngineMode: intPtr(0), PageSegMode: intPtr(0)})

	_, err := eng.Recognize(context.Background(), []byte("png"))
	require.NoError(t, err)
	assert.Equal(t, "tesseract stdin stdout -l eng --oem 0 --psm 0", tools.calls[0])
}

func intPtr(n int) *int { return &n }

func TestEngineRecognizeError(t *testing.T) {
	tools := &scriptedTools{err: map[string]error{"tesseract": errors.New("exit status 1")}}
	eng := NewEngine(tools, types.OCRConfig{})
	_, err := eng.Recognize(context.Background(), []byte("png"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recognizing text")
}

func TestContainerToolchainPrefixesTool(t *testing.T) {
	exec := &fakeExecutor{
		onPath:   map[string]bool{"docker": true},
		runnable: map[string]bool{"docker info": true, "docker image inspect img:1": true},
	}
	tc, err := NewToolchain(types.OCRConfig{Backend: types.OCRContainer, Image: "img:1"}, exec)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, tc.Run(context.Background(), "tesseract", []string{"stdin", "stdout"}, strings.NewReader(""), &out))
	require.Len(t, exec.piped, 1)
	assert.Equal(t, "docker run --rm -i img:1 tesseract stdin stdout", exec.piped[0])
}
