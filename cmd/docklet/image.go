// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Maman08/Docklet/internal/tasks"
	"github.com/Maman08/Docklet/pkg/types"
)

var imageCmd = &cobra.Command{
	Use:     "image-convert",
	Aliases: []string{"image"},
	Short:   "Convert an image to another format, optionally resizing it",
	Long: `Image-convert re-encodes INPUT_FILE as FORMAT (jpg, png, gif, webp, bmp, tiff) and
writes OUTPUT_FILE.<format>. Setting only WIDTH or only HEIGHT keeps the
aspect ratio. Transparent images lose their alpha channel when converted to
JPEG.`,
	RunE: runImage,
}

func init() {
	imageCmd.Flags().String("input", "", "source image (env INPUT_FILE)")
	imageCmd.Flags().String("output", "", "output path without extension (env OUTPUT_FILE)")
	imageCmd.Flags().String("format", "", "output format (env FORMAT, default jpg)")
	imageCmd.Flags().Int("quality", 0, "encoder quality 1-100 (env QUALITY, default 80)")
	imageCmd.Flags().Int("width", 0, "target width in pixels (env WIDTH)")
	imageCmd.Flags().Int("height", 0, "target height in pixels (env HEIGHT)")

	rootCmd.AddCommand(imageCmd)
}

func runImage(cmd *cobra.Command, args []string) error {
	if err := bindFlags(cmd, map[string]string{
		"input":   "input_file",
		"output":  "output_file",
		"format":  "format",
		"quality": "quality",
		"width":   "width",
		"height":  "height",
	}); err != nil {
		return err
	}
	cfg := loadConfig()
	stderr := cmd.ErrOrStderr()

	input, output := viper.GetString("input_file"), viper.GetString("output_file")
	if input == "" || output == "" {
		fmt.Fprintln(stderr, "Error: INPUT_FILE and OUTPUT_FILE must be specified")
		return errReported
	}

	params := map[string]string{}
	if v := viper.GetString("format"); v != "" {
		params["format"] = v
	}
	setIntParams(params, "quality", "width", "height")

	runner, closeLedger, err := newRunner(cfg, stderr)
	if err != nil {
		return err
	}
	defer closeLedger()

	task, err := runner.Execute(cmd.Context(), tasks.Entry{
		Type:       types.TaskImageConvert,
		Input:      input,
		Output:     output,
		Parameters: params,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error processing image: %v\n", err)
		return errReported
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Image conversion completed: %s\n", task.Output)
	return nil
}
