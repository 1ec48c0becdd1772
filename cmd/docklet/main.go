// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the docklet CLI: one subcommand per
// file-processing task plus batch runs and the task history.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// errReported marks failures whose message a command already printed in
// its own format.
var errReported = errors.New("reported")

// rootCmd is the base command for the docklet CLI.
var rootCmd = &cobra.Command{
	Use:   "docklet",
	Short: "Single-shot CSV, image, and PDF processing",
	Long: `docklet runs self-contained file-processing tasks: profiling CSV data,
converting images, and extracting text and tables from PDFs.

Each task is a subcommand. Inputs come from flags, the environment variables
INPUT_FILE, OUTPUT_FILE and friends, or docklet.yaml. The run subcommand
executes a YAML batch of tasks, and history shows past runs when a ledger is
configured.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./docklet.yaml or ~/.config/docklet/docklet.yaml)")
	rootCmd.PersistentFlags().String("ledger", "", "record runs in this SQLite file (empty disables)")
	_ = viper.BindPFlag("ledger.path", rootCmd.PersistentFlags().Lookup("ledger"))
}

// envNames are the environment variables the task programs have always
// read, bound without the DOCKLET_ prefix.
var envNames = []string{
	"INPUT_FILE", "OUTPUT_FILE",
	"FORMAT", "QUALITY", "WIDTH", "HEIGHT",
	"EXTRACT_TABLES", "OUTPUT_FORMAT", "PAGE_START", "PAGE_END",
	"TIMESTAMP",
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("docklet")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "docklet"))
		}
	}

	viper.SetEnvPrefix("DOCKLET")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for _, name := range envNames {
		_ = viper.BindEnv(strings.ToLower(name), name)
	}
	setDefaults()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
