// SPDX-License-Identifier: MIT

package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "corpex",
	Short: "corpex - corpus-based explanations for latent models",
	Long: `corpex explains a model's predictions on test examples as sparse
mixtures of corpus examples, and benchmarks that explanation against
nearest-neighbor and representer baselines.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
