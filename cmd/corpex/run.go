// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/katalvlaran/corpex/experiment"
)

var (
	runExperiment string
	runCV         int
	runConfig     string
	runJSON       bool
	runStoreDir   string
	runBackend    string
	runWorkers    int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run an experiment",
	Long: `Run one of the evaluation experiments.

Experiments:
  approximation_quality  - latent and output R² per explainer and n_keep
  outlier                - outliers detected vs examples inspected

Examples:
  corpex run --experiment approximation_quality --cv 0
  corpex run --experiment outlier --config outlier.yaml --json`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runExperiment, "experiment", "e", experiment.NameQuality, "Experiment to run (approximation_quality|outlier)")
	runCmd.Flags().IntVar(&runCV, "cv", 0, "Cross-validation index, added to the seed")
	runCmd.Flags().StringVarP(&runConfig, "config", "c", "", "YAML config file")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "Output as JSON")
	runCmd.Flags().StringVar(&runStoreDir, "store", "", "Override the store directory")
	runCmd.Flags().StringVar(&runBackend, "backend", "", "Override the store backend (file|sqlite)")
	runCmd.Flags().IntVar(&runWorkers, "workers", 0, "Override the number of fitting goroutines")
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg := experiment.DefaultConfig()
	if runConfig != "" {
		var err error
		if cfg, err = experiment.LoadConfig(runConfig); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("cv") {
		cfg.CV = runCV
	}
	if runStoreDir != "" {
		cfg.Store.Dir = runStoreDir
	}
	if runBackend != "" {
		cfg.Store.Backend = runBackend
	}
	if runWorkers > 0 {
		cfg.Simplex.Workers = runWorkers
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := &experiment.Runner{Config: cfg, Logger: newLogger()}
	report, err := r.Run(ctx, runExperiment)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if runJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	}
	switch rep := report.(type) {
	case *experiment.QualityReport:
		printQuality(w, rep)
	case *experiment.OutlierReport:
		printOutlier(w, rep)
	}

	return nil
}

func printQuality(w io.Writer, rep *experiment.QualityReport) {
	fmt.Fprintf(w, "run %s  cv=%d  model accuracy=%.3f train, %.3f held out  (%s)\n\n",
		rep.RunID, rep.CV, rep.ModelAccuracy, rep.ModelTestAccuracy, rep.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "%-12s %6s %10s %10s\n", "EXPLAINER", "N_KEEP", "LATENT_R2", "OUTPUT_R2")
	for _, s := range rep.Scores {
		keep, latent := "-", "-"
		if s.NKeep > 0 {
			keep = fmt.Sprint(s.NKeep)
		}
		if s.LatentR2 != nil {
			latent = fmt.Sprintf("%.3g", *s.LatentR2)
		}
		fmt.Fprintf(w, "%-12s %6s %10s %10.3g\n", s.Explainer, keep, latent, s.OutputR2)
	}
}

func printOutlier(w io.Writer, rep *experiment.OutlierReport) {
	fmt.Fprintf(w, "run %s  cv=%d  %d test examples, %d outliers  (%s)\n\n",
		rep.RunID, rep.CV, rep.Test, rep.Outliers, rep.Elapsed.Round(time.Millisecond))
	names := make([]string, 0, len(rep.Areas))
	for name := range rep.Areas {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return rep.Areas[names[i]] > rep.Areas[names[j]] })

	half := rep.Test / 2
	fmt.Fprintf(w, "%-12s %8s %9s %s\n", "DETECTOR", "AREA", fmt.Sprintf("FOUND@%d", half), fmt.Sprintf("ACC@%d", half))
	for _, name := range names {
		acc := "-"
		if curve, ok := rep.Accuracy[name]; ok {
			acc = fmt.Sprintf("%.3f", curve[half])
		}
		fmt.Fprintf(w, "%-12s %8d %9d %s\n", name, rep.Areas[name], rep.Curves[name][half], acc)
	}
}
