// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/katalvlaran/corpex/experiment"
	"github.com/katalvlaran/corpex/explain"
	"github.com/katalvlaran/corpex/nearest"
	"github.com/katalvlaran/corpex/representer"
	"github.com/katalvlaran/corpex/simplex"
	"github.com/katalvlaran/corpex/store"
)

const defaultWidth = 80

var (
	inspectStore   string
	inspectBackend string
	inspectKind    string
	inspectCV      int
	inspectKeep    int
	inspectTest    int
	inspectJSON    bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print the decomposition of a stored explainer",
	Long: `Load a fitted explainer from a store and print, for each test example,
the corpus examples it is explained by and their weights.

Examples:
  corpex inspect --store results/approximation_quality --kind simplex --keep 5
  corpex inspect --store results/outlier --backend sqlite --kind nn_dist --keep 5 --test 3`,
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringVar(&inspectStore, "store", filepath.Join(experiment.DefaultStoreDir, experiment.NameQuality), "Store directory")
	inspectCmd.Flags().StringVar(&inspectBackend, "backend", store.BackendFile, "Store backend (file|sqlite)")
	inspectCmd.Flags().StringVarP(&inspectKind, "kind", "k", string(explain.KindSimplex), "Explainer kind")
	inspectCmd.Flags().IntVar(&inspectCV, "cv", 0, "Cross-validation index")
	inspectCmd.Flags().IntVar(&inspectKeep, "keep", simplex.DefaultKeep, "Sparsity target the explainer was fitted with")
	inspectCmd.Flags().IntVarP(&inspectTest, "test", "t", -1, "Test example to decompose (-1 for all)")
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "Output as JSON")
}

func runInspect(cmd *cobra.Command, _ []string) error {
	kind, err := explain.ParseKind(inspectKind)
	if err != nil {
		return err
	}
	backend, err := store.Open(inspectBackend, inspectStore)
	if err != nil {
		return err
	}
	defer backend.Close()

	key := store.Key{Kind: kind, CV: inspectCV, Keep: inspectKeep}
	st, err := backend.Load(cmd.Context(), key)
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	e, err := restore(st)
	if err != nil {
		return err
	}
	dec, ok := e.(explain.Decomposer)
	if !ok {
		return fmt.Errorf("%s has no per-example decomposition", kind)
	}

	first, last := 0, st.TestLatents.Rows()-1
	if inspectTest >= 0 {
		first, last = inspectTest, inspectTest
	}
	out := make(map[int][]explain.Contribution, last-first+1)
	for t := first; t <= last; t++ {
		if out[t], err = dec.Decompose(t); err != nil {
			return err
		}
	}

	w := cmd.OutOrStdout()
	if inspectJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(out)
	}
	bar := barWidth(w)
	for t := first; t <= last; t++ {
		fmt.Fprintf(w, "test #%d\n", t)
		for _, c := range out[t] {
			fmt.Fprintf(w, "  corpus #%-5d %6.3f %s\n", c.Index, c.Weight, strings.Repeat("█", int(c.Weight*float64(bar)+0.5)))
		}
	}

	return nil
}

// restore rebuilds a query-only explainer of the state's kind.
func restore(st explain.State) (explain.Explainer, error) {
	switch st.Kind {
	case explain.KindSimplex:
		return simplex.Restore(st)
	case explain.KindNNUniform, explain.KindNNDistance:
		return nearest.Restore(st)
	case explain.KindRepresenter:
		return representer.Restore(st)
	}

	return nil, fmt.Errorf("unknown kind %q", st.Kind)
}

// barWidth leaves room for the index and weight columns.
func barWidth(w io.Writer) int {
	width := defaultWidth
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if cols, _, err := term.GetSize(int(f.Fd())); err == nil && cols > 0 {
			width = cols
		}
	}

	return max(width-24, 10)
}
