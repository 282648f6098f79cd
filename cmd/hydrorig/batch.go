package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/hydrorig/internal/automation"
	"github.com/san-kum/hydrorig/internal/optim"
	"github.com/san-kum/hydrorig/internal/storage"
	"github.com/san-kum/hydrorig/internal/viz"
)

// parseGrid turns name=v1,v2 flags into search axes.
func parseGrid(specs []string) ([]string, [][]float64, error) {
	names := make([]string, 0, len(specs))
	ranges := make([][]float64, 0, len(specs))
	for _, spec := range specs {
		name, list, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, nil, fmt.Errorf("--grid %q: want name=v1,v2,...", spec)
		}
		var vals []float64
		for _, raw := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("--grid %s: %w", name, err)
			}
			vals = append(vals, v)
		}
		names = append(names, name)
		ranges = append(ranges, vals)
	}
	return names, ranges, nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	base, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	names, ranges, err := parseGrid(gridParams)
	if err != nil {
		return err
	}
	g, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	fmt.Printf("searching %d points for the lowest %s\n\n", len(g.Points()), metric)
	best, all, err := g.Search(ctx, base, metric, workers)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\tSTATUS\n", strings.Join(names, "\t"), strings.ToUpper(metric))
	for _, r := range all {
		cols := make([]string, len(names))
		for i, n := range names {
			cols[i] = strconv.FormatFloat(r.Params[n], 'g', -1, 64)
		}
		status := "ok"
		if r.Err != nil {
			status = r.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%.6g\t%s\n", strings.Join(cols, "\t"), r.Value, status)
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(best.Params))
	for k := range best.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Println()
	fmt.Print(viz.Title.Render("best:"))
	for _, k := range keys {
		fmt.Printf(" %s=%g", k, best.Params[k])
	}
	fmt.Printf("  %s=%.6g\n", metric, best.Value)
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	if sc.Description != "" {
		fmt.Println(viz.Subtle.Render(sc.Description))
	}
	results, err := automation.RunScenario(ctx, sc, st, newLogger())
	for _, r := range results {
		fmt.Println(viz.RenderSummary(r.Name, r.Trace, r.Err))
		if r.RunID != "" {
			fmt.Printf("run id: %s\n", r.RunID)
		}
	}
	return err
}
