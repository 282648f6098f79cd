package main

import (
	"fmt"
	"math"
	"os"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/hydrorig/internal/analysis"
	"github.com/san-kum/hydrorig/internal/config"
	"github.com/san-kum/hydrorig/internal/dynamo"
	"github.com/san-kum/hydrorig/internal/export"
	"github.com/san-kum/hydrorig/internal/logs"
	"github.com/san-kum/hydrorig/internal/metrics"
	"github.com/san-kum/hydrorig/internal/rig"
	"github.com/san-kum/hydrorig/internal/storage"
	"github.com/san-kum/hydrorig/internal/viz"
)

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	sim, _, err := rig.NewSimulator(cfg, newLogger())
	if err != nil {
		return err
	}
	for _, m := range metrics.Standard(cfg) {
		sim.AddMetric(m)
	}

	ctx, stop := signalContext()
	defer stop()

	start := time.Now()
	tr, runErr := sim.Run(ctx, cfg.InitialState(), cfg.Sim())
	elapsed := time.Since(start)
	if tr == nil {
		return runErr
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(cfg, tr, runErr)
	if err != nil {
		return err
	}

	fmt.Println(viz.RenderSummary(runName(cfg), tr, runErr))
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("completed in %v\n", elapsed)

	if len(tr.Records) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(tr.Column(rig.IdxTheta),
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("theta (rad)"),
		))
	}
	return runErr
}

func runName(cfg *config.Config) string {
	if cfg.Name != "" {
		return cfg.Name
	}
	return "run"
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tTEND\tDT\tINTEG\tRECORDS\tSTATUS")

	for _, run := range runs {
		status := "ok"
		switch {
		case run.Error != "":
			status = "failed"
		case len(run.Warnings) > 0:
			status = fmt.Sprintf("%d warnings", len(run.Warnings))
		}
		fmt.Fprintf(w, "%s\t%s\t%gs\t%gs\t%s\t%d\t%s\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.TEnd,
			run.Dt,
			run.Integrator,
			run.Records,
			status,
		)
	}

	return w.Flush()
}

func loadRun(runID string) (*storage.RunMetadata, *dynamo.Trace, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	tr, err := st.LoadTrace(runID)
	if err != nil {
		return nil, nil, err
	}
	if len(tr.Records) == 0 {
		return nil, nil, fmt.Errorf("run %s has no data", runID)
	}
	return meta, tr, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, tr, err := loadRun(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("samples: %d\n\n", len(tr.Records))

	for _, name := range series {
		data, ok := rig.Series(tr, name)
		if !ok {
			return fmt.Errorf("unknown series %q (available: %v)", name, rig.SeriesNames(tr))
		}
		fmt.Println(asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(name),
		))
		fmt.Println()
	}

	if pngFile != "" {
		p, err := export.TracePlot(tr, meta.ID, series...)
		if err != nil {
			return err
		}
		if err := export.SavePNG(p, 8, 5, 150, pngFile); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", pngFile)
	}

	if svgFile != "" && len(series) > 0 {
		ys, _ := rig.Series(tr, series[0])
		svg := export.SeriesToSVG(tr.Times(), ys, 800, 400, "#00ccff")
		if err := os.WriteFile(svgFile, []byte(svg), 0o644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgFile)
	}
	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	meta, tr, err := loadRun(args[0])
	if err != nil {
		return err
	}

	if xAxis < 0 || yAxis < 0 || xAxis >= len(rig.StateNames) || yAxis >= len(rig.StateNames) {
		return fmt.Errorf("axes must lie in [0, %d)", len(rig.StateNames))
	}
	p := analysis.NewPortrait(tr, xAxis, yAxis)
	if p == nil {
		return fmt.Errorf("state dimension too small for selected axes")
	}

	fmt.Printf("phase space plot: %s\n", meta.ID)
	fmt.Printf("x-axis: %s, y-axis: %s\n\n", rig.StateNames[xAxis], rig.StateNames[yAxis])
	fmt.Println(p.ASCII(70, 20))
	fmt.Printf("\nLegend: . = early, o = middle, ● = late\n")
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, tr, err := loadRun(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("analysis: %s\n\n", meta.ID)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SERIES\tMIN\tMAX\tMEAN\tRMS")
	for _, name := range rig.SeriesNames(tr) {
		data, _ := rig.Series(tr, name)
		s := analysis.Summarize(data)
		fmt.Fprintf(w, "%s\t%.6g\t%.6g\t%.6g\t%.6g\n", name, s.Min, s.Max, s.Mean, s.RMS)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	times := tr.Times()
	theta := tr.Column(rig.IdxTheta)

	// Adaptive runs are not uniformly sampled; the mean spacing is close
	// enough to locate the dominant tilt frequency.
	spacing := meta.Dt
	if n := len(times); n > 1 {
		spacing = (times[n-1] - times[0]) / float64(n-1)
	}
	freq, amp := analysis.DominantFrequency(theta, spacing)
	fmt.Println()
	fmt.Printf("dominant tilt frequency: %.3f hz (amplitude %.3g rad)\n", freq, amp)
	if freq > 0 {
		fmt.Printf("period: %.4f s\n", 1.0/freq)
	}

	crossings := analysis.Crossings(times, theta, 0)
	fmt.Printf("level crossings of theta: %d\n", len(crossings))
	for _, t := range crossings {
		fmt.Printf("  t=%.6f\n", t)
	}
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	_, tr, err := loadRun(args[0])
	if err != nil {
		return err
	}
	return export.WriteCSV(os.Stdout, tr)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, tr, err := loadRun(args[0])
	if err != nil {
		return err
	}
	run := export.Run{Name: meta.Name, Integrator: meta.Integrator, Dt: meta.Dt, TEnd: meta.TEnd}
	return export.ExportJSON(os.Stdout, run, tr)
}

// newJob builds an independent simulator for cfg. Jobs log nowhere: their
// progress is rendered by the caller.
func newJob(name string, cfg *config.Config) (dynamo.Job, error) {
	sim, _, err := rig.NewSimulator(cfg, logs.Discard())
	if err != nil {
		return dynamo.Job{}, fmt.Errorf("%s: %w", name, err)
	}
	for _, m := range metrics.Standard(cfg) {
		sim.AddMetric(m)
	}
	return dynamo.Job{Name: name, Sim: sim, X0: cfg.InitialState(), Config: cfg.Sim()}, nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	base, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if _, err := base.Get(param); err != nil {
		return err
	}

	cfgs := make([]*config.Config, len(values))
	jobs := make([]dynamo.Job, len(values))
	for i, v := range values {
		c := base.Clone()
		if err := c.Set(param, v); err != nil {
			return err
		}
		c.Name = fmt.Sprintf("%s_%s=%g", runName(base), param, v)
		if err := c.Validate(); err != nil {
			return fmt.Errorf("%s: %w", c.Name, err)
		}
		job, err := newJob(c.Name, c)
		if err != nil {
			return err
		}
		cfgs[i] = c
		jobs[i] = job
	}

	ctx, stop := signalContext()
	defer stop()

	results, err := viz.RunSweep(ctx, fmt.Sprintf("sweep %s over %d values", param, len(values)), jobs, workers, os.Stdout)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tSTATUS\tPEAK THETA\tMIN Z\tPEAK P\tRUN ID\n", param)
	for i, r := range results {
		if r.Trace == nil {
			fmt.Fprintf(w, "%g\t%v\t\t\t\t\n", values[i], r.Err)
			continue
		}
		runID, err := st.Save(cfgs[i], r.Trace, r.Err)
		if err != nil {
			return err
		}
		status := "ok"
		if r.Err != nil {
			status = "failed"
		} else if len(r.Trace.Warnings) > 0 {
			status = "warnings"
		}
		m := r.Trace.Metrics
		fmt.Fprintf(w, "%g\t%s\t%.4g\t%.4g\t%.4g\t%s\n",
			values[i], status, m["peak_theta"], m["min_z"], m["peak_pressure"], runID)
	}
	return w.Flush()
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	base, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	jobs := make([]dynamo.Job, len(args))
	for i, name := range args {
		c := base.Clone()
		c.Integrator = name
		c.Name = name
		if err := c.Validate(); err != nil {
			return err
		}
		job, err := newJob(name, c)
		if err != nil {
			return err
		}
		jobs[i] = job
	}

	ctx, stop := signalContext()
	defer stop()

	fmt.Printf("comparing integrators: dt=%g tEnd=%g\n\n", base.Dt, base.TEnd)
	results := dynamo.RunEnsemble(ctx, jobs, len(jobs), nil)

	ref, _ := results[0].Trace.Last()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INTEGRATOR\tSTEPS\tREJECTED\tFINAL Z\tFINAL THETA\t|ΔTHETA| VS FIRST\tTIME\tSTATUS")
	for _, r := range results {
		last, ok := r.Trace.Last()
		if !ok {
			fmt.Fprintf(w, "%s\t\t\t\t\t\t%v\t%v\n", r.Name, r.Elapsed, r.Err)
			continue
		}
		diff := math.NaN()
		if ref.State != nil {
			diff = math.Abs(last.State[rig.IdxTheta] - ref.State[rig.IdxTheta])
		}
		status := "ok"
		if r.Err != nil {
			status = r.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%.6g\t%.6g\t%.3g\t%v\t%s\n",
			r.Name, r.Trace.StepsTaken, r.Trace.Rejected,
			last.State[rig.IdxZ], last.State[rig.IdxTheta], diff,
			r.Elapsed.Round(time.Microsecond), status)
	}
	return w.Flush()
}
