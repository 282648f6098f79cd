package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/san-kum/hydrorig/internal/config"
	"github.com/san-kum/hydrorig/internal/dynamo"
)

func testTrace() *dynamo.Trace {
	return &dynamo.Trace{
		Outputs: []string{"F_a", "F_b"},
		Records: []dynamo.Record{
			{Time: 0, State: dynamo.State{0, 0, 0, 0, 0, 0}, Values: []float64{0, 0}},
			{Time: 1e-4, State: dynamo.State{-1e-8, -1e-3, 1e-9, 2e-5, 1.68e5, 0}, Values: []float64{168, 0}},
		},
		WarningCounts: map[string]int{"small_angle/rod": 3},
		Warnings:      []dynamo.Warning{{Kind: dynamo.WarnSmallAngle, Source: "rod", Time: 0, Value: 0.3}},
		Metrics:       map[string]float64{"peak_theta": 1e-9},
		StepsTaken:    1,
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	cfg := config.GetPreset("reference")
	runID, err := st.Save(cfg, testTrace(), nil)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !strings.HasPrefix(runID, "reference_") {
		t.Errorf("unexpected run id %q", runID)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Integrator != "rk4" || meta.Records != 2 || meta.Steps != 1 {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if meta.Metrics["peak_theta"] != 1e-9 {
		t.Errorf("expected peak_theta 1e-9, got %g", meta.Metrics["peak_theta"])
	}
	if meta.Config == nil || meta.Config.M != cfg.M {
		t.Error("config not stored")
	}
	if meta.Error != "" {
		t.Errorf("unexpected error %q", meta.Error)
	}

	tr, err := st.LoadTrace(runID)
	if err != nil {
		t.Fatalf("load trace failed: %v", err)
	}
	if len(tr.Records) != 2 || tr.Records[1].State[4] != 1.68e5 {
		t.Errorf("unexpected trace %+v", tr.Records)
	}
	if tr.WarningCounts["small_angle/rod"] != 3 || tr.Metrics["peak_theta"] != 1e-9 {
		t.Error("metadata not merged into trace")
	}
}

func TestStoreSaveFailedRun(t *testing.T) {
	st := New(t.TempDir())
	runErr := &dynamo.SimulationError{Step: 1, Time: 10, Wrapped: dynamo.ErrNumericDivergence}

	cfg := config.DefaultConfig()
	runID, err := st.Save(cfg, testTrace(), runErr)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(runID, "run_") {
		t.Errorf("unnamed run id %q", runID)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(meta.Error, "numeric divergence") {
		t.Errorf("error not recorded: %q", meta.Error)
	}
}

func TestStoreList(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	for _, name := range []string{"reference", "heavy"} {
		if _, err := st.Save(config.GetPreset(name), testTrace(), nil); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.MkdirAll(filepath.Join(dir, "junk"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Name != "reference" || runs[1].Name != "heavy" {
		t.Errorf("runs not in save order: %s, %s", runs[0].Name, runs[1].Name)
	}
}

func TestStoreFileStructure(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)

	runID, err := st.Save(config.DefaultConfig(), testTrace(), nil)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	for _, name := range []string{"metadata.json", "trace.csv"} {
		if _, err := os.Stat(filepath.Join(dir, runID, name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}
}

func TestStoreLoadMissing(t *testing.T) {
	st := New(t.TempDir())
	_, err := st.LoadTrace("nope")
	if err == nil || !os.IsNotExist(errors.Cause(err)) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}
