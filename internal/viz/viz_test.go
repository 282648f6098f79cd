package viz

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/hydrorig/internal/dynamo"
)

func TestProgressBarWidth(t *testing.T) {
	for _, pct := range []float64{-1, 0, 0.5, 1, 2} {
		bar := ProgressBar(pct, 20)
		if n := strings.Count(bar, "█") + strings.Count(bar, "░"); n != 20 {
			t.Errorf("pct %g: %d cells", pct, n)
		}
	}
}

func TestSparklineChart(t *testing.T) {
	if got := SparklineChart(nil, 5); got != "─────" {
		t.Errorf("empty sparkline %q", got)
	}
	s := SparklineChart([]float64{0, 1, 2, 3, 4, 5, 6, 7}, 8)
	if !strings.ContainsRune(s, '▁') || !strings.ContainsRune(s, '█') {
		t.Errorf("sparkline missing extremes: %q", s)
	}
}

func TestSweepModel(t *testing.T) {
	var m tea.Model = NewSweepModel("sweep M", 3)
	if m.Init() == nil {
		t.Error("expected tick command")
	}

	m, _ = m.Update(JobDoneMsg{Name: "M=2000", Elapsed: 12 * time.Millisecond, Trace: &dynamo.Trace{}})
	m, _ = m.Update(JobDoneMsg{Name: "M=3000", Err: errors.New("numeric divergence")})

	sm := m.(SweepModel)
	if sm.Finished() != 2 {
		t.Errorf("expected 2 finished, got %d", sm.Finished())
	}
	view := sm.View()
	for _, want := range []string{"sweep M", "2/3", "M=2000", "M=3000", "numeric divergence"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}

	m, cmd := m.Update(sweepDoneMsg{})
	if cmd == nil {
		t.Error("expected quit command")
	}
	if !m.(SweepModel).done {
		t.Error("model not marked done")
	}
}

func TestSweepModelQuitKey(t *testing.T) {
	m := NewSweepModel("x", 1)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestRenderSummary(t *testing.T) {
	tr := &dynamo.Trace{
		Records: []dynamo.Record{
			{Time: 0, State: dynamo.State{0, 0, 0, 0, 0, 0}},
			{Time: 0.04, State: dynamo.State{-0.006, 0, 0.001, 0, 0, 0}},
		},
		Warnings:      []dynamo.Warning{{Kind: dynamo.WarnSmallAngle, Source: "rod", Value: 0.3}},
		WarningCounts: map[string]int{"small_angle/rod": 7},
		Metrics:       map[string]float64{"peak_theta": 0.001},
		StepsTaken:    1,
	}
	out := RenderSummary("reference", tr, nil)
	for _, want := range []string{"reference", "WARNINGS", "peak_theta", "x7", "0.04 s"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}

	failed := RenderSummary("bad", nil, errors.New("step 1 (t=10.000000): dynamo: numeric divergence"))
	if !strings.Contains(failed, "FAILED") || !strings.Contains(failed, "numeric divergence") {
		t.Errorf("failure summary:\n%s", failed)
	}
}
