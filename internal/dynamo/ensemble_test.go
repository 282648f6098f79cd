package dynamo

import (
	"context"
	"errors"
	"testing"
)

func TestRunEnsemble(t *testing.T) {
	jobs := make([]Job, 0, 5)
	for i := 0; i < 4; i++ {
		jobs = append(jobs, Job{
			Name:   "ok",
			Sim:    New(&testDynamics{}, &testIntegrator{}),
			X0:     State{float64(i + 1)},
			Config: quiet(),
		})
	}
	bad := quiet()
	bad.Dt = 0
	jobs = append(jobs, Job{Name: "bad", Sim: New(&testDynamics{}, &testIntegrator{}), X0: State{1}, Config: bad})

	done := 0
	results := RunEnsemble(context.Background(), jobs, 3, func(JobResult) { done++ })

	if done != len(jobs) {
		t.Errorf("onDone called %d times, want %d", done, len(jobs))
	}
	if len(results) != len(jobs) {
		t.Fatalf("expected %d results, got %d", len(jobs), len(results))
	}

	for i := 0; i < 4; i++ {
		if results[i].Err != nil {
			t.Fatalf("job %d failed: %v", i, results[i].Err)
		}
		if got := results[i].Trace.Records[0].State[0]; got != float64(i+1) {
			t.Errorf("result %d out of order: starts at %v", i, got)
		}
	}
	if !errors.Is(results[4].Err, ErrConfiguration) {
		t.Errorf("expected configuration error for bad job, got %v", results[4].Err)
	}
}

func TestRunEnsembleEmpty(t *testing.T) {
	if res := RunEnsemble(context.Background(), nil, 4, nil); len(res) != 0 {
		t.Errorf("expected no results, got %d", len(res))
	}
}
