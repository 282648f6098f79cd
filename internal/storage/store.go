// Package storage keeps finished runs on disk, one directory per run holding
// metadata.json and trace.csv.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/san-kum/hydrorig/internal/config"
	"github.com/san-kum/hydrorig/internal/dynamo"
	"github.com/san-kum/hydrorig/internal/export"
)

const (
	metadataFile = "metadata.json"
	traceFile    = "trace.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return errors.Wrap(os.MkdirAll(s.baseDir, 0755), "create store")
}

type RunMetadata struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	Timestamp     time.Time          `json:"timestamp"`
	Integrator    string             `json:"integrator"`
	Dt            float64            `json:"dt"`
	TEnd          float64            `json:"tEnd"`
	Records       int                `json:"records"`
	Steps         int                `json:"steps"`
	Rejected      int                `json:"rejected"`
	Metrics       map[string]float64 `json:"metrics"`
	Warnings      []string           `json:"warnings,omitempty"`
	WarningCounts map[string]int     `json:"warning_counts,omitempty"`
	Error         string             `json:"error,omitempty"`
	Config        *config.Config     `json:"config"`
}

// Save writes a finished run. runErr is recorded for runs that stopped
// early; their trace holds the valid prefix.
func (s *Store) Save(cfg *config.Config, tr *dynamo.Trace, runErr error) (string, error) {
	name := cfg.Name
	if name == "" {
		name = "run"
	}
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", name, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", errors.Wrap(err, "create run directory")
	}

	meta := RunMetadata{
		ID:            runID,
		Name:          name,
		Timestamp:     now,
		Integrator:    cfg.Integrator,
		Dt:            cfg.Dt,
		TEnd:          cfg.TEnd,
		Records:       len(tr.Records),
		Steps:         tr.StepsTaken,
		Rejected:      tr.Rejected,
		Metrics:       tr.Metrics,
		WarningCounts: tr.WarningCounts,
		Config:        cfg,
	}
	for _, w := range tr.Warnings {
		meta.Warnings = append(meta.Warnings, w.String())
	}
	if runErr != nil {
		meta.Error = runErr.Error()
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", errors.Wrap(err, "write metadata")
	}

	f, err := os.Create(filepath.Join(runDir, traceFile))
	if err != nil {
		return "", errors.Wrap(err, "create trace")
	}
	defer f.Close()

	if err := export.WriteCSV(f, tr); err != nil {
		return "", errors.Wrap(err, "write trace")
	}
	return runID, errors.Wrap(f.Close(), "close trace")
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return f.Close()
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, errors.Wrap(err, "list runs")
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, errors.Wrap(err, "load run "+runID)
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, errors.Wrap(err, "decode metadata of "+runID)
	}
	return &meta, nil
}

// LoadTrace reads the recorded trace of a run. Metrics and warning counts
// come from the run's metadata.
func (s *Store) LoadTrace(runID string) (*dynamo.Trace, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(s.baseDir, runID, traceFile))
	if err != nil {
		return nil, errors.Wrap(err, "open trace of "+runID)
	}
	defer f.Close()

	tr, err := export.ReadCSV(f)
	if err != nil {
		return nil, errors.Wrap(err, "read trace of "+runID)
	}
	tr.StepsTaken = meta.Steps
	tr.Rejected = meta.Rejected
	for k, v := range meta.Metrics {
		tr.Metrics[k] = v
	}
	for k, v := range meta.WarningCounts {
		tr.WarningCounts[k] = v
	}
	return tr, nil
}
