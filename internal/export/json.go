package export

import (
	"encoding/json"
	"io"

	"github.com/san-kum/hydrorig/internal/dynamo"
	"github.com/san-kum/hydrorig/internal/rig"
)

type Run struct {
	Name       string  `json:"name"`
	Integrator string  `json:"integrator"`
	Dt         float64 `json:"dt"`
	TEnd       float64 `json:"tEnd"`
}

type ExportData struct {
	Run
	Steps         int                `json:"steps"`
	Rejected      int                `json:"rejected,omitempty"`
	StateNames    []string           `json:"state_names"`
	Outputs       []string           `json:"outputs"`
	Times         []float64          `json:"times"`
	States        [][]float64        `json:"states"`
	Values        [][]float64        `json:"values,omitempty"`
	Metrics       map[string]float64 `json:"metrics,omitempty"`
	Warnings      []string           `json:"warnings,omitempty"`
	WarningCounts map[string]int     `json:"warning_counts,omitempty"`
}

func NewExportData(run Run, tr *dynamo.Trace) ExportData {
	data := ExportData{
		Run:           run,
		Steps:         tr.StepsTaken,
		Rejected:      tr.Rejected,
		StateNames:    rig.StateNames,
		Outputs:       tr.Outputs,
		Times:         tr.Times(),
		States:        make([][]float64, len(tr.Records)),
		Metrics:       tr.Metrics,
		WarningCounts: tr.WarningCounts,
	}
	if len(tr.Outputs) > 0 {
		data.Values = make([][]float64, len(tr.Records))
	}
	for i, rec := range tr.Records {
		data.States[i] = rec.State
		if data.Values != nil {
			data.Values[i] = rec.Values
		}
	}
	for _, w := range tr.Warnings {
		data.Warnings = append(data.Warnings, w.String())
	}
	return data
}

func ExportJSON(w io.Writer, run Run, tr *dynamo.Trace) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewExportData(run, tr))
}
