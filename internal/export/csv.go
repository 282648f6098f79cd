package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/hydrorig/internal/dynamo"
	"github.com/san-kum/hydrorig/internal/rig"
)

// WriteCSV writes one row per record: time, the state vector and the
// inspector outputs. Values keep full precision.
func WriteCSV(w io.Writer, tr *dynamo.Trace) error {
	cw := csv.NewWriter(w)

	header := append([]string{"t"}, rig.SeriesNames(tr)...)
	if err := cw.Write(header); err != nil {
		return err
	}

	width := len(header)
	row := make([]string, 0, width)
	for _, rec := range tr.Records {
		row = row[:0]
		row = append(row, formatFloat(rec.Time))
		for i := 0; i < len(rig.StateNames); i++ {
			v := 0.0
			if i < len(rec.State) {
				v = rec.State[i]
			}
			row = append(row, formatFloat(v))
		}
		for i := range tr.Outputs {
			v := 0.0
			if i < len(rec.Values) {
				v = rec.Values[i]
			}
			row = append(row, formatFloat(v))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a file written by WriteCSV.
func ReadCSV(r io.Reader) (*dynamo.Trace, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty trace file")
	}

	header := records[0]
	nState := len(rig.StateNames)
	if len(header) < 1+nState || header[0] != "t" {
		return nil, fmt.Errorf("unexpected trace header %v", header)
	}

	tr := &dynamo.Trace{
		Outputs:       append([]string(nil), header[1+nState:]...),
		Records:       make([]dynamo.Record, 0, len(records)-1),
		WarningCounts: make(map[string]int),
		Metrics:       make(map[string]float64),
	}

	for line, fields := range records[1:] {
		vals := make([]float64, len(fields))
		for j, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %s: %w", line+2, header[j], err)
			}
			vals[j] = v
		}
		rec := dynamo.Record{
			Time:  vals[0],
			State: dynamo.State(vals[1 : 1+nState]),
		}
		if len(tr.Outputs) > 0 {
			rec.Values = vals[1+nState:]
		}
		tr.Records = append(tr.Records, rec)
	}
	if n := len(tr.Records); n > 0 {
		tr.StepsTaken = n - 1
	}
	return tr, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
