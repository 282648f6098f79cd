package rig

import "github.com/san-kum/hydrorig/internal/dynamo"

// Sample is one trace record in named form.
type Sample struct {
	Time         float64
	Z, ZDot      float64
	Theta        float64
	ThetaDot     float64
	PA, PB       float64
	Fa, Fb       float64
	ZA, ZDotA    float64
	ZB, ZDotB    float64
	AreaA, AreaB float64
	QA, QB       float64
	PSA, PSB     float64
}

// Decode names the fields of a record produced by a Rig.
func Decode(rec dynamo.Record) Sample {
	s := Sample{Time: rec.Time}
	if len(rec.State) >= StateDim {
		s.Z = rec.State[IdxZ]
		s.ZDot = rec.State[IdxZDot]
		s.Theta = rec.State[IdxTheta]
		s.ThetaDot = rec.State[IdxThetaDot]
		s.PA = rec.State[IdxPA]
		s.PB = rec.State[IdxPB]
	}
	if v := rec.Values; len(v) >= len(outputs) {
		s.Fa, s.Fb = v[0], v[1]
		s.ZA, s.ZDotA = v[2], v[3]
		s.ZB, s.ZDotB = v[4], v[5]
		s.AreaA, s.AreaB = v[6], v[7]
		s.QA, s.QB = v[8], v[9]
		s.PSA, s.PSB = v[10], v[11]
	}
	return s
}

// Samples decodes a whole trace.
func Samples(tr *dynamo.Trace) []Sample {
	out := make([]Sample, len(tr.Records))
	for i, rec := range tr.Records {
		out[i] = Decode(rec)
	}
	return out
}

// StateNames labels the state vector components.
var StateNames = []string{"z", "zdot", "theta", "thetadot", "pA", "pB"}

// Series returns a state component or an inspector output by name.
func Series(tr *dynamo.Trace, name string) ([]float64, bool) {
	for i, n := range StateNames {
		if n == name {
			return tr.Column(i), true
		}
	}
	return tr.Output(name)
}

// SeriesNames lists every name Series accepts for tr.
func SeriesNames(tr *dynamo.Trace) []string {
	names := append([]string(nil), StateNames...)
	return append(names, tr.Outputs...)
}
