package analysis

import "math"

type Summary struct {
	Min  float64
	Max  float64
	Mean float64
	RMS  float64
}

func Summarize(signal []float64) Summary {
	if len(signal) == 0 {
		return Summary{}
	}
	s := Summary{Min: signal[0], Max: signal[0]}
	sq := 0.0
	for _, v := range signal {
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
		s.Mean += v
		sq += v * v
	}
	n := float64(len(signal))
	s.Mean /= n
	s.RMS = math.Sqrt(sq / n)
	return s
}
