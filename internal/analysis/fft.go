package analysis

import (
	"math"
	"math/cmplx"
)

// FFT is a radix-2 transform. len(data) must be a power of two.
func FFT(data []float64) []complex128 {
	n := len(data)
	if n <= 1 {
		result := make([]complex128, n)
		for i := range data {
			result[i] = complex(data[i], 0)
		}
		return result
	}

	if n%2 != 0 {
		panic("fft requires power of 2 length")
	}

	even := make([]float64, n/2)
	odd := make([]float64, n/2)

	for i := 0; i < n/2; i++ {
		even[i] = data[2*i]
		odd[i] = data[2*i+1]
	}

	feven := FFT(even)
	fodd := FFT(odd)

	result := make([]complex128, n)
	for k := 0; k < n/2; k++ {
		w := cmplx.Exp(complex(0, -2*math.Pi*float64(k)/float64(n)))
		result[k] = feven[k] + w*fodd[k]
		result[k+n/2] = feven[k] - w*fodd[k]
	}

	return result
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

type Bin struct {
	Freq float64
	Amp  float64
}

// Spectrum removes the mean, zero-pads to a power of two and returns the
// one-sided amplitude spectrum for samples taken every dt seconds.
func Spectrum(signal []float64, dt float64) []Bin {
	if len(signal) < 2 || !(dt > 0) {
		return nil
	}

	mean := 0.0
	for _, v := range signal {
		mean += v
	}
	mean /= float64(len(signal))

	n := nextPow2(len(signal))
	padded := make([]float64, n)
	for i, v := range signal {
		padded[i] = v - mean
	}

	fft := FFT(padded)
	bins := make([]Bin, n/2)
	for i := range bins {
		bins[i] = Bin{
			Freq: float64(i) / (float64(n) * dt),
			Amp:  2 * cmplx.Abs(fft[i]) / float64(len(signal)),
		}
	}
	return bins
}

// DominantFrequency returns the frequency and amplitude of the strongest
// non-DC bin, or zeros for a flat or too-short signal.
func DominantFrequency(signal []float64, dt float64) (float64, float64) {
	bins := Spectrum(signal, dt)
	best := Bin{}
	for _, b := range bins[min(1, len(bins)):] {
		if b.Amp > best.Amp {
			best = b
		}
	}
	return best.Freq, best.Amp
}
