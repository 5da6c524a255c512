package adsb

import (
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Demodulate converts a window of amplitude samples into a bit string using
// pulse position modulation: a pulse in the first half of the bit period is a 1.
// Output stops at the first pair where both samples are below PowerThreshold
// of the window peak.
func Demodulate(samples []float64) string {
	if len(samples) == 0 {
		return ""
	}

	thresh := floats.Max(samples) * PowerThreshold

	var b strings.Builder
	b.Grow(len(samples) / SamplesPerBit)
	for i := 0; i+1 < len(samples); i += SamplesPerBit {
		first, second := samples[i], samples[i+1]
		if first < thresh && second < thresh {
			break
		}
		if first >= second {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}
