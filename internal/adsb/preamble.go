package adsb

import "gonum.org/v1/gonum/floats"

// IsPreamble binarizes the first PreambleSamples samples of window at the
// midpoint between its extremes and compares them with PreambleKey.
func IsPreamble(window []float64) bool {
	if len(window) < PreambleSamples {
		return false
	}
	window = window[:PreambleSamples]

	lo, hi := floats.Min(window), floats.Max(window)
	thresh := lo + (hi-lo)/2

	for i, s := range window {
		pulse := s >= thresh
		if pulse != (PreambleKey[i] == '1') {
			return false
		}
	}
	return true
}
