package adsb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDemodulate(t *testing.T) {
	tests := []struct {
		name    string
		samples []float64
		want    string
	}{
		{
			name:    "empty",
			samples: nil,
			want:    "",
		},
		{
			name:    "strong first half",
			samples: []float64{10, 1, 10, 1, 10, 1},
			want:    "111",
		},
		{
			name:    "pattern",
			samples: []float64{10, 1, 1, 10, 10, 1, 1, 10},
			want:    "1010",
		},
		{
			name:    "equal pair is a one",
			samples: []float64{5, 5, 1, 10},
			want:    "10",
		},
		{
			name:    "stops at weak pair",
			samples: []float64{10, 1, 1, 10, 1, 1, 10, 1},
			want:    "10",
		},
		{
			name:    "odd trailing sample",
			samples: []float64{10, 1, 1, 10, 10},
			want:    "10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Demodulate(tt.samples))
		})
	}
}

func TestIsPreamble(t *testing.T) {
	hi, lo := 1.0, 0.0
	canonical := []float64{hi, lo, hi, lo, lo, lo, lo, hi, lo, hi, lo, lo, lo, lo, lo, lo}

	tests := []struct {
		name   string
		window []float64
		want   bool
	}{
		{"canonical", canonical, true},
		{"trailing samples ignored", append(append([]float64{}, canonical...), 5, 5, 5), true},
		{"noisy levels", []float64{0.9, 0.1, 1.0, 0.2, 0.1, 0.0, 0.2, 0.8, 0.1, 0.95, 0.3, 0.1, 0.2, 0.1, 0.0, 0.1}, true},
		{"all equal", []float64{3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3}, false},
		{"too short", canonical[:10], false},
		{"shifted", append([]float64{lo}, canonical[:15]...), false},
		{"extra pulse", []float64{hi, lo, hi, lo, hi, lo, lo, hi, lo, hi, lo, lo, lo, lo, lo, lo}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPreamble(tt.window))
		})
	}
}
