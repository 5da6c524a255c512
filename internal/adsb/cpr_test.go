package adsb

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNL(t *testing.T) {
	tests := []struct {
		lat  float64
		want int
	}{
		{0, 59},
		{10, 59},
		{30, 51},
		{52.257, 36},
		{-52.257, 36},
		{60, 29},
		{87, 2},
		{-87, 2},
		{88, 1},
		{90, 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NL(tt.lat), "NL(%v)", tt.lat)
	}
}

func TestDecodeCPRKnownFrames(t *testing.T) {
	ref := Reference{Lat: 52.258, Lon: 3.918}

	tests := []struct {
		name    string
		frame   CPRFrame
		wantLat float64
		wantLon float64
	}{
		{
			name:    "even frame",
			frame:   CPRFrame{Odd: false, LatCPR: 93000, LonCPR: 51372},
			wantLat: 52.2572021484375,
			wantLon: 3.91937255859375,
		},
		{
			name:    "odd frame",
			frame:   CPRFrame{Odd: true, LatCPR: 74158, LonCPR: 50194},
			wantLat: 52.26578017412606,
			wantLon: 3.938912527901786,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lat, lon := DecodeCPR(tt.frame, ref)
			assert.InDelta(t, tt.wantLat, lat, 1e-9)
			assert.InDelta(t, tt.wantLon, lon, 1e-9)
		})
	}
}

func TestCPRRoundTrip(t *testing.T) {
	positions := []Reference{
		{Lat: 52.2572, Lon: 3.9194},
		{Lat: -33.9, Lon: 151.2},
		{Lat: 40.6413, Lon: -73.7781},
		{Lat: 0.5, Lon: -179.9},
		{Lat: 70.1, Lon: 20.3},
		{Lat: -60.2, Lon: -70.1},
		{Lat: 10, Lon: 0},
	}

	for _, pos := range positions {
		// receiver roughly 150 km away
		ref := Reference{Lat: pos.Lat + 1, Lon: pos.Lon - 1}
		for _, odd := range []bool{false, true} {
			frame := EncodeCPR(pos.Lat, pos.Lon, odd)
			assert.Less(t, frame.LatCPR, uint32(CPR_MAX))
			assert.Less(t, frame.LonCPR, uint32(CPR_MAX))

			lat, lon := DecodeCPR(frame, ref)
			assert.InDelta(t, pos.Lat, lat, 0.01, "lat %v odd=%v", pos, odd)
			dLon := math.Mod(lon-pos.Lon+540, 360) - 180
			assert.InDelta(t, 0, dLon, 0.01, "lon %v odd=%v", pos, odd)
		}
	}
}

func TestCPRMod(t *testing.T) {
	assert.InDelta(t, 1.0, cprMod(7, 6), 1e-12)
	assert.InDelta(t, 5.0, cprMod(-1, 6), 1e-12)
	assert.InDelta(t, 0.0, cprMod(-6, 6), 1e-12)
}

func TestCPRDlonPolarFallback(t *testing.T) {
	assert.Equal(t, 360.0, cprDlon(89, true))
	assert.Equal(t, 360.0, cprDlon(89, false))
	assert.InDelta(t, 360.0/35, cprDlon(52.26, true), 1e-12)
}
