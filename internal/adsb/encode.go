package adsb

import (
	"fmt"
	"strings"
)

// Amplitudes used when synthesizing a signal from a frame
const (
	modulationHigh = 1.0
	modulationLow  = 0.02
)

// EncodeFrame assembles header and payload fields into a 112-bit frame with valid parity
func EncodeFrame(df, ca int, icao uint32, tc int, payload string) (string, error) {
	if len(payload) != PayloadBits || !isBinary(payload) {
		return "", fmt.Errorf("%w: payload must be %d bits", ErrMalformedInput, PayloadBits)
	}
	data := padBits(uint64(df), dfEnd-dfStart) +
		padBits(uint64(ca), caEnd-caStart) +
		padBits(uint64(icao), icaoEnd-icaoStart) +
		padBits(uint64(tc), tcEnd-tcStart) +
		payload
	return AppendParity(data)
}

// EncodeIdentification builds an identification payload for up to 8 callsign characters
func EncodeIdentification(ec int, callsign string) (string, error) {
	if len(callsign) > 8 {
		return "", fmt.Errorf("%w: callsign %q longer than 8 characters", ErrMalformedInput, callsign)
	}
	callsign = strings.ReplaceAll(strings.ToUpper(callsign), " ", "_")
	callsign += strings.Repeat("_", 8-len(callsign))

	var b strings.Builder
	b.WriteString(padBits(uint64(ec), 3))
	for i := 0; i < len(callsign); i++ {
		idx := strings.IndexByte(IdentCharset, callsign[i])
		if idx < 0 || callsign[i] == '#' {
			return "", fmt.Errorf("%w: character %q not encodable", ErrMalformedInput, callsign[i])
		}
		b.WriteString(padBits(uint64(idx), 6))
	}
	return b.String(), nil
}

// EncodePosition builds an airborne position payload with a 25 ft altitude
func EncodePosition(alt int, frame CPRFrame) string {
	n := (alt + 1000) / 25
	if n < 0 {
		n = 0
	}
	ac12 := ((n & 0x7F0) << 1) | 0x10 | (n & 0x0F)

	odd := "0"
	if frame.Odd {
		odd = "1"
	}

	// surveillance status, single antenna flag, altitude, time flag, odd flag, lat, lon
	return "000" + padBits(uint64(ac12), 12) + "0" + odd +
		padBits(uint64(frame.LatCPR), CPR_LAT_BITS) +
		padBits(uint64(frame.LonCPR), CPR_LON_BITS)
}

// Modulate renders a bit string as the amplitude samples a receiver would see:
// the preamble, one high/low pair per bit, then a quiet tail long enough to
// hold a full noise window.
func Modulate(bits string) []float64 {
	out := make([]float64, 0, PreambleSamples+len(bits)*SamplesPerBit+2*NoiseWindow)
	for i := 0; i < len(PreambleKey); i++ {
		if PreambleKey[i] == '1' {
			out = append(out, modulationHigh)
		} else {
			out = append(out, modulationLow)
		}
	}
	for i := 0; i < len(bits); i++ {
		if bits[i] == '1' {
			out = append(out, modulationHigh, modulationLow)
		} else {
			out = append(out, modulationLow, modulationHigh)
		}
	}
	for i := 0; i < 2*NoiseWindow; i++ {
		out = append(out, modulationLow)
	}
	return out
}
