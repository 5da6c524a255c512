package adsb

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage(t *testing.T) {
	msg := NewMessage(hexToBits(t, identFrameHex), Reference{})

	require.True(t, msg.Valid())
	assert.Equal(t, 17, msg.DF())
	assert.Equal(t, 5, msg.CA())
	assert.Equal(t, "4840D6", msg.ICAO())
	assert.Equal(t, "4840d6", msg.Key())
	assert.Equal(t, 4, msg.TypeCode())
	assert.Equal(t, AircraftIdentification, msg.Category())
	assert.True(t, msg.IsExtendedSquitter())

	id, ok := msg.Field(FieldIdentification)
	require.True(t, ok)
	assert.Equal(t, "KLM1023", id.Value())
}

func TestNewMessageInvalid(t *testing.T) {
	frame := hexToBits(t, identFrameHex)

	tests := []struct {
		name string
		bits string
	}{
		{"corrupted", flipBit(frame, 40)},
		{"short", frame[:56]},
		{"empty", ""},
		{"garbage", strings.Repeat("z", FrameBits)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := NewMessage(tt.bits, Reference{})
			assert.False(t, msg.Valid())
			assert.Equal(t, tt.bits, msg.Bits())
			assert.Zero(t, msg.DF())
			assert.Zero(t, msg.TypeCode())
			assert.Empty(t, msg.ICAO())
			assert.Equal(t, Unknown, msg.Category())
			assert.Empty(t, msg.Fields())
			assert.False(t, msg.IsExtendedSquitter())
			assert.True(t, strings.HasPrefix(msg.String(), "Invalid ("))
		})
	}
}

func TestMessageFieldsAreCopies(t *testing.T) {
	msg := NewMessage(hexToBits(t, identFrameHex), Reference{})

	fields := msg.Fields()
	delete(fields, FieldIdentification)
	fields[FieldAltitude] = NewDataPoint("Altitude", 1, UnitFeet)

	_, ok := msg.Field(FieldIdentification)
	assert.True(t, ok)
	_, ok = msg.Field(FieldAltitude)
	assert.False(t, ok)
}

func TestNewMessageFromSamples(t *testing.T) {
	bits := hexToBits(t, groundVelHex)
	samples := Modulate(bits)

	msg := NewMessageFromSamples(samples[PreambleSamples:PreambleSamples+FrameWindowSamples], Reference{})
	require.True(t, msg.Valid())
	assert.Equal(t, bits, msg.Bits())
	assert.Equal(t, AirborneVelocity, msg.Category())
}

func TestMessageString(t *testing.T) {
	msg := NewMessage(hexToBits(t, evenPosFrameHex), Reference{Lat: 52.258, Lon: 3.918})
	out := msg.String()

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "ICAO 40621D | DF 17 | CA 5 | TC 11 (Airborne Position)", lines[0])
	assert.Equal(t, "  Latitude: 52.2572 (deg)", lines[1])
	assert.Equal(t, "  Longitude: 3.9194 (deg)", lines[2])
	assert.Equal(t, "  Altitude: 38000 (ft)", lines[3])
}
