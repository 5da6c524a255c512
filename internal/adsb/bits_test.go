package adsb

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitsToInt(t *testing.T) {
	tests := []struct {
		name    string
		bits    string
		want    uint64
		wantErr bool
	}{
		{name: "zero", bits: "0", want: 0},
		{name: "leading zeros", bits: "0000101", want: 5},
		{name: "downlink format 17", bits: "10001", want: 17},
		{name: "24 bit address", bits: "010010000100000011010110", want: 0x4840d6},
		{name: "empty", bits: "", wantErr: true},
		{name: "non binary", bits: "10201", wantErr: true},
		{name: "whitespace", bits: "10 1", wantErr: true},
		{name: "too wide", bits: "1" + strings.Repeat("0", 64), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BitsToInt(tt.bits)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrMalformedInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBitsToHex(t *testing.T) {
	tests := []struct {
		bits string
		want string
	}{
		{"010010000100000011010110", "4840d6"},
		{"000000000000000011111111", "ff"},
		{"0", "0"},
	}

	for _, tt := range tests {
		got, err := BitsToHex(tt.bits)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := BitsToHex("12")
	assert.ErrorIs(t, err, ErrMalformedInput)
}

func TestIntToBitsRoundTrip(t *testing.T) {
	assert.Equal(t, "0", IntToBits(0))
	assert.Equal(t, "10001", IntToBits(17))

	for n := uint64(0); n < 1<<24; n += 4099 {
		got, err := BitsToInt(IntToBits(n))
		require.NoError(t, err)
		require.Equal(t, n, got)
	}
	got, err := BitsToInt(IntToBits(1<<24 - 1))
	require.NoError(t, err)
	assert.Equal(t, uint64(1<<24-1), got)
}

func TestAllBitsSet(t *testing.T) {
	assert.True(t, AllBitsSet("1"))
	assert.True(t, AllBitsSet("1111"))
	assert.True(t, AllBitsSet(""))
	assert.False(t, AllBitsSet("0"))
	assert.False(t, AllBitsSet("1101"))
}

func TestBitsToBytes(t *testing.T) {
	tests := []struct {
		name    string
		bits    string
		want    []byte
		wantErr bool
	}{
		{name: "one byte", bits: "10001101", want: []byte{0x8d}},
		{name: "msb first", bits: "0000000110000000", want: []byte{0x01, 0x80}},
		{name: "partial byte", bits: "1000110", wantErr: true},
		{name: "not binary", bits: "1000110x", wantErr: true},
		{name: "empty", bits: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BitsToBytes(tt.bits)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
