package adsb

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedInput is returned when a bit string is empty or holds characters other than '0' and '1'
var ErrMalformedInput = errors.New("malformed bit string")

// BitsToInt parses a base-2 string
func BitsToInt(bits string) (uint64, error) {
	if !isBinary(bits) {
		return 0, fmt.Errorf("%w: %q", ErrMalformedInput, bits)
	}
	if len(bits) > 64 {
		return 0, fmt.Errorf("%w: %d bits overflow uint64", ErrMalformedInput, len(bits))
	}
	n, err := strconv.ParseUint(bits, 2, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	return n, nil
}

// BitsToHex converts a bit string to lowercase hex without zero padding
func BitsToHex(bits string) (string, error) {
	n, err := BitsToInt(bits)
	if err != nil {
		return "", err
	}
	return strconv.FormatUint(n, 16), nil
}

// BitsToBytes packs a bit string MSB first. Its length must be a multiple of 8.
func BitsToBytes(bits string) ([]byte, error) {
	if !isBinary(bits) {
		return nil, fmt.Errorf("%w: %q", ErrMalformedInput, bits)
	}
	if len(bits)%8 != 0 {
		return nil, fmt.Errorf("%w: %d bits is not a whole number of bytes", ErrMalformedInput, len(bits))
	}
	out := make([]byte, len(bits)/8)
	for i := 0; i < len(bits); i++ {
		if bits[i] == '1' {
			out[i/8] |= 1 << uint(7-i%8)
		}
	}
	return out, nil
}

// IntToBits formats n in base 2 without leading zeros
func IntToBits(n uint64) string {
	return strconv.FormatUint(n, 2)
}

// AllBitsSet reports whether every character of bits is '1'
func AllBitsSet(bits string) bool {
	return strings.Count(bits, "1") == len(bits)
}

func isBinary(bits string) bool {
	if bits == "" {
		return false
	}
	for i := 0; i < len(bits); i++ {
		if bits[i] != '0' && bits[i] != '1' {
			return false
		}
	}
	return true
}

// field reads a fixed-offset field from a string already known to be binary
func field(bits string, start, end int) int {
	n, err := BitsToInt(bits[start:end])
	if err != nil {
		panic(fmt.Sprintf("adsb: field [%d:%d] of validated frame: %v", start, end, err))
	}
	return int(n)
}

// flag reads a single bit as a bool
func flag(bits string, pos int) bool {
	return AllBitsSet(bits[pos : pos+1])
}
