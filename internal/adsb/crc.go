package adsb

import "strings"

// ADS-B CRC-24 polynomial constant (Mode S standard)
const MODES_GENERATOR_POLY = 0xfff409

// Pre-computed CRC table for byte-wise remainder calculation
var crcTable [256]uint32

func init() {
	for i := 0; i < 256; i++ {
		c := uint32(i) << 16
		for j := 0; j < 8; j++ {
			if c&0x800000 != 0 {
				c = (c << 1) ^ MODES_GENERATOR_POLY
			} else {
				c = c << 1
			}
		}
		crcTable[i] = c & 0x00ffffff
	}
}

// IsValidFrame checks a 112-bit frame by explicit polynomial long division.
// The frame is valid iff the 24-bit remainder left in the parity field is zero.
func IsValidFrame(frame string) bool {
	if len(frame) != FrameBits || !isBinary(frame) {
		return false
	}

	rem := []byte(frame)
	for {
		shift := strings.IndexByte(string(rem[:DataBits]), '1')
		if shift < 0 {
			break
		}
		for i := 0; i < len(CRCGenerator); i++ {
			if CRCGenerator[i] != rem[shift+i] {
				rem[shift+i] = '1'
			} else {
				rem[shift+i] = '0'
			}
		}
	}

	return !strings.ContainsRune(string(rem[DataBits:]), '1')
}

// Checksum calculates the CRC-24 remainder of data using the pre-computed table.
// For the first 11 bytes of a long frame this is the parity the frame must carry.
func Checksum(data []byte) uint32 {
	var rem uint32
	for _, b := range data {
		rem = (rem << 8) ^ crcTable[uint32(b)^((rem&0xff0000)>>16)]
		rem = rem & 0xffffff
	}
	return rem
}

// AppendParity completes an 88-bit data string into a 112-bit frame
func AppendParity(data string) (string, error) {
	if len(data) != DataBits || !isBinary(data) {
		return "", ErrMalformedInput
	}
	raw, err := BitsToBytes(data)
	if err != nil {
		return "", err
	}
	return data + padBits(uint64(Checksum(raw)), ParityBits), nil
}

func padBits(n uint64, width int) string {
	s := IntToBits(n)
	if len(s) >= width {
		return s[len(s)-width:]
	}
	return strings.Repeat("0", width-len(s)) + s
}
