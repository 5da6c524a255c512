package adsb

// Frame layout (bit offsets within a 112-bit extended squitter)
const (
	FrameBits   = 112
	ParityBits  = 24
	DataBits    = FrameBits - ParityBits // 88
	PayloadBits = 51

	dfStart, dfEnd           = 0, 5
	caStart, caEnd           = 5, 8
	icaoStart, icaoEnd       = 8, 32
	tcStart, tcEnd           = 32, 37
	payloadStart, payloadEnd = 37, 88
)

// CRC generator polynomial as a 25-bit XOR mask (0x1FFF409)
const CRCGenerator = "1111111111111010000001001"

// Preamble pulse pattern, one sample per half microsecond
const PreambleKey = "1010000101000000"

// Signal timing
const (
	PreambleSamples = len(PreambleKey)
	SamplesPerBit   = 2
	// One trailing bit is read past the frame so the demodulator sees the quiet
	// pair that terminates it.
	FrameWindowSamples = (FrameBits + 1) * SamplesPerBit
)

// Demodulation thresholds
const (
	// Pairs where both samples fall below this fraction of the window peak end the frame
	PowerThreshold = 0.2
	// Roughly 10 dB above the noise floor
	DefaultNoiseFactor     = 3.162
	NoiseWindow            = 200
	InitialNoiseFloor      = 1e6
	DefaultBufferThreshold = 1024 * 200
)

// CPR decoding constants
const (
	CPR_LAT_BITS = 17
	CPR_LON_BITS = 17
	CPR_MAX      = 131072 // 2^17
	CPR_NZ       = 15
)

// Identification character set, 6 bits per character. '_' is the space placeholder.
const IdentCharset = "#ABCDEFGHIJKLMNOPQRSTUVWXYZ#####_###############0123456789######"

// Emitter category labels indexed by [type code - 1][category]
var emitterCategories = [4][8]string{
	{"Reserved", "Reserved", "Reserved", "Reserved", "Reserved", "Reserved", "Reserved", "Reserved"},
	{"N/A", "Surface Emergency Vehicle", "Reserved", "Surface Service Vehicle",
		"Ground Obstruction", "Ground Obstruction", "Ground Obstruction", "Ground Obstruction"},
	{"N/A", "Glider/Sailplane", "Lighter-Than-Air", "Parachutist/Skydiver",
		"Ultralight/Hang-glider/Paraglider", "Reserved", "UAV", "Space Vehicle"},
	{"N/A", "Light", "Medium 1", "Medium 2", "High Vortex Aircraft", "Heavy", "High Performance", "Rotorcraft"},
}

// Units attached to numeric data points
const (
	UnitKnots    = "kts"
	UnitDegrees  = "deg"
	UnitFeet     = "ft"
	UnitMeters   = "m"
	UnitFeetPerM = "ft/min"
)
