package source

// Defaults for the RTL-SDR receiver. Two samples per microsecond match the
// 1 Mbit/s pulse position modulation of Mode S.
const (
	DefaultFrequency  = 1090000000
	DefaultSampleRate = 2000000
	DefaultGain       = 0 // automatic
)

// RTLSDRConfig selects and tunes an RTL-SDR device
type RTLSDRConfig struct {
	DeviceIndex int
	Frequency   uint32
	SampleRate  uint32
	Gain        int
}
