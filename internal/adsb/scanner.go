package adsb

import (
	"math"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ScannerConfig tunes the stream scanner
type ScannerConfig struct {
	// BufferThreshold is the number of buffered samples that triggers a scan pass
	BufferThreshold int
	// NoiseFactor scales the noise floor into the detection threshold
	NoiseFactor float64
	Reference   Reference
}

// DefaultScannerConfig returns the default scanner settings
func DefaultScannerConfig() ScannerConfig {
	return ScannerConfig{
		BufferThreshold: DefaultBufferThreshold,
		NoiseFactor:     DefaultNoiseFactor,
	}
}

// ScannerStats is a snapshot of the scanner counters
type ScannerStats struct {
	Samples       uint64
	Preambles     uint64
	ValidFrames   uint64
	InvalidFrames uint64
	NoiseFloor    float64
}

// Scanner finds and decodes frames in a stream of amplitude samples.
// Feed, Flush and Scan must be called from a single goroutine; Stats is
// safe to call concurrently.
type Scanner struct {
	logger *logrus.Logger
	cfg    ScannerConfig
	buffer []float64

	noiseFloor    atomic.Uint64 // float64 bits
	samples       atomic.Uint64
	preambles     atomic.Uint64
	validFrames   atomic.Uint64
	invalidFrames atomic.Uint64
}

// NewScanner creates a new scanner
func NewScanner(cfg ScannerConfig, logger *logrus.Logger) *Scanner {
	if cfg.BufferThreshold <= 0 {
		cfg.BufferThreshold = DefaultBufferThreshold
	}
	if cfg.NoiseFactor <= 0 {
		cfg.NoiseFactor = DefaultNoiseFactor
	}
	s := &Scanner{
		logger: logger,
		cfg:    cfg,
	}
	s.noiseFloor.Store(math.Float64bits(InitialNoiseFloor))
	return s
}

// Feed appends a batch and runs a scan pass once enough samples are buffered
func (s *Scanner) Feed(batch []float64) []*Message {
	s.buffer = append(s.buffer, batch...)
	if len(s.buffer) < s.cfg.BufferThreshold {
		return nil
	}
	return s.Flush()
}

// Flush runs a scan pass over whatever is buffered
func (s *Scanner) Flush() []*Message {
	if len(s.buffer) == 0 {
		return nil
	}
	msgs, rest := s.Scan(s.buffer)
	// keep the tail at the front of the existing backing array
	s.buffer = append(s.buffer[:0], rest...)
	return msgs
}

// Buffered returns the number of samples waiting for the next pass
func (s *Scanner) Buffered() int {
	return len(s.buffer)
}

// NoiseFloor returns the current noise floor estimate
func (s *Scanner) NoiseFloor() float64 {
	return math.Float64frombits(s.noiseFloor.Load())
}

// Scan makes one pass over buf and returns the decoded messages together
// with the unconsumed tail. The returned tail aliases buf.
func (s *Scanner) Scan(buf []float64) ([]*Message, []float64) {
	floor := s.updateNoiseFloor(buf)
	thresh := s.cfg.NoiseFactor * floor

	var msgs []*Message
	var preambles, valid, invalid uint64

	i := 0
	for i+PreambleSamples+FrameWindowSamples <= len(buf) {
		if buf[i] < thresh {
			i++
			continue
		}
		if !IsPreamble(buf[i : i+PreambleSamples]) {
			i++
			continue
		}

		preambles++
		start := i + PreambleSamples
		msg := NewMessageFromSamples(buf[start:start+FrameWindowSamples], s.cfg.Reference)
		if msg.Valid() {
			valid++
			if s.logger.IsLevelEnabled(logrus.DebugLevel) {
				s.logger.WithFields(logrus.Fields{
					"icao":     msg.ICAO(),
					"df":       msg.DF(),
					"tc":       msg.TypeCode(),
					"category": msg.Category().String(),
				}).Debug("Decoded frame")
			}
		} else {
			invalid++
		}
		msgs = append(msgs, msg)
		i = start + FrameWindowSamples
	}

	s.samples.Add(uint64(i))
	s.preambles.Add(preambles)
	s.validFrames.Add(valid)
	s.invalidFrames.Add(invalid)

	return msgs, buf[i:]
}

// updateNoiseFloor lowers the running noise floor to the smallest mean of
// the complete NoiseWindow-sized windows in buf
func (s *Scanner) updateNoiseFloor(buf []float64) float64 {
	floor := s.NoiseFloor()

	rows := len(buf) / NoiseWindow
	if rows == 0 {
		return floor
	}

	windows := mat.NewDense(rows, NoiseWindow, append([]float64(nil), buf[:rows*NoiseWindow]...))
	for r := 0; r < rows; r++ {
		if mean := stat.Mean(windows.RawRowView(r), nil); mean < floor {
			floor = mean
		}
	}

	s.noiseFloor.Store(math.Float64bits(floor))
	return floor
}

// Stats returns a snapshot of the scanner counters
func (s *Scanner) Stats() ScannerStats {
	return ScannerStats{
		Samples:       s.samples.Load(),
		Preambles:     s.preambles.Load(),
		ValidFrames:   s.validFrames.Load(),
		InvalidFrames: s.invalidFrames.Load(),
		NoiseFloor:    s.NoiseFloor(),
	}
}
