package source

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"airport522/internal/adsb"
)

// Beast binary frame types
const (
	beastSync      = 0x1A
	beastModeAC    = 0x31
	beastModeS     = 0x32
	beastModeSLong = 0x33
	beastStatus    = 0x34
)

// beastClock is the rate of the 48-bit Beast timestamp counter
const beastClock = 12000000

// MaxBeastTimestamp is the first whole second the 48-bit counter cannot hold
const MaxBeastTimestamp = (1 << 48) / beastClock

// errBeastResync signals an unescaped sync byte in the middle of a frame
var errBeastResync = errors.New("beast frame interrupted by sync byte")

// BeastFrame is one frame of a Mode S Beast binary stream
type BeastFrame struct {
	Type      byte
	Timestamp uint64 // 12 MHz counter
	Signal    byte
	Data      []byte
}

// Bits returns the frame payload as a bit string
func (f BeastFrame) Bits() string {
	var b strings.Builder
	for _, c := range f.Data {
		fmt.Fprintf(&b, "%08b", c)
	}
	return b.String()
}

// beastPayloadLen returns the number of data bytes following the timestamp
// and signal level, or 0 for an unknown type
func beastPayloadLen(frameType byte) int {
	switch frameType {
	case beastModeAC, beastStatus:
		return 2
	case beastModeS:
		return 7
	case beastModeSLong:
		return 14
	default:
		return 0
	}
}

// BeastReader splits a Beast binary stream into frames. Sync bytes inside a
// frame are escaped by doubling them.
type BeastReader struct {
	r      *bufio.Reader
	synced bool
}

// NewBeastReader reads frames from r
func NewBeastReader(r io.Reader) *BeastReader {
	return &BeastReader{r: bufio.NewReader(r)}
}

// Next returns the next complete frame, io.EOF at the end of the stream.
// A truncated final frame is dropped.
func (br *BeastReader) Next() (BeastFrame, error) {
	for {
		if !br.synced {
			if err := br.seekSync(); err != nil {
				return BeastFrame{}, err
			}
		}
		br.synced = false

		frameType, err := br.r.ReadByte()
		if err != nil {
			return BeastFrame{}, err
		}
		n := beastPayloadLen(frameType)
		if n == 0 {
			continue
		}

		// 6 timestamp bytes, 1 signal byte, then the payload
		raw := make([]byte, 7+n)
		if err := br.readFrameBytes(raw); err != nil {
			if errors.Is(err, errBeastResync) {
				continue
			}
			if errors.Is(err, io.ErrUnexpectedEOF) {
				return BeastFrame{}, io.EOF
			}
			return BeastFrame{}, err
		}

		var ts uint64
		for _, c := range raw[:6] {
			ts = ts<<8 | uint64(c)
		}
		return BeastFrame{
			Type:      frameType,
			Timestamp: ts,
			Signal:    raw[6],
			Data:      raw[7:],
		}, nil
	}
}

// seekSync discards bytes up to and including the next sync byte
func (br *BeastReader) seekSync() error {
	for {
		c, err := br.r.ReadByte()
		if err != nil {
			return err
		}
		if c == beastSync {
			return nil
		}
	}
}

// readFrameBytes fills buf, collapsing escaped sync bytes
func (br *BeastReader) readFrameBytes(buf []byte) error {
	for i := range buf {
		c, err := br.r.ReadByte()
		if err != nil {
			return io.ErrUnexpectedEOF
		}
		if c == beastSync {
			next, err := br.r.ReadByte()
			if err != nil {
				return io.ErrUnexpectedEOF
			}
			if next != beastSync {
				// the sync byte starts the next frame
				_ = br.r.UnreadByte()
				br.synced = true
				return errBeastResync
			}
		}
		buf[i] = c
	}
	return nil
}

// ParseBeast converts the 112-bit frames of a Beast capture into playback
// records. Short, Mode A/C and status frames are skipped.
func ParseBeast(r io.Reader, logger *logrus.Logger) ([]Record, error) {
	br := NewBeastReader(r)

	var records []Record
	skipped := 0
	for {
		frame, err := br.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read beast stream: %w", err)
		}
		if frame.Type != beastModeSLong {
			skipped++
			continue
		}
		records = append(records, Record{
			Timestamp: int64(frame.Timestamp / beastClock),
			Bits:      frame.Bits(),
		})
	}

	logger.WithFields(logrus.Fields{
		"frames":  len(records),
		"skipped": skipped,
	}).Debug("Parsed beast capture")
	return records, nil
}

// EncodeBeast writes records as Mode S long Beast frames, escaping sync bytes.
// Timestamps must fit the 48-bit counter, so they are offsets in seconds
// rather than Unix times.
func EncodeBeast(w io.Writer, records []Record, signal byte) error {
	for _, rec := range records {
		if len(rec.Bits) != adsb.FrameBits {
			return fmt.Errorf("beast frames hold %d bits, got %d", adsb.FrameBits, len(rec.Bits))
		}
		if rec.Timestamp < 0 || rec.Timestamp >= MaxBeastTimestamp {
			return fmt.Errorf("timestamp %d does not fit the 48-bit beast counter", rec.Timestamp)
		}
		data, err := adsb.BitsToBytes(rec.Bits)
		if err != nil {
			return err
		}

		ts := uint64(rec.Timestamp) * beastClock
		body := make([]byte, 0, 7+len(data))
		for shift := 40; shift >= 0; shift -= 8 {
			body = append(body, byte(ts>>uint(shift)))
		}
		body = append(body, signal)
		body = append(body, data...)

		out := []byte{beastSync, beastModeSLong}
		for _, c := range body {
			out = append(out, c)
			if c == beastSync {
				out = append(out, beastSync)
			}
		}
		if _, err := w.Write(out); err != nil {
			return err
		}
	}
	return nil
}
