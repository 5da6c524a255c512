package source

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"airport522/internal/adsb"
)

// Record is one line of a playback file
type Record struct {
	Timestamp int64
	Bits      string
}

// PlaybackOptions control how a recording is replayed
type PlaybackOptions struct {
	// Repeat restarts from the first record after the last
	Repeat bool
	// Rate limits replay to this many records per second; zero replays as fast as possible
	Rate float64
	// Format is FormatText, FormatBeast, or empty to choose by file extension
	Format string
	// RestartDelay pauses before the first record and before each restart
	RestartDelay time.Duration
}

// Playback file formats
const (
	FormatText  = "text"
	FormatBeast = "beast"
)

// playbackFormat resolves the format of path, ignoring a trailing .gz
func playbackFormat(path, format string) (string, error) {
	switch format {
	case FormatText, FormatBeast:
		return format, nil
	case "", "auto":
	default:
		return "", fmt.Errorf("unknown playback format %q", format)
	}

	name := strings.TrimSuffix(path, ".gz")
	if strings.HasSuffix(name, ".bin") || strings.HasSuffix(name, ".beast") {
		return FormatBeast, nil
	}
	return FormatText, nil
}

// Playback replays recorded frames as synthesized amplitude samples
type Playback struct {
	records []Record
	next    int
	delayed bool
	opts    PlaybackOptions
	limiter *rate.Limiter
	logger  *logrus.Logger
}

// OpenPlayback loads a playback file; names ending in .gz are decompressed
func OpenPlayback(path string, opts PlaybackOptions, logger *logrus.Logger) (*Playback, error) {
	format, err := playbackFormat(path, opts.Format)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open playback file: %w", err)
	}
	defer file.Close()

	var r io.Reader = file
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	var records []Record
	if format == FormatBeast {
		records, err = ParseBeast(r, logger)
	} else {
		records, err = ParsePlayback(r)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	logger.WithFields(logrus.Fields{
		"path":    path,
		"format":  format,
		"records": len(records),
		"repeat":  opts.Repeat,
		"rate":    opts.Rate,
		"delay":   opts.RestartDelay,
	}).Info("Loaded playback file")

	return NewPlayback(records, opts, logger), nil
}

// NewPlayback replays records held in memory
func NewPlayback(records []Record, opts PlaybackOptions, logger *logrus.Logger) *Playback {
	p := &Playback{
		records: records,
		opts:    opts,
		logger:  logger,
	}
	if opts.Rate > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(opts.Rate), 1)
	}
	return p
}

// ParsePlayback reads "<timestamp> <bits>" lines. Lines starting with '#'
// and blank lines are skipped; a line holding only bits gets timestamp 0.
func ParsePlayback(r io.Reader) ([]Record, error) {
	var records []Record
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Fields(line)
		var rec Record
		switch len(parts) {
		case 1:
			rec.Bits = parts[0]
		case 2:
			ts, err := strconv.ParseInt(parts[0], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid timestamp %q: %w", lineNo, parts[0], err)
			}
			rec.Timestamp = ts
			rec.Bits = parts[1]
		default:
			return nil, fmt.Errorf("line %d: expected \"<timestamp> <bits>\", got %d fields", lineNo, len(parts))
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read playback: %w", err)
	}
	return records, nil
}

// WritePlayback formats records in the playback file format
func WritePlayback(w io.Writer, records []Record) error {
	for _, rec := range records {
		if _, err := fmt.Fprintf(w, "%d %s\n", rec.Timestamp, rec.Bits); err != nil {
			return err
		}
	}
	return nil
}

// NextBatch returns the samples of the next recorded frame, io.EOF once
// the recording is exhausted
func (p *Playback) NextBatch(ctx context.Context) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.next >= len(p.records) {
		if !p.opts.Repeat || len(p.records) == 0 {
			return nil, io.EOF
		}
		p.logger.Debug("Restarting playback")
		p.next = 0
		p.delayed = false
	}

	if p.next == 0 && !p.delayed {
		if err := p.wait(ctx); err != nil {
			return nil, err
		}
		p.delayed = true
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	rec := p.records[p.next]
	p.next++
	return adsb.Modulate(rec.Bits), nil
}

func (p *Playback) wait(ctx context.Context) error {
	if p.opts.RestartDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(p.opts.RestartDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Close is a no-op; the file is read fully when opened
func (p *Playback) Close() error {
	return nil
}

var _ Source = (*Playback)(nil)
