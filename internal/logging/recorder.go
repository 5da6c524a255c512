package logging

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"airport522/internal/adsb"
	"airport522/internal/source"
)

const (
	recordPrefix = "messages_"
	dateLayout   = "2006-01-02"
)

// RecorderOptions configure a Recorder
type RecorderOptions struct {
	UTC bool
	// IncludeInvalid also records frames that failed the CRC
	IncludeInvalid bool
	// MaxDays removes recordings older than this many days on rotation; zero keeps everything
	MaxDays int
	// Format is source.FormatText (default) or source.FormatBeast
	Format string
	// Now overrides the clock, mainly for tests
	Now func() time.Time
}

// Recorder writes decoded frames in a playback format to one file per
// day, compressing each day's file with gzip once the date rolls over
type Recorder struct {
	dir         string
	opts        RecorderOptions
	logger      *logrus.Logger
	currentFile *os.File
	currentDate string
	mutex       sync.Mutex
	compressing sync.WaitGroup
}

// NewRecorder creates the directory if needed and opens today's file
func NewRecorder(dir string, opts RecorderOptions, logger *logrus.Logger) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create record directory: %w", err)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	switch opts.Format {
	case "":
		opts.Format = source.FormatText
	case source.FormatText, source.FormatBeast:
	default:
		return nil, fmt.Errorf("unknown record format %q", opts.Format)
	}

	r := &Recorder{
		dir:    dir,
		opts:   opts,
		logger: logger,
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	if err := r.rotateLocked(r.today()); err != nil {
		return nil, fmt.Errorf("failed to initialize record file: %w", err)
	}
	return r, nil
}

func (r *Recorder) now() time.Time {
	if r.opts.UTC {
		return r.opts.Now().UTC()
	}
	return r.opts.Now()
}

func (r *Recorder) today() string {
	return r.now().Format(dateLayout)
}

// Start checks for a date change every minute until ctx is done
func (r *Recorder) Start(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.CheckRotation(); err != nil {
				r.logger.WithError(err).Error("Failed to rotate record file")
			}
		}
	}
}

// CheckRotation switches to a new file when the date has changed
func (r *Recorder) CheckRotation() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.checkRotationLocked()
}

func (r *Recorder) checkRotationLocked() error {
	date := r.today()
	if date == r.currentDate {
		return nil
	}

	r.logger.WithFields(logrus.Fields{
		"old_date": r.currentDate,
		"new_date": date,
	}).Info("Rotating record file")
	return r.rotateLocked(date)
}

func (r *Recorder) rotateLocked(date string) error {
	if r.currentFile != nil {
		oldDate := r.currentDate
		if err := r.currentFile.Close(); err != nil {
			r.logger.WithError(err).Error("Failed to close old record file")
		}
		r.currentFile = nil

		r.compressing.Add(1)
		go func() {
			defer r.compressing.Done()
			r.compress(oldDate)
			if r.opts.MaxDays > 0 {
				if err := r.Cleanup(r.opts.MaxDays); err != nil {
					r.logger.WithError(err).Warn("Failed to clean up old recordings")
				}
			}
		}()
	}

	path := r.pathFor(date)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to create record file %s: %w", path, err)
	}
	if info, err := file.Stat(); err == nil && info.Size() == 0 && r.opts.Format == source.FormatText {
		fmt.Fprintf(file, "# airport522 messages %s\n", date)
	}

	r.currentFile = file
	r.currentDate = date
	r.logger.WithField("file", path).Info("Created new record file")
	return nil
}

func (r *Recorder) pathFor(date string) string {
	return filepath.Join(r.dir, recordPrefix+date+r.extension())
}

func (r *Recorder) extension() string {
	if r.opts.Format == source.FormatBeast {
		return ".bin"
	}
	return ".log"
}

// Record appends msg to today's file. Text recordings carry Unix seconds;
// beast recordings carry seconds since the start of the file's day.
func (r *Recorder) Record(msg *adsb.Message) error {
	if !msg.Valid() && !r.opts.IncludeInvalid {
		return nil
	}
	// beast frames are always 112 bits
	if r.opts.Format == source.FormatBeast && len(msg.Bits()) != adsb.FrameBits {
		return nil
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.currentFile == nil {
		return fmt.Errorf("no current record file")
	}
	if err := r.checkRotationLocked(); err != nil {
		return err
	}

	now := r.now()
	var err error
	if r.opts.Format == source.FormatBeast {
		year, month, day := now.Date()
		midnight := time.Date(year, month, day, 0, 0, 0, 0, now.Location())
		rec := source.Record{Timestamp: int64(now.Sub(midnight) / time.Second), Bits: msg.Bits()}
		err = source.EncodeBeast(r.currentFile, []source.Record{rec}, 0)
	} else {
		err = source.WritePlayback(r.currentFile, []source.Record{{Timestamp: now.Unix(), Bits: msg.Bits()}})
	}
	if err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// compress gzips a closed day's file and removes the original
func (r *Recorder) compress(date string) {
	src := r.pathFor(date)
	dst := src + ".gz"

	in, err := os.Open(src)
	if err != nil {
		if !os.IsNotExist(err) {
			r.logger.WithError(err).WithField("file", src).Error("Failed to open record file for compression")
		}
		return
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		r.logger.WithError(err).WithField("file", dst).Error("Failed to create compressed file")
		return
	}
	defer out.Close()

	gz := gzip.NewWriter(out)
	gz.Name = filepath.Base(src)
	gz.ModTime = r.now()

	if _, err := io.Copy(gz, in); err != nil {
		r.logger.WithError(err).Error("Failed to compress record file")
		return
	}
	if err := gz.Close(); err != nil {
		r.logger.WithError(err).Error("Failed to close gzip writer")
		return
	}
	if err := out.Close(); err != nil {
		r.logger.WithError(err).Error("Failed to close compressed file")
		return
	}
	if err := os.Remove(src); err != nil {
		r.logger.WithError(err).WithField("file", src).Error("Failed to remove original record file")
		return
	}

	r.logger.WithField("file", dst).Info("Record file compressed successfully")
}

// CurrentFile returns the path being written
func (r *Recorder) CurrentFile() string {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.currentDate == "" {
		return ""
	}
	return r.pathFor(r.currentDate)
}

// Files lists all recordings, compressed or not
func (r *Recorder) Files() ([]string, error) {
	files, err := filepath.Glob(filepath.Join(r.dir, recordPrefix+"*"+r.extension()+"*"))
	if err != nil {
		return nil, fmt.Errorf("failed to list record files: %w", err)
	}
	return files, nil
}

// Cleanup removes recordings last modified more than maxDays ago
func (r *Recorder) Cleanup(maxDays int) error {
	if maxDays <= 0 {
		return fmt.Errorf("maxDays must be positive")
	}

	files, err := r.Files()
	if err != nil {
		return err
	}

	current := r.CurrentFile()
	cutoff := r.now().AddDate(0, 0, -maxDays)
	removed := 0
	for _, file := range files {
		if file == current {
			continue
		}
		info, err := os.Stat(file)
		if err != nil {
			r.logger.WithError(err).WithField("file", file).Warn("Failed to stat record file")
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(file); err != nil {
				r.logger.WithError(err).WithField("file", file).Error("Failed to remove old record file")
				continue
			}
			removed++
		}
	}

	r.logger.WithField("count", removed).Debug("Cleaned up old record files")
	return nil
}

// Close closes the current file and waits for pending compression
func (r *Recorder) Close() error {
	r.mutex.Lock()
	var err error
	if r.currentFile != nil {
		err = r.currentFile.Close()
		r.currentFile = nil
	}
	r.mutex.Unlock()

	r.compressing.Wait()
	if err != nil {
		return fmt.Errorf("failed to close record file: %w", err)
	}
	return nil
}
