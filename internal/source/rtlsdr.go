//go:build cgo

package source

import (
	"context"
	"fmt"
	"sync"

	rtlsdr "github.com/jpoirier/gortlsdr"
	"github.com/sirupsen/logrus"
)

// Buffer size constants for RTL-SDR data capture
const (
	BufferChunkSize = 16384
	bufferLen       = 16 * BufferChunkSize
	queueDepth      = 64
)

// RTLSDR streams amplitude samples from an RTL2832 dongle
type RTLSDR struct {
	device *rtlsdr.Context
	logger *logrus.Logger
	index  int
	data   chan []byte
	done   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
}

// NewRTLSDR opens and configures the device, then starts asynchronous capture
func NewRTLSDR(cfg RTLSDRConfig, logger *logrus.Logger) (*RTLSDR, error) {
	count := rtlsdr.GetDeviceCount()
	if count == 0 {
		return nil, fmt.Errorf("%w: no RTL-SDR devices found", ErrUnavailable)
	}
	if cfg.DeviceIndex >= count {
		return nil, fmt.Errorf("%w: device index %d out of range (0-%d)", ErrUnavailable, cfg.DeviceIndex, count-1)
	}

	device, err := rtlsdr.Open(cfg.DeviceIndex)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open device: %v", ErrUnavailable, err)
	}

	r := &RTLSDR{
		device: device,
		logger: logger,
		index:  cfg.DeviceIndex,
		data:   make(chan []byte, queueDepth),
		done:   make(chan struct{}),
	}
	if err := r.configure(cfg); err != nil {
		device.Close()
		return nil, err
	}

	r.wg.Add(1)
	go r.capture()
	return r, nil
}

func (r *RTLSDR) configure(cfg RTLSDRConfig) error {
	if err := r.device.SetCenterFreq(int(cfg.Frequency)); err != nil {
		return fmt.Errorf("failed to set frequency: %w", err)
	}
	if err := r.device.SetSampleRate(int(cfg.SampleRate)); err != nil {
		return fmt.Errorf("failed to set sample rate: %w", err)
	}

	if cfg.Gain == 0 {
		if err := r.device.SetTunerGainMode(false); err != nil {
			return fmt.Errorf("failed to set auto gain: %w", err)
		}
	} else {
		if err := r.device.SetTunerGainMode(true); err != nil {
			return fmt.Errorf("failed to set manual gain mode: %w", err)
		}
		// tenths of dB
		if err := r.device.SetTunerGain(cfg.Gain * 10); err != nil {
			return fmt.Errorf("failed to set gain: %w", err)
		}
	}

	if err := r.device.ResetBuffer(); err != nil {
		return fmt.Errorf("failed to reset buffer: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"device_index": cfg.DeviceIndex,
		"frequency":    cfg.Frequency,
		"sample_rate":  cfg.SampleRate,
		"gain":         cfg.Gain,
	}).Info("RTL-SDR device configured successfully")
	return nil
}

// capture runs the blocking async read; buffers are dropped rather than
// stalling the dongle when the consumer falls behind
func (r *RTLSDR) capture() {
	defer r.wg.Done()
	defer close(r.data)
	defer func() {
		if panicData := recover(); panicData != nil {
			r.logger.WithField("panic", panicData).Error("RTL-SDR capture panic")
		}
	}()

	callback := func(buf []byte) {
		chunk := make([]byte, len(buf))
		copy(chunk, buf)
		select {
		case r.data <- chunk:
		case <-r.done:
		default:
			r.logger.Debug("Dropping data, channel full")
		}
	}

	r.logger.Info("Starting RTL-SDR capture")
	if err := r.device.ReadAsync(callback, nil, 0, bufferLen); err != nil {
		r.logger.WithError(err).Error("RTL-SDR read async failed")
	}
}

// NextBatch returns the next captured buffer as amplitudes
func (r *RTLSDR) NextBatch(ctx context.Context) ([]float64, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case chunk, ok := <-r.data:
		if !ok {
			return nil, fmt.Errorf("%w: capture stopped", ErrUnavailable)
		}
		return IQToAmplitude(chunk), nil
	}
}

// Close stops capture and closes the device
func (r *RTLSDR) Close() error {
	var err error
	r.once.Do(func() {
		close(r.done)
		if cerr := r.device.CancelAsync(); cerr != nil {
			r.logger.WithError(cerr).Error("Failed to cancel async reading")
		}
		r.wg.Wait()
		if cerr := r.device.Close(); cerr != nil {
			err = fmt.Errorf("failed to close device: %w", cerr)
			return
		}
		r.logger.WithField("device_index", r.index).Info("RTL-SDR device closed")
	})
	return err
}

var _ Source = (*RTLSDR)(nil)
