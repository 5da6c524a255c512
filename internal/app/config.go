package app

import (
	"airport522/internal/adsb"
	"airport522/internal/config"
	"airport522/internal/logging"
	"airport522/internal/source"
	"airport522/internal/tracking"
)

// Channel sizes between the pipeline stages
const (
	sampleQueueSize  = 100
	messageQueueSize = 1000
)

func scannerConfig(cfg *config.Config) adsb.ScannerConfig {
	return adsb.ScannerConfig{
		BufferThreshold: cfg.Scanner.BufferThreshold,
		NoiseFactor:     cfg.Scanner.NoiseFactor,
		Reference: adsb.Reference{
			Lat: cfg.Reference.Lat,
			Lon: cfg.Reference.Lon,
		},
	}
}

func trackingOptions(cfg *config.Config) tracking.Options {
	return tracking.Options{
		Capacity:      cfg.Tracking.Capacity,
		PruneFraction: cfg.Tracking.PruneFraction,
	}
}

func rtlsdrConfig(cfg *config.Config) source.RTLSDRConfig {
	return source.RTLSDRConfig{
		DeviceIndex: cfg.RTLSDR.Device,
		Frequency:   cfg.RTLSDR.Frequency,
		SampleRate:  cfg.RTLSDR.SampleRate,
		Gain:        cfg.RTLSDR.Gain,
	}
}

func playbackOptions(cfg *config.Config) source.PlaybackOptions {
	return source.PlaybackOptions{
		Repeat:       cfg.Source.Playback.Repeat,
		Rate:         cfg.Source.Playback.Rate,
		Format:       cfg.Source.Playback.Format,
		RestartDelay: cfg.Source.Playback.RestartDelay,
	}
}

func recorderOptions(cfg *config.Config) logging.RecorderOptions {
	return logging.RecorderOptions{
		UTC:            cfg.Record.UTC,
		IncludeInvalid: cfg.Record.Invalid,
		MaxDays:        cfg.Record.MaxDays,
		Format:         cfg.Record.Format,
	}
}
