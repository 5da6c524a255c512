package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Source types
const (
	SourceRTLSDR   = "rtlsdr"
	SourcePlayback = "playback"
)

// EnvPrefix prefixes environment overrides, e.g. AIRPORT522_LOG_LEVEL
const EnvPrefix = "AIRPORT522"

// Config holds all configuration for the decoder
type Config struct {
	Source    SourceConfig
	RTLSDR    RTLSDRConfig
	Reference ReferenceConfig
	Scanner   ScannerConfig
	Tracking  TrackingConfig
	Metadata  MetadataConfig
	Record    RecordConfig
	Metrics   MetricsConfig
	Output    OutputConfig
	Log       LogConfig
}

// SourceConfig selects where samples come from
type SourceConfig struct {
	Type     string
	Playback PlaybackConfig
}

// PlaybackConfig describes file replay
type PlaybackConfig struct {
	Path         string
	Repeat       bool
	Rate         float64
	Format       string
	RestartDelay time.Duration
}

// RTLSDRConfig tunes the receiver
type RTLSDRConfig struct {
	Device     int
	Frequency  uint32
	SampleRate uint32
	Gain       int
}

// ReferenceConfig is the receiver location used to resolve positions
type ReferenceConfig struct {
	Lat float64
	Lon float64
}

// ScannerConfig tunes frame detection
type ScannerConfig struct {
	BufferThreshold int
	NoiseFactor     float64
}

// TrackingConfig bounds the aircraft table
type TrackingConfig struct {
	MaxAge        time.Duration
	SweepInterval time.Duration
	Capacity      int
	PruneFraction float64
}

// MetadataConfig locates the aircraft database
type MetadataConfig struct {
	CSV      string
	DB       string
	CacheTTL time.Duration
}

// RecordConfig controls the message recording
type RecordConfig struct {
	Dir     string
	Invalid bool
	UTC     bool
	MaxDays int
	Format  string
}

// MetricsConfig controls the Prometheus endpoint; an empty address disables it
type MetricsConfig struct {
	Addr string
}

// OutputConfig controls terminal output
type OutputConfig struct {
	Messages      bool
	TableInterval time.Duration
	Width         int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
}

// New returns a viper instance with defaults and environment overrides set
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("source.type", SourceRTLSDR)
	v.SetDefault("source.playback.path", "")
	v.SetDefault("source.playback.repeat", false)
	v.SetDefault("source.playback.rate", 0.0)
	v.SetDefault("source.playback.format", "auto")
	v.SetDefault("source.playback.restart_delay", time.Duration(0))

	v.SetDefault("rtlsdr.device", 0)
	v.SetDefault("rtlsdr.frequency", 1090000000)
	v.SetDefault("rtlsdr.sample_rate", 2000000)
	v.SetDefault("rtlsdr.gain", 0)

	v.SetDefault("reference", "")

	v.SetDefault("scanner.buffer_threshold", 1024*200)
	v.SetDefault("scanner.noise_factor", 3.162)

	v.SetDefault("tracking.max_age", 180*time.Second)
	v.SetDefault("tracking.sweep_interval", 10*time.Second)
	v.SetDefault("tracking.capacity", 1000)
	v.SetDefault("tracking.prune_fraction", 0.25)

	v.SetDefault("metadata.csv", "")
	v.SetDefault("metadata.db", "")
	v.SetDefault("metadata.cache_ttl", 10*time.Minute)

	v.SetDefault("record.dir", "")
	v.SetDefault("record.invalid", false)
	v.SetDefault("record.utc", true)
	v.SetDefault("record.max_days", 0)
	v.SetDefault("record.format", "text")

	v.SetDefault("metrics.addr", "")

	v.SetDefault("output.messages", true)
	v.SetDefault("output.table_interval", 5*time.Second)
	v.SetDefault("output.width", 100)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// ReadFile merges a YAML config file into v. An empty path searches
// ./airport522.yaml and /etc/airport522/ and tolerates a missing file.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("airport522")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/airport522")
		v.AddConfigPath(".")
		if envPath := os.Getenv(EnvPrefix + "_CONFIG_PATH"); envPath != "" {
			v.SetConfigFile(envPath)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

// Load builds and validates a Config from v
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Source: SourceConfig{
			Type: strings.ToLower(v.GetString("source.type")),
			Playback: PlaybackConfig{
				Path:         v.GetString("source.playback.path"),
				Repeat:       v.GetBool("source.playback.repeat"),
				Rate:         v.GetFloat64("source.playback.rate"),
				Format:       strings.ToLower(v.GetString("source.playback.format")),
				RestartDelay: v.GetDuration("source.playback.restart_delay"),
			},
		},
		RTLSDR: RTLSDRConfig{
			Device:     v.GetInt("rtlsdr.device"),
			Frequency:  v.GetUint32("rtlsdr.frequency"),
			SampleRate: v.GetUint32("rtlsdr.sample_rate"),
			Gain:       v.GetInt("rtlsdr.gain"),
		},
		Scanner: ScannerConfig{
			BufferThreshold: v.GetInt("scanner.buffer_threshold"),
			NoiseFactor:     v.GetFloat64("scanner.noise_factor"),
		},
		Tracking: TrackingConfig{
			MaxAge:        v.GetDuration("tracking.max_age"),
			SweepInterval: v.GetDuration("tracking.sweep_interval"),
			Capacity:      v.GetInt("tracking.capacity"),
			PruneFraction: v.GetFloat64("tracking.prune_fraction"),
		},
		Metadata: MetadataConfig{
			CSV:      v.GetString("metadata.csv"),
			DB:       v.GetString("metadata.db"),
			CacheTTL: v.GetDuration("metadata.cache_ttl"),
		},
		Record: RecordConfig{
			Dir:     v.GetString("record.dir"),
			Invalid: v.GetBool("record.invalid"),
			UTC:     v.GetBool("record.utc"),
			MaxDays: v.GetInt("record.max_days"),
			Format:  strings.ToLower(v.GetString("record.format")),
		},
		Metrics: MetricsConfig{
			Addr: v.GetString("metrics.addr"),
		},
		Output: OutputConfig{
			Messages:      v.GetBool("output.messages"),
			TableInterval: v.GetDuration("output.table_interval"),
			Width:         v.GetInt("output.width"),
		},
		Log: LogConfig{
			Level:  strings.ToLower(v.GetString("log.level")),
			Format: strings.ToLower(v.GetString("log.format")),
		},
	}

	ref, err := ParseCoords(v.GetString("reference"))
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	cfg.Reference = ref

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ParseCoords parses "lat,lon"
func ParseCoords(s string) (ReferenceConfig, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ReferenceConfig{}, errors.New("reference coordinates are required (lat,lon within ~300 km of the receiver)")
	}

	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return ReferenceConfig{}, fmt.Errorf("reference %q must be formatted as lat,lon", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return ReferenceConfig{}, fmt.Errorf("invalid reference latitude %q: %w", parts[0], err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return ReferenceConfig{}, fmt.Errorf("invalid reference longitude %q: %w", parts[1], err)
	}

	if lat < -90 || lat > 90 {
		return ReferenceConfig{}, fmt.Errorf("reference latitude %v out of range", lat)
	}
	if lon < -180 || lon > 180 {
		return ReferenceConfig{}, fmt.Errorf("reference longitude %v out of range", lon)
	}
	return ReferenceConfig{Lat: lat, Lon: lon}, nil
}

// validate validates the configuration values
func validate(cfg *Config) error {
	switch cfg.Source.Type {
	case SourceRTLSDR:
	case SourcePlayback:
		if cfg.Source.Playback.Path == "" {
			return errors.New("source.playback.path is required for playback")
		}
		if cfg.Source.Playback.Rate < 0 {
			return errors.New("source.playback.rate must not be negative")
		}
	default:
		return fmt.Errorf("invalid source type: %s (must be %s or %s)", cfg.Source.Type, SourceRTLSDR, SourcePlayback)
	}

	switch cfg.Source.Playback.Format {
	case "auto", "text", "beast":
	default:
		return fmt.Errorf("invalid playback format: %s (must be auto, text, or beast)", cfg.Source.Playback.Format)
	}
	if cfg.Source.Playback.RestartDelay < 0 {
		return errors.New("source.playback.restart_delay must not be negative")
	}

	if cfg.Scanner.BufferThreshold <= 0 {
		return errors.New("scanner.buffer_threshold must be greater than 0")
	}
	if cfg.Scanner.NoiseFactor <= 0 {
		return errors.New("scanner.noise_factor must be greater than 0")
	}

	if cfg.Tracking.MaxAge <= 0 {
		return errors.New("tracking.max_age must be greater than 0")
	}
	if cfg.Tracking.SweepInterval <= 0 {
		return errors.New("tracking.sweep_interval must be greater than 0")
	}
	if cfg.Tracking.Capacity <= 0 {
		return errors.New("tracking.capacity must be greater than 0")
	}
	if cfg.Tracking.PruneFraction <= 0 || cfg.Tracking.PruneFraction > 1 {
		return errors.New("tracking.prune_fraction must be in (0, 1]")
	}

	if cfg.Metadata.CacheTTL <= 0 {
		return errors.New("metadata.cache_ttl must be greater than 0")
	}
	if cfg.Record.MaxDays < 0 {
		return errors.New("record.max_days must not be negative")
	}
	if cfg.Record.Format != "text" && cfg.Record.Format != "beast" {
		return fmt.Errorf("invalid record format: %s (must be text or beast)", cfg.Record.Format)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[cfg.Log.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", cfg.Log.Level)
	}

	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[cfg.Log.Format] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", cfg.Log.Format)
	}

	return nil
}
