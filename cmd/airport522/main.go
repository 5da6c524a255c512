package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"airport522/internal/app"
	"airport522/internal/config"
	"airport522/internal/logging"
)

// runFunc starts the decoder with a loaded configuration
type runFunc func(cmd *cobra.Command, cfg *config.Config, logger *logrus.Logger) error

func main() {
	if err := newRootCmd(runApplication).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runApplication(cmd *cobra.Command, cfg *config.Config, logger *logrus.Logger) error {
	application := app.NewApplication(cfg, logger, app.WithOutput(cmd.OutOrStdout()))
	return application.Start()
}

// flagKeys maps command line flags to configuration keys
var flagKeys = map[string]string{
	"input":          "source.playback.path",
	"repeat":         "source.playback.repeat",
	"rate":           "source.playback.rate",
	"format":         "source.playback.format",
	"restart-delay":  "source.playback.restart_delay",
	"coords":         "reference",
	"device":         "rtlsdr.device",
	"frequency":      "rtlsdr.frequency",
	"sample-rate":    "rtlsdr.sample_rate",
	"gain":           "rtlsdr.gain",
	"noise-factor":   "scanner.noise_factor",
	"max-age":        "tracking.max_age",
	"capacity":       "tracking.capacity",
	"csv":            "metadata.csv",
	"db":             "metadata.db",
	"record-dir":     "record.dir",
	"record-invalid": "record.invalid",
	"utc":            "record.utc",
	"max-days":       "record.max_days",
	"record-format":  "record.format",
	"metrics-addr":   "metrics.addr",
	"messages":       "output.messages",
	"table-interval": "output.table_interval",
	"width":          "output.width",
	"log-level":      "log.level",
	"log-format":     "log.format",
}

func newRootCmd(run runFunc) *cobra.Command {
	v := config.New()

	var (
		configFile  string
		verbose     bool
		showVersion bool
	)

	rootCmd := &cobra.Command{
		Use:   "airport522",
		Short: "Mode S / ADS-B decoder and aircraft tracker",
		Long: `Mode S / ADS-B decoder working on raw 1090 MHz amplitude samples.

Reads samples from an RTL-SDR (2 MHz, one amplitude per 0.5 us) or replays a
recording, detects preambles, validates the CRC-24 parity, decodes
identification, position and velocity messages and keeps a table of the
aircraft heard recently.

Example usage:
  airport522 -c 52.258,3.918
  airport522 -c 52.258,3.918 -i messages_2024-05-01.log.gz --rate 100
  airport522 --config /etc/airport522/airport522.yaml --metrics-addr :9522`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				app.ShowVersion(cmd.OutOrStdout())
				return nil
			}

			if err := config.ReadFile(v, configFile); err != nil {
				return err
			}
			if cmd.Flags().Changed("input") {
				v.Set("source.type", config.SourcePlayback)
			}
			if verbose {
				v.Set("log.level", "debug")
			}

			cfg, err := config.Load(v)
			if err != nil {
				return err
			}

			logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}
			return run(cmd, cfg, logger)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVar(&configFile, "config", "", "Config file (default ./airport522.yaml or /etc/airport522/airport522.yaml)")
	flags.StringP("input", "i", "", "Replay a recording instead of reading the RTL-SDR")
	flags.BoolP("repeat", "r", false, "Restart the recording when it ends")
	flags.Float64("rate", 0, "Replay at most this many messages per second (0 for unlimited)")
	flags.String("format", "auto", "Recording format: text, beast, or auto to choose by extension")
	flags.Duration("restart-delay", 0, "Wait this long before starting and before each repeat of a recording")
	flags.StringP("coords", "c", "", "Receiver reference position as lat,lon")
	flags.IntP("device", "d", 0, "RTL-SDR device index")
	flags.Uint32P("frequency", "f", 1090000000, "Frequency to tune to (Hz)")
	flags.Uint32P("sample-rate", "s", 2000000, "Sample rate (Hz)")
	flags.IntP("gain", "g", 0, "Tuner gain in dB (0 for auto)")
	flags.Float64("noise-factor", 3.162, "Detection threshold as a multiple of the noise floor")
	flags.Duration("max-age", 0, "Forget aircraft not heard from for this long (default 3m0s)")
	flags.Int("capacity", 0, "Maximum number of tracked aircraft (default 1000)")
	flags.String("csv", "", "Aircraft database CSV with icao24, model and operator columns")
	flags.String("db", "", "SQLite aircraft database, populated from --csv when empty")
	flags.StringP("record-dir", "o", "", "Record decoded messages to daily files in this directory")
	flags.Bool("record-invalid", false, "Also record frames that failed the CRC")
	flags.BoolP("utc", "u", true, "Use UTC for record file rotation")
	flags.Int("max-days", 0, "Remove recordings older than this many days (0 keeps all)")
	flags.String("record-format", "text", "Record file format (text, beast)")
	flags.String("metrics-addr", "", "Serve Prometheus metrics on this address")
	flags.Bool("messages", true, "Print every decoded message")
	flags.Duration("table-interval", 0, "Print the aircraft table at this interval (default 5s)")
	flags.Int("width", 100, "Wrap printed messages at this width")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-format", "text", "Log format (text, json)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Verbose logging (same as --log-level debug)")
	flags.BoolVar(&showVersion, "version", false, "Show version information")

	flags.VisitAll(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			bindFlag(v, key, f)
		}
	})

	return rootCmd
}

// bindFlag makes a flag given on the command line override key
func bindFlag(v *viper.Viper, key string, f *pflag.Flag) {
	if err := v.BindPFlag(key, f); err != nil {
		panic(fmt.Sprintf("failed to bind flag %s: %v", f.Name, err))
	}
}
