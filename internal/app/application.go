package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"airport522/internal/adsb"
	"airport522/internal/config"
	"airport522/internal/logging"
	"airport522/internal/metadata"
	"airport522/internal/metrics"
	"airport522/internal/render"
	"airport522/internal/source"
	"airport522/internal/tracking"
)

// statsInterval is how often processing statistics are logged
const statsInterval = 30 * time.Second

// Option customizes an Application
type Option func(*Application)

// WithSource replaces the configured sample source
func WithSource(src source.Source) Option {
	return func(app *Application) { app.source = src }
}

// WithOutput redirects printed messages and tables
func WithOutput(w io.Writer) Option {
	return func(app *Application) { app.out = w }
}

// WithLookup replaces the configured metadata lookup
func WithLookup(lookup metadata.Lookup) Option {
	return func(app *Application) { app.lookup = lookup }
}

// WithClock overrides the clock used for tracking and sweeps
func WithClock(now func() time.Time) Option {
	return func(app *Application) { app.now = now }
}

// Application wires a sample source through the scanner into the aircraft table
type Application struct {
	config   *config.Config
	logger   *logrus.Logger
	source   source.Source
	lookup   metadata.Lookup
	scanner  *adsb.Scanner
	table    *tracking.Table
	recorder *logging.Recorder
	metrics  *metrics.Metrics
	out      io.Writer
	now      func() time.Time
	closers  []io.Closer
	wg       sync.WaitGroup
}

// NewApplication creates a new application instance
func NewApplication(cfg *config.Config, logger *logrus.Logger, opts ...Option) *Application {
	app := &Application{
		config: cfg,
		logger: logger,
		out:    os.Stdout,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(app)
	}
	return app
}

// Start runs the application until SIGINT/SIGTERM or the source ends
func (app *Application) Start() error {
	app.logger.WithFields(logrus.Fields{
		"version":    Version,
		"build_time": BuildTime,
		"git_commit": GitCommit,
	}).Info("Starting airport522")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		app.logger.WithError(err).Error("Application error")
		return err
	}
	return nil
}

// Run processes samples until ctx is cancelled or the source is exhausted.
// A source failure other than io.EOF is returned.
func (app *Application) Run(ctx context.Context) error {
	defer app.shutdown()
	if err := app.initializeComponents(); err != nil {
		return fmt.Errorf("failed to initialize components: %w", err)
	}

	// aux stops the helpers once the pipeline has drained
	aux, stopAux := context.WithCancel(ctx)
	defer stopAux()

	samples := make(chan []float64, sampleQueueSize)
	messages := make(chan *adsb.Message, messageQueueSize)
	sourceErr := make(chan error, 1)

	var pipeline sync.WaitGroup
	pipeline.Add(3)
	go func() {
		defer pipeline.Done()
		if err := app.produce(ctx, samples); err != nil {
			sourceErr <- err
		}
	}()
	go func() {
		defer pipeline.Done()
		app.decode(samples, messages)
	}()
	go func() {
		defer pipeline.Done()
		app.consume(messages)
	}()

	app.startHelpers(aux)
	app.logger.Info("All components started successfully")

	pipeline.Wait()
	stopAux()
	app.wg.Wait()

	if app.config.Output.TableInterval > 0 {
		fmt.Fprintln(app.out, render.AircraftTable(app.table.Snapshot(), app.now()))
	}

	select {
	case err := <-sourceErr:
		return err
	default:
		return nil
	}
}

// initializeComponents initializes all application components
func (app *Application) initializeComponents() error {
	if app.lookup == nil {
		lookup, err := app.openLookup()
		if err != nil {
			return err
		}
		app.lookup = lookup
	}

	if app.source == nil {
		src, err := app.openSource()
		if err != nil {
			return err
		}
		app.source = src
	}
	app.closers = append(app.closers, app.source)

	app.scanner = adsb.NewScanner(scannerConfig(app.config), app.logger)

	opts := trackingOptions(app.config)
	opts.Now = app.now
	app.table = tracking.NewTable(app.lookup, opts, app.logger)

	app.metrics = metrics.New()
	app.metrics.RegisterScanner(app.scanner.Stats)

	if app.config.Record.Dir != "" {
		recOpts := recorderOptions(app.config)
		recorder, err := logging.NewRecorder(app.config.Record.Dir, recOpts, app.logger)
		if err != nil {
			return fmt.Errorf("failed to initialize recorder: %w", err)
		}
		app.recorder = recorder
		app.closers = append(app.closers, recorder)
	}

	return nil
}

// openLookup builds the metadata lookup. A database takes precedence over a
// bare CSV file; a CSV given alongside an empty database is imported into it.
func (app *Application) openLookup() (metadata.Lookup, error) {
	cfg := app.config.Metadata

	var backend metadata.Lookup
	switch {
	case cfg.DB != "":
		store, err := metadata.OpenSQLite(cfg.DB, app.logger)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, store)

		populated, err := store.IsPopulated()
		if err != nil {
			return nil, err
		}
		if !populated && cfg.CSV != "" {
			records, err := metadata.ReadCSVFile(cfg.CSV)
			if err != nil {
				return nil, err
			}
			if err := store.Import(records); err != nil {
				return nil, err
			}
			app.logger.WithFields(logrus.Fields{
				"db":      cfg.DB,
				"records": len(records),
			}).Info("Imported aircraft database")
		}
		backend = store

	case cfg.CSV != "":
		table, err := metadata.LoadCSV(cfg.CSV)
		if err != nil {
			return nil, err
		}
		app.logger.WithFields(logrus.Fields{
			"csv":     cfg.CSV,
			"records": table.Len(),
		}).Info("Loaded aircraft database")
		backend = table

	default:
		return metadata.Nop{}, nil
	}

	return metadata.NewCached(backend, cfg.CacheTTL), nil
}

func (app *Application) openSource() (source.Source, error) {
	switch app.config.Source.Type {
	case config.SourcePlayback:
		return source.OpenPlayback(app.config.Source.Playback.Path, playbackOptions(app.config), app.logger)
	default:
		return source.NewRTLSDR(rtlsdrConfig(app.config), app.logger)
	}
}

// startHelpers launches the goroutines that live alongside the pipeline
func (app *Application) startHelpers(ctx context.Context) {
	if app.recorder != nil {
		app.wg.Add(1)
		go func() {
			defer app.wg.Done()
			app.recorder.Start(ctx)
		}()
	}

	if addr := app.config.Metrics.Addr; addr != "" {
		app.wg.Add(1)
		go func() {
			defer app.wg.Done()
			if err := app.metrics.Serve(ctx, addr, app.logger); err != nil {
				app.logger.WithError(err).Error("Metrics server failed")
			}
		}()
	}

	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		app.reportStatistics(ctx)
	}()
}

// produce pulls batches from the source until it ends or ctx is cancelled
func (app *Application) produce(ctx context.Context, samples chan<- []float64) error {
	defer close(samples)

	for {
		batch, err := app.source.NextBatch(ctx)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				app.logger.Info("Sample source exhausted")
				return nil
			case ctx.Err() != nil:
				return nil
			case errors.Is(err, source.ErrUnavailable):
				return err
			default:
				return fmt.Errorf("%w: %w", source.ErrUnavailable, err)
			}
		}

		select {
		case samples <- batch:
		case <-ctx.Done():
			return nil
		}
	}
}

// decode feeds batches to the scanner and forwards messages in order.
// Whatever is still buffered is scanned once the sample channel closes.
func (app *Application) decode(samples <-chan []float64, messages chan<- *adsb.Message) {
	defer close(messages)

	for batch := range samples {
		start := time.Now()
		msgs := app.scanner.Feed(batch)
		if msgs != nil {
			app.metrics.BatchDuration.Observe(time.Since(start).Seconds())
		}
		for _, msg := range msgs {
			messages <- msg
		}
	}

	for _, msg := range app.scanner.Flush() {
		messages <- msg
	}
}

// consume is the only writer of the aircraft table. It drains messages
// until the channel closes.
func (app *Application) consume(messages <-chan *adsb.Message) {
	sweep := time.NewTicker(app.config.Tracking.SweepInterval)
	defer sweep.Stop()

	var tableTick <-chan time.Time
	if interval := app.config.Output.TableInterval; interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tableTick = ticker.C
	}

	for {
		select {
		case msg, ok := <-messages:
			if !ok {
				return
			}
			app.handleMessage(msg)
		case <-sweep.C:
			app.sweep()
		case <-tableTick:
			fmt.Fprintln(app.out, render.AircraftTable(app.table.Snapshot(), app.now()))
		}
	}
}

// handleMessage records, tracks and prints one decoded message
func (app *Application) handleMessage(msg *adsb.Message) {
	app.metrics.ObserveMessage(msg)

	if app.recorder != nil {
		if err := app.recorder.Record(msg); err != nil {
			app.metrics.RecordErrors.Inc()
			app.logger.WithError(err).Warn("Failed to record message")
		}
	}

	if !msg.Valid() {
		app.logger.WithField("bits", msg.Bits()).Debug("Discarding invalid frame")
		return
	}

	if _, created := app.table.UpsertMessage(msg); created {
		app.metrics.TrackedAircraft.Set(float64(app.table.Len()))
	}

	if app.config.Output.Messages {
		fmt.Fprintln(app.out, render.Message(msg, app.config.Output.Width))
	}
}

// sweep evicts aircraft that have not been heard from within MaxAge
func (app *Application) sweep() {
	evicted := app.table.EvictStale(app.now(), app.config.Tracking.MaxAge)
	if len(evicted) > 0 {
		app.metrics.Evictions.Add(float64(len(evicted)))
		app.logger.WithFields(logrus.Fields{
			"count":    len(evicted),
			"aircraft": evicted,
		}).Debug("Evicted stale aircraft")
	}
	app.metrics.TrackedAircraft.Set(float64(app.table.Len()))
}

// reportStatistics reports processing statistics periodically
func (app *Application) reportStatistics(ctx context.Context) {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			app.logStatistics()
		}
	}
}

func (app *Application) logStatistics() {
	stats := app.scanner.Stats()
	successRate := 0.0
	if stats.Preambles > 0 {
		successRate = float64(stats.ValidFrames) / float64(stats.Preambles) * 100
	}
	app.logger.WithFields(logrus.Fields{
		"samples":        stats.Samples,
		"preambles":      stats.Preambles,
		"valid_frames":   stats.ValidFrames,
		"invalid_frames": stats.InvalidFrames,
		"noise_floor":    fmt.Sprintf("%.4f", stats.NoiseFloor),
		"success_rate":   fmt.Sprintf("%.2f%%", successRate),
		"aircraft":       app.table.Len(),
	}).Info("Processing statistics")
}

// shutdown releases the source, recorder and database
func (app *Application) shutdown() {
	app.logger.Info("Shutting down application")
	if app.scanner != nil && app.table != nil {
		app.logStatistics()
	}

	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i].Close(); err != nil {
			app.logger.WithError(err).Warn("Failed to close component")
		}
	}
	app.closers = nil

	app.logger.Info("Shutdown completed")
}
