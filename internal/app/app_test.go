package app

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airport522/internal/adsb"
	"airport522/internal/config"
	"airport522/internal/source"
	"airport522/internal/tracking"
)

const (
	identFrameHex   = "8D4840D6202CC371C32CE0576098"
	evenPosFrameHex = "8D40621D58C382D690C8AC2863A7"
)

func hexToBits(t *testing.T, h string) string {
	t.Helper()
	raw, err := hex.DecodeString(h)
	require.NoError(t, err)
	var b strings.Builder
	for _, c := range raw {
		fmt.Fprintf(&b, "%08b", c)
	}
	return b.String()
}

func flipLastBit(bits string) string {
	last := "1"
	if bits[len(bits)-1] == '1' {
		last = "0"
	}
	return bits[:len(bits)-1] + last
}

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestConfig(t *testing.T, overrides map[string]interface{}) *config.Config {
	t.Helper()
	v := config.New()
	v.Set("reference", "52.258,3.918")
	v.Set("output.table_interval", "0s")
	for k, val := range overrides {
		v.Set(k, val)
	}
	cfg, err := config.Load(v)
	require.NoError(t, err)
	return cfg
}

// fakeSource serves fixed batches, then blocks, fails, or ends
type fakeSource struct {
	batches [][]float64
	err     error
	block   bool
	closed  bool
}

func (f *fakeSource) NextBatch(ctx context.Context) ([]float64, error) {
	if len(f.batches) > 0 {
		b := f.batches[0]
		f.batches = f.batches[1:]
		return b, nil
	}
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return nil, io.EOF
}

func (f *fakeSource) Close() error {
	f.closed = true
	return nil
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func TestRunPlayback(t *testing.T) {
	cfg := newTestConfig(t, nil)
	records := []source.Record{
		{Timestamp: 1, Bits: hexToBits(t, identFrameHex)},
		{Timestamp: 2, Bits: hexToBits(t, evenPosFrameHex)},
		{Timestamp: 3, Bits: flipLastBit(hexToBits(t, identFrameHex))},
	}
	playback := source.NewPlayback(records, source.PlaybackOptions{}, newTestLogger())

	var out bytes.Buffer
	app := NewApplication(cfg, newTestLogger(), WithSource(playback), WithOutput(&out))
	require.NoError(t, app.Run(context.Background()))

	assert.Equal(t, 2, app.table.Len())

	klm, ok := app.table.Get(tracking.ICAO("4840D6"))
	require.True(t, ok)
	id, ok := klm.Field(adsb.FieldIdentification)
	require.True(t, ok)
	assert.Equal(t, "KLM1023", id.Value())

	pos, ok := app.table.Get(tracking.ICAO("40621d"))
	require.True(t, ok)
	lat, ok := pos.Field(adsb.FieldLatitude)
	require.True(t, ok)
	assert.InDelta(t, 52.2572021484375, lat.Value(), 1e-9)

	assert.Contains(t, out.String(), "ID: KLM1023")
	assert.Contains(t, out.String(), "Altitude: 38000 (ft)")

	stats := app.scanner.Stats()
	assert.Equal(t, uint64(3), stats.Preambles)
	assert.Equal(t, uint64(2), stats.ValidFrames)
	assert.Equal(t, uint64(1), stats.InvalidFrames)
}

func TestRunMergesMessagesForOneAircraft(t *testing.T) {
	const icao = 0x4840d6

	ident, err := adsb.EncodeIdentification(0, "KLM1023")
	require.NoError(t, err)
	identFrame, err := adsb.EncodeFrame(17, 5, icao, 4, ident)
	require.NoError(t, err)

	position := adsb.EncodePosition(38000, adsb.EncodeCPR(52.2572, 3.9194, false))
	posFrame, err := adsb.EncodeFrame(17, 5, icao, 11, position)
	require.NoError(t, err)

	cfg := newTestConfig(t, map[string]interface{}{"output.messages": false})
	src := &fakeSource{batches: [][]float64{adsb.Modulate(identFrame), adsb.Modulate(posFrame)}}

	app := NewApplication(cfg, newTestLogger(), WithSource(src), WithOutput(io.Discard))
	require.NoError(t, app.Run(context.Background()))

	require.Equal(t, 1, app.table.Len())
	ac, ok := app.table.Get(tracking.ICAO("4840d6"))
	require.True(t, ok)

	id, ok := ac.Field(adsb.FieldIdentification)
	require.True(t, ok)
	assert.Equal(t, "KLM1023", id.Value())

	lat, ok := ac.Field(adsb.FieldLatitude)
	require.True(t, ok)
	assert.InDelta(t, 52.2572, lat.Value(), 1e-3)
	lon, ok := ac.Field(adsb.FieldLongitude)
	require.True(t, ok)
	assert.InDelta(t, 3.9194, lon.Value(), 1e-3)
	alt, ok := ac.Field(adsb.FieldAltitude)
	require.True(t, ok)
	assert.Equal(t, 38000, alt.Value())
}

func TestRunPrintsFinalTable(t *testing.T) {
	cfg := newTestConfig(t, map[string]interface{}{
		"output.messages":       false,
		"output.table_interval": "1h",
	})
	src := &fakeSource{batches: [][]float64{adsb.Modulate(hexToBits(t, identFrameHex))}}

	var out bytes.Buffer
	app := NewApplication(cfg, newTestLogger(), WithSource(src), WithOutput(&out))
	require.NoError(t, app.Run(context.Background()))

	assert.Contains(t, out.String(), "Tracking 1 aircraft")
	assert.Contains(t, out.String(), "KLM1023")
	assert.NotContains(t, out.String(), "ID: KLM1023")
}

func TestRunRecordsMessages(t *testing.T) {
	dir := t.TempDir()
	cfg := newTestConfig(t, map[string]interface{}{
		"record.dir":     dir,
		"record.invalid": true,
	})
	ident := hexToBits(t, identFrameHex)
	corrupt := flipLastBit(ident)
	src := &fakeSource{batches: [][]float64{adsb.Modulate(ident), adsb.Modulate(corrupt)}}

	app := NewApplication(cfg, newTestLogger(), WithSource(src), WithOutput(io.Discard))
	require.NoError(t, app.Run(context.Background()))

	files, err := filepath.Glob(filepath.Join(dir, "messages_*.log"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	var content strings.Builder
	for _, f := range files {
		data, err := os.ReadFile(f)
		require.NoError(t, err)
		content.Write(data)
	}
	assert.Contains(t, content.String(), " "+ident+"\n")
	assert.Contains(t, content.String(), " "+corrupt+"\n")
}

func TestRunSourceFailure(t *testing.T) {
	cfg := newTestConfig(t, nil)
	src := &fakeSource{err: errors.New("usb transfer failed")}

	app := NewApplication(cfg, newTestLogger(), WithSource(src), WithOutput(io.Discard))
	err := app.Run(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, source.ErrUnavailable)
	assert.Contains(t, err.Error(), "usb transfer failed")
	assert.True(t, src.closed)
}

func TestRunCancelled(t *testing.T) {
	cfg := newTestConfig(t, nil)
	src := &fakeSource{
		batches: [][]float64{adsb.Modulate(hexToBits(t, identFrameHex))},
		block:   true,
	}

	ctx, cancel := context.WithCancel(context.Background())
	app := NewApplication(cfg, newTestLogger(), WithSource(src), WithOutput(io.Discard))

	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.True(t, src.closed)
}

func TestSweepEvictsStaleAircraft(t *testing.T) {
	cfg := newTestConfig(t, nil)
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}

	app := NewApplication(cfg, newTestLogger(),
		WithSource(&fakeSource{}), WithOutput(io.Discard), WithClock(clock.Now))
	require.NoError(t, app.initializeComponents())
	defer app.shutdown()

	app.handleMessage(adsb.NewMessage(hexToBits(t, identFrameHex), adsb.Reference{}))
	require.Equal(t, 1, app.table.Len())

	clock.now = clock.now.Add(cfg.Tracking.MaxAge)
	app.sweep()
	assert.Equal(t, 1, app.table.Len())

	clock.now = clock.now.Add(time.Second)
	app.sweep()
	assert.Equal(t, 0, app.table.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(app.metrics.Evictions))
	assert.Equal(t, 0.0, testutil.ToFloat64(app.metrics.TrackedAircraft))
}

func TestOpenLookup(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "aircraft.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("icao24,model,operator\n4840D6,Boeing 737-8K2,KLM\n"), 0644))

	tests := []struct {
		name      string
		overrides map[string]interface{}
	}{
		{"csv", map[string]interface{}{"metadata.csv": csvPath}},
		{"sqlite import", map[string]interface{}{
			"metadata.csv": csvPath,
			"metadata.db":  filepath.Join(dir, "aircraft.db"),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := NewApplication(newTestConfig(t, tt.overrides), newTestLogger())
			lookup, err := app.openLookup()
			require.NoError(t, err)
			defer app.shutdown()

			info := lookup.Lookup("4840d6")
			assert.Equal(t, "Boeing 737-8K2", info.Model)
			assert.Equal(t, "KLM", info.Operator)
			assert.Equal(t, "Unknown", lookup.Lookup("abcdef").Model)
		})
	}
}

func TestOpenSourcePlaybackMissing(t *testing.T) {
	cfg := newTestConfig(t, map[string]interface{}{
		"source.type":          config.SourcePlayback,
		"source.playback.path": filepath.Join(t.TempDir(), "missing.log"),
	})

	app := NewApplication(cfg, newTestLogger())
	err := app.Run(context.Background())
	assert.Error(t, err)
}

func TestShowVersion(t *testing.T) {
	var out bytes.Buffer
	ShowVersion(&out)
	assert.Contains(t, out.String(), "airport522")
	assert.Contains(t, out.String(), "Version: "+Version)
}
