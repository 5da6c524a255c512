package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airport522/internal/adsb"
)

const identFrame = "1000110101001000010000001101011000100000001011001100001101110001110000110010110011100000010101110110000010011000"

func TestObserveMessage(t *testing.T) {
	m := New()

	m.ObserveMessage(adsb.NewMessage(identFrame, adsb.Reference{}))
	m.ObserveMessage(adsb.NewMessage(identFrame, adsb.Reference{}))
	m.ObserveMessage(adsb.NewMessage("1010", adsb.Reference{}))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Messages.WithLabelValues("Aircraft Identification")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Messages.WithLabelValues("invalid")))
}

func TestRegisterScanner(t *testing.T) {
	m := New()
	stats := adsb.ScannerStats{Samples: 1000, Preambles: 4, ValidFrames: 3, InvalidFrames: 1, NoiseFloor: 0.02}
	m.RegisterScanner(func() adsb.ScannerStats { return stats })

	expected := `
# HELP airport522_valid_frames_total Frames that passed the CRC check
# TYPE airport522_valid_frames_total counter
airport522_valid_frames_total 3
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "airport522_valid_frames_total"))

	stats.ValidFrames = 7
	expected = strings.Replace(expected, "total 3", "total 7", 1)
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "airport522_valid_frames_total"))
}

func TestHandler(t *testing.T) {
	m := New()
	m.TrackedAircraft.Set(12)
	m.Evictions.Add(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "airport522_tracked_aircraft 12")
	assert.Contains(t, body, "airport522_evicted_aircraft_total 3")
}
