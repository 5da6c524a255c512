package source

import (
	"context"
	"errors"
	"math/cmplx"
)

// ErrUnavailable is returned when a sample source cannot be opened or stops delivering
var ErrUnavailable = errors.New("sample source unavailable")

// Source produces batches of non-negative amplitude samples at two samples
// per microsecond. NextBatch blocks until a batch is ready, ctx is done, or
// the source ends (io.EOF).
type Source interface {
	NextBatch(ctx context.Context) ([]float64, error)
	Close() error
}

// IQToAmplitude converts interleaved unsigned 8-bit I/Q bytes to magnitudes
func IQToAmplitude(data []byte) []float64 {
	out := make([]float64, len(data)/2)
	for i := range out {
		iSample := float64(data[2*i]) - 127.5
		qSample := float64(data[2*i+1]) - 127.5
		out[i] = cmplx.Abs(complex(iSample, qSample))
	}
	return out
}
