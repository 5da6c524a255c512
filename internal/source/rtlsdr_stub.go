//go:build !cgo

package source

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// RTLSDR is unavailable in builds without cgo
type RTLSDR struct{}

// NewRTLSDR always fails without cgo
func NewRTLSDR(cfg RTLSDRConfig, logger *logrus.Logger) (*RTLSDR, error) {
	return nil, fmt.Errorf("%w: RTL-SDR support requires a cgo build", ErrUnavailable)
}

func (r *RTLSDR) NextBatch(ctx context.Context) ([]float64, error) {
	return nil, ErrUnavailable
}

func (r *RTLSDR) Close() error {
	return nil
}
