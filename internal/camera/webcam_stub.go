//go:build !gocv
// +build !gocv

package camera

import (
	"context"
	"errors"
)

// Webcam is a stub used when the binary is built without OpenCV support.
type Webcam struct {
	cfg Config
}

// NewWebcam creates a stub webcam.
func NewWebcam(cfg Config) *Webcam {
	return &Webcam{cfg: cfg}
}

// Acquire always fails: no capture device is available in this build.
func (w *Webcam) Acquire(ctx context.Context) (Stream, error) {
	return nil, errors.New("camera support is not compiled in (rebuild with -tags gocv)")
}
