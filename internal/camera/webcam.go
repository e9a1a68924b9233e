//go:build gocv
// +build gocv

package camera

import (
	"context"
	"fmt"

	"gocv.io/x/gocv"
)

// Webcam opens a local capture device through OpenCV.
type Webcam struct {
	cfg Config
}

// NewWebcam creates a webcam camera for the given device configuration.
func NewWebcam(cfg Config) *Webcam {
	return &Webcam{cfg: cfg}
}

// Acquire opens the capture device and applies the preferred resolution.
func (w *Webcam) Acquire(ctx context.Context) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cap, err := gocv.OpenVideoCapture(w.cfg.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture device %d: %w", w.cfg.DeviceID, err)
	}
	if !cap.IsOpened() {
		_ = cap.Close()
		return nil, fmt.Errorf("capture device %d is not available", w.cfg.DeviceID)
	}

	if w.cfg.Width > 0 {
		cap.Set(gocv.VideoCaptureFrameWidth, float64(w.cfg.Width))
	}
	if w.cfg.Height > 0 {
		cap.Set(gocv.VideoCaptureFrameHeight, float64(w.cfg.Height))
	}

	return &webcamStream{cap: cap}, nil
}

type webcamStream struct {
	cap *gocv.VideoCapture
}

func (s *webcamStream) ReadFrame() (Frame, error) {
	mat := gocv.NewMat()
	defer mat.Close()

	if ok := s.cap.Read(&mat); !ok {
		return Frame{}, fmt.Errorf("failed to read frame from capture device")
	}
	if mat.Empty() {
		// Device not warmed up yet. Report a zero-dimension frame so the
		// caller can apply its readiness guard.
		return Frame{}, nil
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, mat)
	if err != nil {
		return Frame{}, fmt.Errorf("failed to encode frame: %w", err)
	}
	defer buf.Close()

	data := make([]byte, len(buf.GetBytes()))
	copy(data, buf.GetBytes())

	return Frame{
		MIME:   "image/jpeg",
		Data:   data,
		Width:  mat.Cols(),
		Height: mat.Rows(),
	}, nil
}

func (s *webcamStream) Close() error {
	return s.cap.Close()
}
