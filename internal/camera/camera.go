// Package camera abstracts the capture device used by the guided live scan.
// The real device is only compiled in with the gocv build tag; the default
// build carries a stub so the rest of the application links without OpenCV.
package camera

import "context"

// Frame is a single still image grabbed from an open stream.
type Frame struct {
	MIME   string
	Data   []byte
	Width  int
	Height int
}

// Stream is an open video stream. Close must release the underlying device;
// holding a stream past the end of a scan leaks the hardware to the OS.
type Stream interface {
	ReadFrame() (Frame, error)
	Close() error
}

// Camera grants access to a capture device. Acquire blocks until the device
// is opened or the attempt fails.
type Camera interface {
	Acquire(ctx context.Context) (Stream, error)
}

// Config selects the capture device and its preferred resolution.
type Config struct {
	DeviceID int
	Width    int
	Height   int
}

// DefaultConfig is the preferred scan resolution.
func DefaultConfig() Config {
	return Config{DeviceID: 0, Width: 1280, Height: 720}
}
