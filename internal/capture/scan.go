package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/vinfotechlanceai/smartstep/internal/camera"
)

// Phase is the current step of the guided live scan.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseCapturingTop
	PhaseCapturingSide
	PhaseCapturingBack
	PhaseDone
	PhaseError
)

// String returns the wire name of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseCapturingTop:
		return "capturing_top"
	case PhaseCapturingSide:
		return "capturing_side"
	case PhaseCapturingBack:
		return "capturing_back"
	case PhaseDone:
		return "done"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// View returns the slot the phase captures into, if it is a capturing phase.
func (p Phase) View() (View, bool) {
	switch p {
	case PhaseCapturingTop:
		return ViewTop, true
	case PhaseCapturingSide:
		return ViewSide, true
	case PhaseCapturingBack:
		return ViewBack, true
	}
	return "", false
}

func (p Phase) capturing() bool {
	_, ok := p.View()
	return ok
}

// ErrNotCapturing is returned when a capture is attempted outside a
// capturing phase.
var ErrNotCapturing = errors.New("scan is not in a capturing phase")

// ScanSession drives the strict three-phase capture sequence
// top -> side -> back over a live camera stream, one image per phase.
//
// The stream is exclusively owned by the session for the duration of an
// active scan and is released on every path leaving a capturing phase.
type ScanSession struct {
	mu      sync.Mutex
	cam     camera.Camera
	stream  camera.Stream
	phase   Phase
	images  ImageSet
	lastErr error
}

// NewScanSession creates an idle scan session over the given camera.
func NewScanSession(cam camera.Camera) *ScanSession {
	return &ScanSession{
		cam:    cam,
		phase:  PhaseIdle,
		images: make(ImageSet),
	}
}

// Start moves an idle session to the first capturing phase, acquiring the
// camera stream. On acquisition failure the session lands in the error
// phase, from which Retry re-attempts acquisition.
func (s *ScanSession) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseIdle {
		return fmt.Errorf("scan already started (phase %s)", s.phase)
	}
	return s.acquireLocked(ctx)
}

// Retry re-attempts camera acquisition from the error phase.
func (s *ScanSession) Retry(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseError {
		return fmt.Errorf("retry is only valid from the error phase (phase %s)", s.phase)
	}
	return s.acquireLocked(ctx)
}

func (s *ScanSession) acquireLocked(ctx context.Context) error {
	stream, err := s.cam.Acquire(ctx)
	if err != nil {
		s.phase = PhaseError
		s.lastErr = err
		slog.Error("Camera acquisition failed", "err", err)
		return fmt.Errorf("failed to access camera: %w", err)
	}
	s.stream = stream
	s.phase = PhaseCapturingTop
	s.lastErr = nil
	return nil
}

// Capture grabs the current video frame into the current phase's slot and
// advances the sequence. After the last phase the session completes and the
// stream is released. A frame without dimensions yet is silently ignored
// (readiness guard, not a failure): the phase does not advance and the
// current set is returned unchanged.
func (s *ScanSession) Capture() (ImageSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	view, ok := s.phase.View()
	if !ok {
		return nil, ErrNotCapturing
	}

	frame, err := s.stream.ReadFrame()
	if err != nil {
		return nil, fmt.Errorf("failed to capture frame: %w", err)
	}
	if frame.Width == 0 || frame.Height == 0 {
		slog.Debug("Ignoring capture before first frame", "phase", s.phase.String())
		return s.images.Clone(), nil
	}

	s.images[view] = &Image{MIME: frame.MIME, Data: frame.Data}

	switch s.phase {
	case PhaseCapturingTop:
		s.phase = PhaseCapturingSide
	case PhaseCapturingSide:
		s.phase = PhaseCapturingBack
	case PhaseCapturingBack:
		s.phase = PhaseDone
		s.releaseLocked()
	}

	return s.images.Clone(), nil
}

// Phase returns the current phase.
func (s *ScanSession) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Err returns the camera acquisition error that put the session in the
// error phase, if any.
func (s *ScanSession) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Images returns the accumulated (possibly partial) ImageSet.
func (s *ScanSession) Images() ImageSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.images.Clone()
}

// Reset returns the session to idle from any phase, clearing all captured
// slots and releasing the camera stream. It also serves as the retake
// action from the done phase.
func (s *ScanSession) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseLocked()
	s.phase = PhaseIdle
	s.images = make(ImageSet)
	s.lastErr = nil
}

// Close force-releases the camera stream regardless of phase. Call it on
// teardown; the session is unusable afterwards except via Reset/Start.
func (s *ScanSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseLocked()
	if s.phase.capturing() {
		s.phase = PhaseIdle
	}
}

func (s *ScanSession) releaseLocked() {
	if s.stream == nil {
		return
	}
	if err := s.stream.Close(); err != nil {
		slog.Warn("Failed to release camera stream", "err", err)
	}
	s.stream = nil
}
