package storage

import (
	"sync"
	"time"

	"github.com/vinfotechlanceai/smartstep/internal/analysis"
	"github.com/vinfotechlanceai/smartstep/internal/capture"
)

// Mode selects the acquisition flow of a session.
type Mode string

const (
	ModeManual Mode = "manual"
	ModeScan   Mode = "scan"
)

// Session ties one image-acquisition flow to its latest analysis outcome.
// Exactly one of Manual or Scan is set, according to Mode.
type Session struct {
	ID        string
	Mode      Mode
	Manual    *capture.ManualSession
	Scan      *capture.ScanSession
	CreatedAt time.Time

	mu     sync.Mutex
	result *analysis.Result
}

// Acquisition returns the session's acquisition flow behind the shared
// capture.Session contract.
func (s *Session) Acquisition() capture.Session {
	if s.Mode == ModeScan {
		return s.Scan
	}
	return s.Manual
}

// SetResult replaces the stored analysis result. Each analysis replaces,
// never merges.
func (s *Session) SetResult(res *analysis.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = res
}

// Result returns the latest analysis result, or nil.
func (s *Session) Result() *analysis.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// SessionStore is an in-memory, process-lifetime session registry.
type SessionStore struct {
	sessions map[string]*Session
	mu       sync.RWMutex
}

func New() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
	}
}

func (s *SessionStore) Get(sessionID string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, exists := s.sessions[sessionID]
	return session, exists
}

func (s *SessionStore) Set(sessionID string, session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = session
}

func (s *SessionStore) GetAll() map[string]*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*Session, len(s.sessions))
	for k, v := range s.sessions {
		result[k] = v
	}
	return result
}

// Delete removes a session and returns it so the caller can release any
// resources it still holds (a scan session's camera stream in particular).
func (s *SessionStore) Delete(sessionID string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, exists := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	return session, exists
}
