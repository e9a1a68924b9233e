package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/vinfotechlanceai/smartstep/internal/analysis"
	"github.com/vinfotechlanceai/smartstep/internal/camera"
	"github.com/vinfotechlanceai/smartstep/internal/capture"
	"github.com/vinfotechlanceai/smartstep/internal/consult"
	"github.com/vinfotechlanceai/smartstep/internal/storage"
)

type Handler struct {
	sessionStore *storage.SessionStore
	analyzer     *analysis.Service
	sender       consult.Sender
	camera       camera.Camera
	maxUpload    int64
}

// New wires the HTTP surface over its collaborators.
func New(analyzer *analysis.Service, sender consult.Sender, cam camera.Camera, maxUpload int64) *Handler {
	if maxUpload <= 0 {
		maxUpload = 10 * 1024 * 1024
	}
	return &Handler{
		sessionStore: storage.New(),
		analyzer:     analyzer,
		sender:       sender,
		camera:       cam,
		maxUpload:    maxUpload,
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// writeJSONBody encodes a body after the caller has already written the
// status line.
func (h *Handler) writeJSONBody(w http.ResponseWriter, data interface{}) {
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

// Session helpers
func (h *Handler) getSessionOrError(w http.ResponseWriter, sessionID string) (*storage.Session, bool) {
	session, exists := h.sessionStore.Get(sessionID)
	if !exists {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return nil, false
	}
	return session, true
}

func (h *Handler) newSession(mode storage.Mode) *storage.Session {
	session := &storage.Session{
		ID:        uuid.NewString(),
		Mode:      mode,
		CreatedAt: time.Now(),
	}
	switch mode {
	case storage.ModeScan:
		session.Scan = capture.NewScanSession(h.camera)
	default:
		session.Manual = capture.NewManualSession()
	}
	return session
}

// JSON projections

type candidateView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Size int    `json:"size"`
	Slot string `json:"slot,omitempty"`
}

type sessionView struct {
	ID         string            `json:"id"`
	Mode       string            `json:"mode"`
	CreatedAt  time.Time         `json:"created_at"`
	Candidates []candidateView   `json:"candidates,omitempty"`
	Tags       map[string]string `json:"tags,omitempty"`
	Phase      string            `json:"phase,omitempty"`
	Views      []string          `json:"views"`
	HasResult  bool              `json:"has_result"`
	Result     *analysis.Result  `json:"result,omitempty"`
}

func viewOf(session *storage.Session) sessionView {
	v := sessionView{
		ID:        session.ID,
		Mode:      string(session.Mode),
		CreatedAt: session.CreatedAt,
		Views:     []string{},
	}

	for _, view := range session.Acquisition().Images().Provided() {
		v.Views = append(v.Views, string(view))
	}

	switch session.Mode {
	case storage.ModeManual:
		tags := session.Manual.Tags()
		v.Tags = make(map[string]string, len(tags))
		for slot, id := range tags {
			v.Tags[string(slot)] = id
		}
		for _, c := range session.Manual.Candidates() {
			cv := candidateView{ID: c.ID, Name: c.Name, Size: len(c.Image.Data)}
			if slot, ok := tags.SlotOf(c.ID); ok {
				cv.Slot = string(slot)
			}
			v.Candidates = append(v.Candidates, cv)
		}
	case storage.ModeScan:
		v.Phase = session.Scan.Phase().String()
	}

	if res := session.Result(); res != nil {
		v.HasResult = true
		v.Result = res
	}
	return v
}
