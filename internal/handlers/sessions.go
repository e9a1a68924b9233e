package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/vinfotechlanceai/smartstep/internal/storage"
)

func (h *Handler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		sessions := h.sessionStore.GetAll()
		sessionList := make([]sessionView, 0, len(sessions))
		for _, session := range sessions {
			sessionList = append(sessionList, viewOf(session))
		}
		h.writeJSON(w, sessionList)
	case "POST":
		var request struct {
			Mode string `json:"mode"`
		}
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
		mode := storage.Mode(request.Mode)
		if mode != storage.ModeManual && mode != storage.ModeScan {
			h.writeError(w, "Invalid mode. Must be 'manual' or 'scan'", http.StatusBadRequest)
			return
		}
		session := h.newSession(mode)
		h.sessionStore.Set(session.ID, session)
		h.writeJSON(w, viewOf(session))
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleSessionDetail routes everything under /api/sessions/{id}/... :
// session detail and deletion, image upload/removal/preview, slot tagging,
// the scan actions and the analysis trigger.
func (h *Handler) HandleSessionDetail(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/sessions/"), "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		h.writeError(w, "Session id required", http.StatusBadRequest)
		return
	}

	session, ok := h.getSessionOrError(w, parts[0])
	if !ok {
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case "GET":
			h.writeJSON(w, viewOf(session))
		case "DELETE":
			h.deleteSession(w, session)
		default:
			h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	switch parts[1] {
	case "images":
		h.routeImages(w, r, session, parts[2:])
	case "tags":
		h.handleTag(w, r, session)
	case "scan":
		h.routeScan(w, r, session, parts[2:])
	case "analyze":
		h.handleAnalyze(w, r, session)
	case "reset":
		h.handleReset(w, r, session)
	default:
		h.writeError(w, "Not found", http.StatusNotFound)
	}
}

func (h *Handler) deleteSession(w http.ResponseWriter, session *storage.Session) {
	deleted, _ := h.sessionStore.Delete(session.ID)
	if deleted != nil && deleted.Scan != nil {
		// Teardown must not leak the camera to the OS.
		deleted.Scan.Close()
	}
	h.writeJSON(w, map[string]any{"deleted": session.ID})
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request, session *storage.Session) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	session.Acquisition().Reset()
	session.SetResult(nil)
	h.writeJSON(w, viewOf(session))
}
