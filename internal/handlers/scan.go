package handlers

import (
	"net/http"

	"github.com/vinfotechlanceai/smartstep/internal/capture"
	"github.com/vinfotechlanceai/smartstep/internal/storage"
)

func (h *Handler) routeScan(w http.ResponseWriter, r *http.Request, session *storage.Session, rest []string) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if session.Mode != storage.ModeScan {
		h.writeError(w, "Scan actions are only available on a scan session", http.StatusConflict)
		return
	}
	if len(rest) != 1 {
		h.writeError(w, "Not found", http.StatusNotFound)
		return
	}

	scan := session.Scan
	switch rest[0] {
	case "start":
		if err := scan.Start(r.Context()); err != nil {
			h.scanError(w, session, err)
			return
		}
	case "capture":
		if _, err := scan.Capture(); err != nil {
			code := http.StatusInternalServerError
			if err == capture.ErrNotCapturing {
				code = http.StatusConflict
			}
			h.writeError(w, err.Error(), code)
			return
		}
	case "reset":
		scan.Reset()
		session.SetResult(nil)
	case "retry":
		if err := scan.Retry(r.Context()); err != nil {
			h.scanError(w, session, err)
			return
		}
	default:
		h.writeError(w, "Not found", http.StatusNotFound)
		return
	}

	h.writeJSON(w, viewOf(session))
}

// scanError reports a failed start/retry. The session view still carries
// the error phase so the client can offer the retry action.
func (h *Handler) scanError(w http.ResponseWriter, session *storage.Session, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusServiceUnavailable)
	h.writeJSONBody(w, map[string]any{
		"error":   err.Error(),
		"session": viewOf(session),
	})
}
