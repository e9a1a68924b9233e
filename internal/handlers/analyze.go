package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vinfotechlanceai/smartstep/internal/analysis"
	"github.com/vinfotechlanceai/smartstep/internal/consult"
	"github.com/vinfotechlanceai/smartstep/internal/storage"
)

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request, session *storage.Session) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	result, err := h.analyzer.Analyze(r.Context(), session.Acquisition().Images())
	if err != nil {
		code := http.StatusBadGateway
		if errors.Is(err, analysis.ErrNoImages) {
			code = http.StatusBadRequest
		}
		h.writeError(w, err.Error(), code)
		return
	}

	session.SetResult(result)
	h.writeJSON(w, viewOf(session))
}

// HandleConsult accepts a consultation request referencing a session. The
// message body is the deterministic text rendering of that session's
// latest analysis result; sessions without a result render placeholders.
func (h *Handler) HandleConsult(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var request struct {
		Name      string `json:"name"`
		Email     string `json:"email"`
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if request.Name == "" || request.Email == "" {
		h.writeError(w, "name and email are required", http.StatusBadRequest)
		return
	}

	var result *analysis.Result
	if request.SessionID != "" {
		session, ok := h.getSessionOrError(w, request.SessionID)
		if !ok {
			return
		}
		result = session.Result()
	}

	req := consult.Request{
		Name:    request.Name,
		Email:   request.Email,
		Message: consult.RenderSummary(result),
	}
	if err := h.sender.Send(r.Context(), req); err != nil {
		h.writeError(w, "Failed to submit consultation request: "+err.Error(), http.StatusBadGateway)
		return
	}

	h.writeJSON(w, map[string]any{
		"submitted": true,
		"message":   req.Message,
	})
}
