package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/vinfotechlanceai/smartstep/internal/capture"
	"github.com/vinfotechlanceai/smartstep/internal/storage"
)

func (h *Handler) routeImages(w http.ResponseWriter, r *http.Request, session *storage.Session, rest []string) {
	if session.Mode != storage.ModeManual {
		h.writeError(w, "Images can only be managed on a manual session", http.StatusConflict)
		return
	}

	switch {
	case len(rest) == 0:
		if r.Method != "POST" {
			h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		// JSON body carries an image URL; multipart carries files.
		if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
			h.handleURLUpload(w, r, session)
			return
		}
		h.handleFileUpload(w, r, session)
	case len(rest) == 1:
		switch r.Method {
		case "GET":
			h.handlePreview(w, session, rest[0])
		case "DELETE":
			h.handleRemoveImage(w, session, rest[0])
		default:
			h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	default:
		h.writeError(w, "Not found", http.StatusNotFound)
	}
}

func (h *Handler) handleFileUpload(w http.ResponseWriter, r *http.Request, session *storage.Session) {
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		h.writeError(w, "Failed to parse upload: "+err.Error(), http.StatusBadRequest)
		return
	}

	fileHeaders := r.MultipartForm.File["files"]
	if len(fileHeaders) == 0 {
		fileHeaders = r.MultipartForm.File["file"]
	}
	if len(fileHeaders) == 0 {
		h.writeError(w, "No files in upload", http.StatusBadRequest)
		return
	}

	var uploads []capture.FileUpload
	for _, header := range fileHeaders {
		file, err := header.Open()
		if err != nil {
			h.writeError(w, "Failed to read file: "+err.Error(), http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(io.LimitReader(file, h.maxUpload))
		file.Close()
		if err != nil {
			h.writeError(w, "Failed to read file contents: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if int64(len(data)) >= h.maxUpload {
			h.writeError(w, fmt.Sprintf("File too large (max %d bytes)", h.maxUpload), http.StatusBadRequest)
			return
		}
		uploads = append(uploads, capture.FileUpload{Name: header.Filename, Data: data})
	}

	accepted := session.Manual.AddFiles(uploads)

	response := map[string]any{
		"session_id": session.ID,
		"accepted":   len(accepted),
		"dropped":    len(uploads) - len(accepted),
		"session":    viewOf(session),
	}
	h.writeJSON(w, response)
}

func (h *Handler) handleURLUpload(w http.ResponseWriter, r *http.Request, session *storage.Session) {
	var request struct {
		ImageURL string `json:"image_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if request.ImageURL == "" {
		h.writeError(w, "image_url is required", http.StatusBadRequest)
		return
	}

	data, err := h.downloadImageFromURL(request.ImageURL)
	if err != nil {
		h.writeError(w, "Failed to process image URL: "+err.Error(), http.StatusBadRequest)
		return
	}

	parts := strings.Split(request.ImageURL, "/")
	filename := parts[len(parts)-1]
	if filename == "" {
		filename = "image.jpg"
	}

	accepted := session.Manual.AddFiles([]capture.FileUpload{{Name: filename, Data: data}})

	response := map[string]any{
		"session_id": session.ID,
		"accepted":   len(accepted),
		"source":     "url",
		"session":    viewOf(session),
	}
	h.writeJSON(w, response)
}

func (h *Handler) downloadImageFromURL(imageURL string) ([]byte, error) {
	resp, err := http.Get(imageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, h.maxUpload))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	return data, nil
}

func (h *Handler) handlePreview(w http.ResponseWriter, session *storage.Session, imageID string) {
	for _, c := range session.Manual.Candidates() {
		if c.ID == imageID {
			w.Header().Set("Content-Type", c.Image.MIME)
			if _, err := w.Write(c.Image.Data); err != nil {
				h.writeError(w, "Failed to write preview", http.StatusInternalServerError)
			}
			return
		}
	}
	h.writeError(w, "Image not found", http.StatusNotFound)
}

func (h *Handler) handleRemoveImage(w http.ResponseWriter, session *storage.Session, imageID string) {
	if !session.Manual.RemoveImage(imageID) {
		h.writeError(w, "Image not found", http.StatusNotFound)
		return
	}
	h.writeJSON(w, viewOf(session))
}

func (h *Handler) handleTag(w http.ResponseWriter, r *http.Request, session *storage.Session) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if session.Mode != storage.ModeManual {
		h.writeError(w, "Tagging is only available on a manual session", http.StatusConflict)
		return
	}

	var request struct {
		ImageID string `json:"image_id"`
		Slot    string `json:"slot"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	slot, err := capture.ParseView(request.Slot)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if _, err := session.Manual.TagImage(request.ImageID, slot); err != nil {
		h.writeError(w, err.Error(), http.StatusNotFound)
		return
	}
	h.writeJSON(w, viewOf(session))
}
