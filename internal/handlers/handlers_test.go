package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vinfotechlanceai/smartstep/internal/analysis"
	"github.com/vinfotechlanceai/smartstep/internal/camera"
	"github.com/vinfotechlanceai/smartstep/internal/consult"
)

const analysisBody = `{
	"archType": "Normal",
	"potentialIssues": [],
	"summary": "Healthy feet.",
	"clinicalRecommendations": [],
	"footwearSuggestions": ["Neutral shoes."],
	"confidenceScore": 88
}`

type stubProvider struct {
	body  string
	calls int
}

func (p *stubProvider) Name() string { return "stub" }
func (p *stubProvider) AnalyzeImages(ctx context.Context, req analysis.Request) ([]byte, error) {
	p.calls++
	return []byte(p.body), nil
}

type fakeStream struct {
	frame  camera.Frame
	closed bool
}

func (s *fakeStream) ReadFrame() (camera.Frame, error) { return s.frame, nil }
func (s *fakeStream) Close() error                     { s.closed = true; return nil }

type fakeCamera struct {
	stream *fakeStream
	err    error
}

func (c *fakeCamera) Acquire(ctx context.Context) (camera.Stream, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.stream, nil
}

type captureSender struct {
	last consult.Request
	sent int
}

func (s *captureSender) Send(ctx context.Context, req consult.Request) error {
	s.last = req
	s.sent++
	return nil
}

func newTestHandler(t *testing.T, provider *stubProvider, cam camera.Camera, sender consult.Sender) *Handler {
	t.Helper()
	if provider == nil {
		provider = &stubProvider{body: analysisBody}
	}
	if cam == nil {
		cam = &fakeCamera{stream: &fakeStream{frame: camera.Frame{MIME: "image/jpeg", Data: []byte{1}, Width: 640, Height: 480}}}
	}
	if sender == nil {
		sender = consult.LogSender{}
	}
	return New(analysis.NewService(provider), sender, cam, 0)
}

func mux(h *Handler) *http.ServeMux {
	m := http.NewServeMux()
	m.HandleFunc("/api/sessions", h.HandleSessions)
	m.HandleFunc("/api/sessions/", h.HandleSessionDetail)
	m.HandleFunc("/api/consult", h.HandleConsult)
	return m
}

func doJSON(t *testing.T, m *http.ServeMux, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewBuffer(payload)
	} else {
		reader = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	m.ServeHTTP(w, req)
	return w
}

func decodeSession(t *testing.T, body []byte) sessionView {
	t.Helper()
	var v sessionView
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("decode session view: %v\n%s", err, body)
	}
	return v
}

func createSession(t *testing.T, m *http.ServeMux, mode string) sessionView {
	t.Helper()
	w := doJSON(t, m, "POST", "/api/sessions", map[string]string{"mode": mode})
	if w.Code != http.StatusOK {
		t.Fatalf("create session: status %d: %s", w.Code, w.Body.String())
	}
	return decodeSession(t, w.Body.Bytes())
}

func jpegUpload(t *testing.T, fields map[string][]string) (*bytes.Buffer, string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	var jpg bytes.Buffer
	if err := jpeg.Encode(&jpg, img, nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for field, names := range fields {
		for _, name := range names {
			part, err := writer.CreateFormFile(field, name)
			if err != nil {
				t.Fatalf("create form file: %v", err)
			}
			if _, err := part.Write(jpg.Bytes()); err != nil {
				t.Fatalf("write form file: %v", err)
			}
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func TestManualFlowUploadTagAnalyze(t *testing.T) {
	provider := &stubProvider{body: analysisBody}
	h := newTestHandler(t, provider, nil, nil)
	m := mux(h)

	session := createSession(t, m, "manual")

	body, contentType := jpegUpload(t, map[string][]string{"files": {"top.jpg", "side.jpg"}})
	req := httptest.NewRequest("POST", "/api/sessions/"+session.ID+"/images", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	m.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("upload: status %d: %s", w.Code, w.Body.String())
	}

	var uploadResp struct {
		Accepted int         `json:"accepted"`
		Session  sessionView `json:"session"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &uploadResp); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	if uploadResp.Accepted != 2 {
		t.Fatalf("accepted = %d, want 2", uploadResp.Accepted)
	}

	// Tag both candidates.
	for i, slot := range []string{"top", "side"} {
		w := doJSON(t, m, "POST", "/api/sessions/"+session.ID+"/tags", map[string]string{
			"image_id": uploadResp.Session.Candidates[i].ID,
			"slot":     slot,
		})
		if w.Code != http.StatusOK {
			t.Fatalf("tag %s: status %d: %s", slot, w.Code, w.Body.String())
		}
	}

	w = doJSON(t, m, "POST", "/api/sessions/"+session.ID+"/analyze", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("analyze: status %d: %s", w.Code, w.Body.String())
	}
	got := decodeSession(t, w.Body.Bytes())
	if !got.HasResult || got.Result == nil || got.Result.ArchType != analysis.ArchNormal {
		t.Errorf("analysis result not stored on session: %+v", got)
	}
	if provider.calls != 1 {
		t.Errorf("provider calls = %d, want 1", provider.calls)
	}
}

func TestAnalyzeWithoutImagesFailsLocally(t *testing.T) {
	provider := &stubProvider{body: analysisBody}
	h := newTestHandler(t, provider, nil, nil)
	m := mux(h)

	session := createSession(t, m, "manual")
	w := doJSON(t, m, "POST", "/api/sessions/"+session.ID+"/analyze", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("analyze empty session: status %d, want 400", w.Code)
	}
	if provider.calls != 0 {
		t.Errorf("provider invoked for empty session")
	}
}

func TestScanFlow(t *testing.T) {
	stream := &fakeStream{frame: camera.Frame{MIME: "image/jpeg", Data: []byte{1}, Width: 640, Height: 480}}
	h := newTestHandler(t, nil, &fakeCamera{stream: stream}, nil)
	m := mux(h)

	session := createSession(t, m, "scan")

	w := doJSON(t, m, "POST", "/api/sessions/"+session.ID+"/scan/start", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("start: status %d: %s", w.Code, w.Body.String())
	}
	if got := decodeSession(t, w.Body.Bytes()); got.Phase != "capturing_top" {
		t.Fatalf("phase after start = %s", got.Phase)
	}

	wantPhases := []string{"capturing_side", "capturing_back", "done"}
	for i, want := range wantPhases {
		w := doJSON(t, m, "POST", "/api/sessions/"+session.ID+"/scan/capture", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("capture %d: status %d: %s", i, w.Code, w.Body.String())
		}
		got := decodeSession(t, w.Body.Bytes())
		if got.Phase != want {
			t.Fatalf("capture %d: phase = %s, want %s", i, got.Phase, want)
		}
		if len(got.Views) != i+1 {
			t.Fatalf("capture %d: views = %v", i, got.Views)
		}
	}

	if !stream.closed {
		t.Errorf("camera stream not released after scan completion")
	}

	// Capture after done is rejected.
	w = doJSON(t, m, "POST", "/api/sessions/"+session.ID+"/scan/capture", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("capture after done: status %d, want 409", w.Code)
	}
}

func TestScanStartFailureExposesRetry(t *testing.T) {
	cam := &fakeCamera{err: errors.New("permission denied")}
	h := newTestHandler(t, nil, cam, nil)
	m := mux(h)

	session := createSession(t, m, "scan")
	w := doJSON(t, m, "POST", "/api/sessions/"+session.ID+"/scan/start", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("start with broken camera: status %d, want 503", w.Code)
	}

	var resp struct {
		Error   string      `json:"error"`
		Session sessionView `json:"session"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if resp.Session.Phase != "error" {
		t.Fatalf("phase = %s, want error", resp.Session.Phase)
	}

	cam.err = nil
	cam.stream = &fakeStream{frame: camera.Frame{MIME: "image/jpeg", Data: []byte{1}, Width: 640, Height: 480}}
	w = doJSON(t, m, "POST", "/api/sessions/"+session.ID+"/scan/retry", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("retry: status %d: %s", w.Code, w.Body.String())
	}
	if got := decodeSession(t, w.Body.Bytes()); got.Phase != "capturing_top" {
		t.Errorf("phase after retry = %s", got.Phase)
	}
}

func TestScanActionsRejectedOnManualSession(t *testing.T) {
	h := newTestHandler(t, nil, nil, nil)
	m := mux(h)

	session := createSession(t, m, "manual")
	w := doJSON(t, m, "POST", "/api/sessions/"+session.ID+"/scan/start", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("scan start on manual session: status %d, want 409", w.Code)
	}
}

func TestConsultRendersSessionResult(t *testing.T) {
	sender := &captureSender{}
	h := newTestHandler(t, &stubProvider{body: analysisBody}, nil, sender)
	m := mux(h)

	session := createSession(t, m, "manual")

	body, contentType := jpegUpload(t, map[string][]string{"files": {"side.jpg"}})
	req := httptest.NewRequest("POST", "/api/sessions/"+session.ID+"/images", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	m.ServeHTTP(w, req)
	uploaded := struct {
		Session sessionView `json:"session"`
	}{}
	if err := json.Unmarshal(w.Body.Bytes(), &uploaded); err != nil {
		t.Fatalf("decode upload: %v", err)
	}

	doJSON(t, m, "POST", "/api/sessions/"+session.ID+"/tags", map[string]string{
		"image_id": uploaded.Session.Candidates[0].ID,
		"slot":     "side",
	})
	doJSON(t, m, "POST", "/api/sessions/"+session.ID+"/analyze", nil)

	w = doJSON(t, m, "POST", "/api/consult", map[string]string{
		"name":       "Pat",
		"email":      "pat@example.com",
		"session_id": session.ID,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("consult: status %d: %s", w.Code, w.Body.String())
	}
	if sender.sent != 1 {
		t.Fatalf("sender invoked %d times, want 1", sender.sent)
	}
	if !strings.Contains(sender.last.Message, "Foot Arch Type: Normal") {
		t.Errorf("consult message missing arch line:\n%s", sender.last.Message)
	}
	if !strings.Contains(sender.last.Message, "None detected") {
		t.Errorf("consult message missing None detected for empty issues:\n%s", sender.last.Message)
	}
}

func TestConsultWithoutResultRendersPlaceholders(t *testing.T) {
	sender := &captureSender{}
	h := newTestHandler(t, nil, nil, sender)
	m := mux(h)

	session := createSession(t, m, "manual")
	w := doJSON(t, m, "POST", "/api/consult", map[string]string{
		"name":       "Pat",
		"email":      "pat@example.com",
		"session_id": session.ID,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("consult: status %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(sender.last.Message, "Foot Arch Type: N/A") {
		t.Errorf("placeholder message not rendered:\n%s", sender.last.Message)
	}
}

func TestDeleteScanSessionReleasesCamera(t *testing.T) {
	stream := &fakeStream{frame: camera.Frame{MIME: "image/jpeg", Data: []byte{1}, Width: 640, Height: 480}}
	h := newTestHandler(t, nil, &fakeCamera{stream: stream}, nil)
	m := mux(h)

	session := createSession(t, m, "scan")
	doJSON(t, m, "POST", "/api/sessions/"+session.ID+"/scan/start", nil)

	w := doJSON(t, m, "DELETE", "/api/sessions/"+session.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: status %d: %s", w.Code, w.Body.String())
	}
	if !stream.closed {
		t.Errorf("camera stream not released on session deletion")
	}

	w = doJSON(t, m, "GET", "/api/sessions/"+session.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("deleted session still retrievable: status %d", w.Code)
	}
}
