package capture

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/vinfotechlanceai/smartstep/internal/images"
)

// MaxCandidates is the hard cap on loose uploads held by a manual session.
const MaxCandidates = 3

// CandidateImage is an uploaded file not yet bound to a view slot.
type CandidateImage struct {
	ID    string
	Name  string
	Image Image
}

// SlotTagMap maps each view slot to the id of the candidate tagged for it.
// A missing or empty entry means the slot is unassigned.
type SlotTagMap map[View]string

// Clone returns a copy of the tag map.
func (m SlotTagMap) Clone() SlotTagMap {
	out := make(SlotTagMap, len(m))
	for v, id := range m {
		if id != "" {
			out[v] = id
		}
	}
	return out
}

// SlotOf returns the slot currently tagged with the given candidate id.
func (m SlotTagMap) SlotOf(id string) (View, bool) {
	for _, v := range Views {
		if m[v] == id && id != "" {
			return v, true
		}
	}
	return "", false
}

// ApplyTag is the tagging reducer. Tagging the pair that is already set
// untags the slot. Otherwise the candidate is cleared from any slot it held
// and the slot is cleared of any candidate it held before the new tag is
// set, so no candidate ever occupies two slots.
func ApplyTag(m SlotTagMap, id string, slot View) SlotTagMap {
	next := m.Clone()
	if next[slot] == id {
		delete(next, slot)
		return next
	}
	if prev, ok := next.SlotOf(id); ok {
		delete(next, prev)
	}
	next[slot] = id
	return next
}

// Project derives the ImageSet from the candidate collection and the tag
// map. Tags pointing at candidates that no longer exist resolve to nothing,
// so the projection degrades gracefully to a partial or empty set.
func Project(candidates []CandidateImage, m SlotTagMap) ImageSet {
	byID := make(map[string]*CandidateImage, len(candidates))
	for i := range candidates {
		byID[candidates[i].ID] = &candidates[i]
	}

	set := make(ImageSet)
	for _, v := range Views {
		id := m[v]
		if id == "" {
			continue
		}
		if c, ok := byID[id]; ok {
			img := c.Image
			set[v] = &img
		}
	}
	return set
}

// FileUpload is a raw user-supplied file heading into a manual session.
type FileUpload struct {
	Name string
	Data []byte
}

// ManualSession accepts up to three loose image files and lets the user
// label each with a view slot.
type ManualSession struct {
	mu         sync.Mutex
	candidates []CandidateImage
	tags       SlotTagMap
}

// NewManualSession creates an empty manual capture session.
func NewManualSession() *ManualSession {
	return &ManualSession{tags: make(SlotTagMap)}
}

// AddFiles filters the uploads to recognized image types and accepts at
// most as many as remain free under the three-image cap. Non-image files
// and overflow are dropped silently; that is a usability decision, not a
// failure. The accepted candidates are returned.
func (s *ManualSession) AddFiles(files []FileUpload) []CandidateImage {
	s.mu.Lock()
	defer s.mu.Unlock()

	var accepted []CandidateImage
	for _, f := range files {
		if len(s.candidates)+len(accepted) >= MaxCandidates {
			break
		}
		format, err := images.Sniff(f.Data)
		if err != nil {
			slog.Debug("Skipping non-image upload", "name", f.Name, "err", err)
			continue
		}
		accepted = append(accepted, CandidateImage{
			ID:    uuid.NewString(),
			Name:  f.Name,
			Image: Image{MIME: format.MIME(), Data: f.Data},
		})
	}

	s.candidates = append(s.candidates, accepted...)
	return accepted
}

// RemoveImage deletes a candidate and clears any slot tag referencing it.
// It reports whether the candidate existed.
func (s *ManualSession) RemoveImage(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.candidates {
		if s.candidates[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	s.candidates = append(s.candidates[:idx], s.candidates[idx+1:]...)
	if slot, ok := s.tags.SlotOf(id); ok {
		delete(s.tags, slot)
	}
	return true
}

// TagImage applies the toggle-tagging reducer for a known candidate.
func (s *ManualSession) TagImage(id string, slot View) (SlotTagMap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	known := false
	for i := range s.candidates {
		if s.candidates[i].ID == id {
			known = true
			break
		}
	}
	if !known {
		return nil, fmt.Errorf("unknown image id %q", id)
	}

	s.tags = ApplyTag(s.tags, id, slot)
	return s.tags.Clone(), nil
}

// Candidates returns a snapshot of the current candidate collection.
func (s *ManualSession) Candidates() []CandidateImage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]CandidateImage, len(s.candidates))
	copy(out, s.candidates)
	return out
}

// Tags returns a snapshot of the current slot tag map.
func (s *ManualSession) Tags() SlotTagMap {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tags.Clone()
}

// Images projects the session onto an ImageSet.
func (s *ManualSession) Images() ImageSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Project(s.candidates, s.tags)
}

// Reset discards all candidates and tags.
func (s *ManualSession) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candidates = nil
	s.tags = make(SlotTagMap)
}
