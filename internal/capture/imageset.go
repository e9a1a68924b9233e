// Package capture holds the image-acquisition core: the three-slot ImageSet,
// the manual upload-and-tag flow, and the guided live-scan state machine.
package capture

import "fmt"

// View is one of the three fixed anatomical view slots.
type View string

const (
	ViewTop  View = "top"
	ViewSide View = "side"
	ViewBack View = "back"
)

// Views lists the slots in capture order.
var Views = []View{ViewTop, ViewSide, ViewBack}

// ParseView validates a slot name from external input.
func ParseView(s string) (View, error) {
	switch View(s) {
	case ViewTop, ViewSide, ViewBack:
		return View(s), nil
	}
	return "", fmt.Errorf("invalid view %q (must be top, side or back)", s)
}

// Image is a captured or uploaded foot photograph.
type Image struct {
	MIME string
	Data []byte
}

// ImageSet maps each view slot to at most one image. A missing key means the
// slot is unpopulated.
type ImageSet map[View]*Image

// Empty reports whether no slot is populated.
func (s ImageSet) Empty() bool {
	for _, v := range Views {
		if s[v] != nil {
			return false
		}
	}
	return true
}

// Provided returns the populated slots in capture order.
func (s ImageSet) Provided() []View {
	var out []View
	for _, v := range Views {
		if s[v] != nil {
			out = append(out, v)
		}
	}
	return out
}

// Clone returns a copy of the set. Image blobs are shared, the map is not,
// so observers of an emitted set are isolated from later mutations.
func (s ImageSet) Clone() ImageSet {
	out := make(ImageSet, len(s))
	for v, img := range s {
		if img != nil {
			out[v] = img
		}
	}
	return out
}

// Session is a single image-acquisition flow. The manual tagging flow and
// the guided live scan both implement it, so downstream consumers depend on
// one contract regardless of acquisition mode.
type Session interface {
	// Images returns the current projection of the session as an ImageSet.
	Images() ImageSet
	// Reset discards all captured or uploaded images and returns the
	// session to its initial state, releasing any held resources.
	Reset()
}
