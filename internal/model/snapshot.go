package model

import (
	"fmt"
	"time"
)

// Target is the outcome of resolving an index: either a live handle or a
// screen point derived from the element rect.
type Target struct {
	Element Element
	Handle  Handle
	Point   *Point
}

// HasHandle reports whether the target can be acted on natively.
func (t Target) HasHandle() bool {
	return t.Handle != nil
}

// Snapshot is an immutable, indexed view of one window's elements at one
// moment. Indices run contiguously from 1 and are valid only for this
// snapshot.
type Snapshot struct {
	window     Window
	elements   []Element
	handles    []Handle
	capturedAt time.Time
}

// NewSnapshot validates elements and builds the index-to-handle table.
func NewSnapshot(window Window, elements []Element, capturedAt time.Time) (*Snapshot, error) {
	s := &Snapshot{
		window:     window,
		elements:   make([]Element, len(elements)),
		handles:    make([]Handle, len(elements)),
		capturedAt: capturedAt,
	}
	for i, el := range elements {
		if el.Index != i+1 {
			return nil, fmt.Errorf("snapshot element %d has index %d: indices must run 1..%d", i, el.Index, len(elements))
		}
		if err := el.Validate(); err != nil {
			return nil, fmt.Errorf("snapshot: %w", err)
		}
		s.elements[i] = el
		s.handles[i] = el.Handle
	}
	return s, nil
}

// Window returns the window the snapshot was taken of.
func (s *Snapshot) Window() Window { return s.window }

// CapturedAt returns when detection finished.
func (s *Snapshot) CapturedAt() time.Time { return s.capturedAt }

// Len returns the number of indexed elements.
func (s *Snapshot) Len() int { return len(s.elements) }

// Elements returns a copy of the indexed elements.
func (s *Snapshot) Elements() []Element {
	out := make([]Element, len(s.elements))
	copy(out, s.elements)
	return out
}

// Element returns the element at index.
func (s *Snapshot) Element(index int) (Element, bool) {
	if index < 1 || index > len(s.elements) {
		return Element{}, false
	}
	return s.elements[index-1], true
}

// Resolve maps an index to a handle, or to the rect center when the element
// has no handle. Unknown indices are a resolution error; there is no
// nearest-match fallback.
func (s *Snapshot) Resolve(index int) (Target, error) {
	el, ok := s.Element(index)
	if !ok {
		return Target{}, Errorf(KindResolution, "resolve", "index %d not found in current state (valid: 1-%d)", index, len(s.elements))
	}
	if h := s.handles[index-1]; h != nil {
		return Target{Element: el, Handle: h}, nil
	}
	if el.Rect == nil {
		return Target{}, Errorf(KindResolution, "resolve", "index %d has neither a handle nor a rect", index)
	}
	p := el.Rect.Center()
	return Target{Element: el, Point: &p}, nil
}
