package model

import "fmt"

// Kind tells which detector produced an element.
type Kind string

const (
	// KindNative elements come from the OS accessibility tree and carry a handle.
	KindNative Kind = "native"
	// KindInferred elements are derived by reasoning over native tree data.
	KindInferred Kind = "inferred"
	// KindVisual elements are found by image analysis of a screenshot.
	KindVisual Kind = "visual"
)

// Handle is an opaque reference to a live accessibility element. Handles are
// only meaningful inside the process that enumerated them.
type Handle interface {
	HandleID() string
}

// Element is one actionable UI element in a snapshot.
type Element struct {
	Index      int      `yaml:"index"                json:"index"`
	Kind       Kind     `yaml:"kind"                 json:"kind"`
	Label      string   `yaml:"label"                json:"label"`
	Type       string   `yaml:"type"                 json:"type"`
	Rect       *Rect    `yaml:"rect,omitempty,flow"  json:"rect,omitempty"`
	Confidence *float64 `yaml:"confidence,omitempty" json:"confidence,omitempty"`

	// Handle is set for native elements only and never serialized.
	Handle Handle `yaml:"-" json:"-"`
}

// HasRect reports whether the element has a usable rectangle.
func (e Element) HasRect() bool {
	return e.Rect != nil
}

// Validate checks the kind/handle/rect invariants.
func (e Element) Validate() error {
	switch e.Kind {
	case KindNative:
		if e.Handle == nil {
			return fmt.Errorf("native element %d %q has no handle", e.Index, e.Label)
		}
	case KindInferred, KindVisual:
		if e.Handle != nil {
			return fmt.Errorf("%s element %d %q must not carry a handle", e.Kind, e.Index, e.Label)
		}
		if e.Rect == nil {
			return fmt.Errorf("%s element %d %q has no rect", e.Kind, e.Index, e.Label)
		}
	default:
		return fmt.Errorf("element %d has unknown kind %q", e.Index, e.Kind)
	}
	return nil
}

// ConfidencePtr is a helper for literal construction.
func ConfidencePtr(c float64) *float64 {
	return &c
}

// RectPtr is a helper for literal construction.
func RectPtr(l, t, r, b int) *Rect {
	return &Rect{l, t, r, b}
}
