// Package detect finds actionable elements in a window. Each Detector is one
// source of candidates; a Pipeline runs a primary detector plus optional
// additional ones and fuses their output.
package detect

import (
	"context"

	"github.com/mj1618/deskctl/internal/model"
)

// Result is a detector's output. Native elements carry their handle inside
// the element itself.
type Result struct {
	Elements []model.Element
	// Degraded is set when part of the detector failed but a usable,
	// smaller result was still produced.
	Degraded error
}

// Detector is one element source.
type Detector interface {
	// Kind names the element kind this detector contributes.
	Kind() model.Kind
	Detect(ctx context.Context, window model.Window) (Result, error)
}

func renumber(elements []model.Element) []model.Element {
	for i := range elements {
		elements[i].Index = i + 1
	}
	return elements
}
